package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/obligations"
	"github.com/yukikurage/tax-task-tracker/internal/services"
)

// ObligationHandler serves the tax calendar endpoints.
type ObligationHandler struct {
	obligationService *services.ObligationService
}

func NewObligationHandler(obligationService *services.ObligationService) *ObligationHandler {
	return &ObligationHandler{obligationService: obligationService}
}

type generateRequest struct {
	Year          int      `json:"year"`
	Month         int      `json:"month"`
	AssigneeEmail string   `json:"assigneeEmail"`
	Categories    []string `json:"categories"`
	CompanyTypes  []string `json:"companyTypes"`
}

func (r generateRequest) input() services.GenerateInput {
	return services.GenerateInput{
		Year:          r.Year,
		Month:         r.Month,
		AssigneeEmail: r.AssigneeEmail,
		Filter: obligations.Filter{
			Categories:   r.Categories,
			CompanyTypes: r.CompanyTypes,
		},
	}
}

// Catalog lists the obligations grouped by month. The category and
// companyType query parameters take comma separated values.
func (h *ObligationHandler) Catalog(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	view, err := h.obligationService.Catalog(p, obligations.Filter{
		Categories:   splitQuery(c.Query("category")),
		CompanyTypes: splitQuery(c.Query("companyType")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GenerateMonth creates the tasks of one month.
func (h *ObligationHandler) GenerateMonth(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	outcome, err := h.obligationService.GenerateMonth(c.Request.Context(), p, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Obligation calendar %02d/%d created", outcome.Month, outcome.Year),
		"result":  outcome,
		"tasks":   dto.ToTaskDTOs(outcome.Tasks),
	})
}

// GenerateYear creates the tasks of every month of a year. Months fail
// independently and are reported one by one.
func (h *ObligationHandler) GenerateYear(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	outcome, err := h.obligationService.GenerateYear(c.Request.Context(), p, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Obligation calendar %d created (%d of 12 months)", outcome.Year, outcome.Succeeded),
		"result":  outcome,
	})
}

// GenerateNextMonth creates the tasks of the coming month.
func (h *ObligationHandler) GenerateNextMonth(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req generateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	outcome, err := h.obligationService.GenerateNextMonth(c.Request.Context(), p, req.AssigneeEmail, req.input().Filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Obligation calendar %02d/%d created", outcome.Month, outcome.Year),
		"result":  outcome,
		"tasks":   dto.ToTaskDTOs(outcome.Tasks),
	})
}

// Refresh reloads the catalog from the configured feed.
func (h *ObligationHandler) Refresh(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	view, err := h.obligationService.RefreshCatalog(c.Request.Context(), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Extract reads obligations out of a pasted bulletin.
func (h *ObligationHandler) Extract(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	type ExtractRequest struct {
		Text  string `json:"text" binding:"required"`
		Merge bool   `json:"merge"`
	}

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Text is required")
		return
	}

	result, err := h.obligationService.ExtractFromText(c.Request.Context(), p, req.Text, req.Merge)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func splitQuery(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
