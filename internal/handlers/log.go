package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
	"github.com/yukikurage/tax-task-tracker/internal/services"
	"github.com/yukikurage/tax-task-tracker/internal/utils"
)

type LogHandler struct {
	activityService *services.ActivityService
}

func NewLogHandler(activityService *services.ActivityService) *LogHandler {
	return &LogHandler{activityService: activityService}
}

// ListLogs returns activity entries, newest first. Administrators see
// every entry, other users their own.
func (h *LogHandler) ListLogs(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.activityService.List(p, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":       entries,
		"pagination": utils.NewPaginationResponse(params, total),
	})
}

// AppendLog records a client-side event.
func (h *LogHandler) AppendLog(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	type AppendRequest struct {
		Action    string `json:"action"`
		TaskID    string `json:"taskId"`
		TaskTitle string `json:"taskTitle"`
	}

	var req AppendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	entry, err := h.activityService.Append(c.Request.Context(), p, services.AppendInput{
		Action:    req.Action,
		TaskID:    req.TaskID,
		TaskTitle: req.TaskTitle,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}
