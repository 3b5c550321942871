package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tax-task-tracker/internal/constants"
)

// PaginationParams is one page of the activity log. A zero Limit means the
// whole log.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse is the "pagination" object returned next to a page.
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// GetPaginationParams reads ?page and ?limit. Missing or malformed values
// fall back to the first page of DefaultPageSize entries; a limit above
// MaxPageSize is capped rather than ignored.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", constants.DefaultPageSize)

	if page < 1 {
		page = 1
	}
	switch {
	case limit < constants.MinPageSize:
		limit = constants.DefaultPageSize
	case limit > constants.MaxPageSize:
		limit = constants.MaxPageSize
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// NewPaginationResponse describes params against a total row count.
func NewPaginationResponse(params PaginationParams, total int64) PaginationResponse {
	pages := 0
	if params.Limit > 0 && total > 0 {
		pages = int((total + int64(params.Limit) - 1) / int64(params.Limit))
	}
	return PaginationResponse{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
		Pages: pages,
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
