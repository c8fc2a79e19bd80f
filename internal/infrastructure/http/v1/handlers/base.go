// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ledgerscope/internal/core/apperror"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// BindJSON binds and validates a JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers an error on the gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// OK sends a 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends a 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// IntParam parses an integer path parameter.
func (h *BaseHandler) IntParam(c *gin.Context, key string) (int64, bool) {
	raw := c.Param(key)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key).WithDetail(key, raw))
		return 0, false
	}
	return v, true
}

// CSVQuery parses a comma-separated query parameter, also accepting
// repeated parameters.
func (h *BaseHandler) CSVQuery(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if v := strings.TrimSpace(part); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// YearsQuery parses the years selection, falling back to defaults.
func (h *BaseHandler) YearsQuery(c *gin.Context, defaults []int) ([]int, bool) {
	raw := h.CSVQuery(c, "years")
	if len(raw) == 0 {
		return defaults, true
	}
	years := make([]int, 0, len(raw))
	for _, r := range raw {
		y, err := strconv.Atoi(r)
		if err != nil || y < 2000 || y > 2100 {
			h.Error(c, apperror.NewValidation("invalid year").WithDetail("year", r))
			return nil, false
		}
		years = append(years, y)
	}
	return years, true
}
