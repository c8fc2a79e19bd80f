package handlers

import (
	"github.com/gin-gonic/gin"

	"ledgerscope/internal/domain/dataset"
	"ledgerscope/internal/infrastructure/http/v1/dto"
)

// DataSourcesHandler reports whether each snapshot section came from a
// live backend or from demo data.
type DataSourcesHandler struct {
	BaseHandler
	loader       *dataset.Loader
	defaultYears []int
}

// NewDataSourcesHandler creates a datasources handler.
func NewDataSourcesHandler(loader *dataset.Loader, defaultYears []int) *DataSourcesHandler {
	return &DataSourcesHandler{loader: loader, defaultYears: defaultYears}
}

// Get handles GET /api/v1/datasources.
func (h *DataSourcesHandler) Get(c *gin.Context) {
	years, ok := h.YearsQuery(c, h.defaultYears)
	if !ok {
		return
	}

	snap, err := h.loader.Load(c.Request.Context(), years)
	if err != nil {
		h.Error(c, err)
		return
	}

	sources := make(map[string]string, len(snap.Sources))
	for k, v := range snap.Sources {
		sources[k] = string(v)
	}
	h.OK(c, dto.DataSourcesResponse{Years: snap.Years, Sources: sources})
}

// Refresh handles POST /api/v1/datasources/refresh, dropping the cached
// snapshot so the next report reloads from the backends.
func (h *DataSourcesHandler) Refresh(c *gin.Context) {
	years, ok := h.YearsQuery(c, h.defaultYears)
	if !ok {
		return
	}
	h.loader.Invalidate(years)
	h.OK(c, dto.SuccessResponse{Success: true, Message: "snapshot cache invalidated"})
}
