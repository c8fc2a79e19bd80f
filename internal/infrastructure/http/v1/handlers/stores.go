package handlers

import (
	"github.com/gin-gonic/gin"

	"ledgerscope/internal/domain/stores"
)

// StoresHandler exposes the store registry.
type StoresHandler struct {
	BaseHandler
	registry *stores.Registry
}

// NewStoresHandler creates a stores handler.
func NewStoresHandler(registry *stores.Registry) *StoresHandler {
	return &StoresHandler{registry: registry}
}

// List handles GET /api/v1/stores.
func (h *StoresHandler) List(c *gin.Context) {
	h.OK(c, gin.H{"stores": h.registry.All()})
}
