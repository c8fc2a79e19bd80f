package handlers

import (
	"github.com/gin-gonic/gin"

	"ledgerscope/internal/core/apperror"
	"ledgerscope/internal/domain/budget"
	"ledgerscope/internal/domain/stores"
	"ledgerscope/internal/infrastructure/http/v1/dto"
)

// BudgetsHandler serves budget CRUD.
type BudgetsHandler struct {
	BaseHandler
	store    budget.Store
	registry *stores.Registry
}

// NewBudgetsHandler creates a budgets handler.
func NewBudgetsHandler(store budget.Store, registry *stores.Registry) *BudgetsHandler {
	return &BudgetsHandler{store: store, registry: registry}
}

func (h *BudgetsHandler) validStores(c *gin.Context, amounts map[string]float64) bool {
	for sc := range amounts {
		if _, ok := h.registry.Get(sc); !ok {
			h.Error(c, apperror.NewValidation("unknown store code").WithDetail("store", sc))
			return false
		}
	}
	return true
}

func budgetResponse(key string, amounts map[string]float64) dto.BudgetResponse {
	total := 0.0
	for _, v := range amounts {
		total += v
	}
	return dto.BudgetResponse{Key: key, Amounts: amounts, Total: total}
}

// ListKeys handles GET /api/v1/budgets.
func (h *BudgetsHandler) ListKeys(c *gin.Context) {
	keys, err := h.store.Keys(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.BudgetKeysResponse{Keys: keys})
}

// Get handles GET /api/v1/budgets/:key. A key nobody wrote yet returns
// an empty mapping, not 404: every selection has a budget, possibly
// zero.
func (h *BudgetsHandler) Get(c *gin.Context) {
	key := c.Param("key")
	amounts, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, budgetResponse(key, amounts))
}

// Set handles PUT /api/v1/budgets/:key.
func (h *BudgetsHandler) Set(c *gin.Context) {
	key := c.Param("key")

	var req dto.SetBudgetRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if !h.validStores(c, req.Amounts) {
		return
	}

	if err := h.store.SetAll(c.Request.Context(), key, req.Amounts); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, budgetResponse(key, req.Amounts))
}

// SetStore handles PUT /api/v1/budgets/:key/stores/:store.
func (h *BudgetsHandler) SetStore(c *gin.Context) {
	key := c.Param("key")
	storeCode := c.Param("store")

	if _, ok := h.registry.Get(storeCode); !ok {
		h.Error(c, apperror.NewValidation("unknown store code").WithDetail("store", storeCode))
		return
	}

	var req dto.SetStoreBudgetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.store.Set(c.Request.Context(), key, storeCode, req.Amount); err != nil {
		h.Error(c, err)
		return
	}

	amounts, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, budgetResponse(key, amounts))
}

// Template handles POST /api/v1/budgets/:key/template. It writes a flat
// amount across the requested stores, defaulting to every retail store.
func (h *BudgetsHandler) Template(c *gin.Context) {
	key := c.Param("key")

	var req dto.BudgetTemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	storeCodes := req.Stores
	if len(storeCodes) == 0 {
		storeCodes = h.registry.Retail()
	} else {
		set := make(map[string]float64, len(storeCodes))
		for _, sc := range storeCodes {
			set[sc] = 0
		}
		if !h.validStores(c, set) {
			return
		}
	}

	if err := budget.ApplyTemplate(c.Request.Context(), h.store, key, storeCodes, req.Amount); err != nil {
		h.Error(c, err)
		return
	}

	amounts, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, budgetResponse(key, amounts))
}

// Delete handles DELETE /api/v1/budgets/:key.
func (h *BudgetsHandler) Delete(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context(), c.Param("key")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
