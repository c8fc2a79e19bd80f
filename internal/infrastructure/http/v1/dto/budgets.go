package dto

// BudgetResponse is one budget key with its per-store amounts.
type BudgetResponse struct {
	Key     string             `json:"key"`
	Amounts map[string]float64 `json:"amounts"`
	Total   float64            `json:"total"`
}

// BudgetKeysResponse lists the known budget keys.
type BudgetKeysResponse struct {
	Keys []string `json:"keys"`
}

// SetBudgetRequest replaces the whole per-store mapping under a key.
type SetBudgetRequest struct {
	Amounts map[string]float64 `json:"amounts" binding:"required"`
}

// SetStoreBudgetRequest sets one store's amount under a key.
type SetStoreBudgetRequest struct {
	Amount float64 `json:"amount"`
}

// BudgetTemplateRequest applies a flat amount across stores. An empty
// store list means every retail store.
type BudgetTemplateRequest struct {
	Amount float64  `json:"amount"`
	Stores []string `json:"stores,omitempty"`
}
