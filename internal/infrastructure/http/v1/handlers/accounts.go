package handlers

import (
	"sort"

	"github.com/gin-gonic/gin"

	"ledgerscope/internal/core/apperror"
	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/infrastructure/http/v1/dto"
	"ledgerscope/internal/infrastructure/odoo"
)

// AccountsHandler exposes the chart of accounts with its classification.
// This is operator tooling: it shows which accounts feed the reports and
// which are silently excluded.
type AccountsHandler struct {
	BaseHandler
	client     *odoo.Client
	accountMap accountmap.Map
}

// NewAccountsHandler creates an accounts handler. client may be nil when
// no accounting backend is configured.
func NewAccountsHandler(client *odoo.Client, m accountmap.Map) *AccountsHandler {
	return &AccountsHandler{client: client, accountMap: m}
}

func (h *AccountsHandler) fetch(c *gin.Context) ([]dto.AccountClassification, bool) {
	if h.client == nil || !h.client.Configured() {
		h.Error(c, apperror.NewConfig("accounting backend is not configured"))
		return nil, false
	}

	accounts, err := h.client.FetchAccounts(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	out := make([]dto.AccountClassification, 0, len(accounts))
	for _, a := range accounts {
		row := dto.AccountClassification{
			Code: string(a.Code),
			Name: string(a.Name),
		}
		if match, ok := h.accountMap.Classify(row.Code, ""); ok {
			row.Section = string(match.Section)
			row.Category = match.Category
			row.Label = match.Entry.Label
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, true
}

// List handles GET /api/v1/accounts.
func (h *AccountsHandler) List(c *gin.Context) {
	accounts, ok := h.fetch(c)
	if !ok {
		return
	}
	h.OK(c, gin.H{"accounts": accounts})
}

// Unmapped handles GET /api/v1/accounts/unmapped. It lists accounts no
// pattern matches, so an operator can spot ledger activity the reports
// never see.
func (h *AccountsHandler) Unmapped(c *gin.Context) {
	accounts, ok := h.fetch(c)
	if !ok {
		return
	}

	var unmapped []dto.AccountClassification
	for _, a := range accounts {
		if a.Section == "" {
			unmapped = append(unmapped, a)
		}
	}
	h.OK(c, gin.H{"accounts": unmapped, "total": len(accounts), "unmapped": len(unmapped)})
}
