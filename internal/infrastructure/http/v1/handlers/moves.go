package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgerscope/internal/core/apperror"
	"ledgerscope/internal/infrastructure/http/v1/dto"
	"ledgerscope/internal/infrastructure/odoo"
)

// MovesHandler serves journal entry drill-downs and their PDF
// attachments.
type MovesHandler struct {
	BaseHandler
	client *odoo.Client
	pdfs   *odoo.PDFStore
}

// NewMovesHandler creates a moves handler. client and pdfs may be nil
// when no accounting backend is configured.
func NewMovesHandler(client *odoo.Client, pdfs *odoo.PDFStore) *MovesHandler {
	return &MovesHandler{client: client, pdfs: pdfs}
}

func (h *MovesHandler) configured(c *gin.Context) bool {
	if h.client == nil || !h.client.Configured() {
		h.Error(c, apperror.NewConfig("accounting backend is not configured"))
		return false
	}
	return true
}

// Get handles GET /api/v1/moves/:id.
func (h *MovesHandler) Get(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	moveID, ok := h.IntParam(c, "id")
	if !ok {
		return
	}

	move, lines, err := h.client.FetchMove(c.Request.Context(), moveID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.MoveResponse{
		ID:      move.ID,
		Name:    string(move.Name),
		Date:    move.Date,
		Partner: move.PartnerID.Name,
		Ref:     string(move.Ref),
		State:   move.State,
		Lines:   make([]dto.MoveLineItem, 0, len(lines)),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.MoveLineItem{
			AccountCode: l.AccountID.Code(),
			AccountName: l.AccountID.Name,
			Description: string(l.Name),
			Debit:       l.Debit,
			Credit:      l.Credit,
			Balance:     l.Balance,
		})
	}
	h.OK(c, resp)
}

// PDF handles GET /api/v1/moves/:id/pdf, streaming the first PDF
// attachment of the entry.
func (h *MovesHandler) PDF(c *gin.Context) {
	if h.pdfs == nil {
		h.Error(c, apperror.NewConfig("accounting backend is not configured"))
		return
	}
	moveID, ok := h.IntParam(c, "id")
	if !ok {
		return
	}

	pdf, err := h.pdfs.Fetch(c.Request.Context(), moveID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", pdf.Name))
	c.Data(http.StatusOK, pdf.Mimetype, pdf.Data)
}
