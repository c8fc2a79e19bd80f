package odoo

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"ledgerscope/internal/core/apperror"
	"ledgerscope/internal/domain/ledger"
	"ledgerscope/internal/infrastructure/cache"
	"ledgerscope/pkg/logger"
)

var moveLineFields = []string{
	"date", "debit", "credit", "balance", "name", "account_id",
	"analytic_distribution", "move_id", "move_name", "partner_id",
}

// FetchLines pulls posted journal items for the given account code
// patterns and years.
func (c *Client) FetchLines(ctx context.Context, codes []string, years []int) ([]MoveLine, error) {
	var lines []MoveLine
	domain := LinesDomain(c.cfg.CompanyID, codes, years)
	if err := c.SearchRead(ctx, "account.move.line", domain, moveLineFields, c.MaxRecords(), &lines); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "fetched journal items", "count", len(lines), "codes", len(codes), "years", years)
	return lines, nil
}

// ToRawLines converts fetched journal items into the classifier input.
// Lines with unparseable dates are skipped.
func ToRawLines(lines []MoveLine) []ledger.RawLine {
	out := make([]ledger.RawLine, 0, len(lines))
	for _, l := range lines {
		date, err := l.ParsedDate()
		if err != nil {
			continue
		}
		moveName := string(l.MoveName)
		if l.MoveID.Valid && l.MoveID.Name != "" {
			moveName = l.MoveID.Name
		}
		out = append(out, ledger.RawLine{
			AccountCode:  l.AccountID.Code(),
			Debit:        l.Debit,
			Credit:       l.Credit,
			Balance:      l.Balance,
			Date:         date,
			Distribution: l.Distribution,
			MoveID:       l.MoveID.ID,
			MoveName:     moveName,
			Description:  string(l.Name),
			Partner:      l.PartnerID.Name,
		})
	}
	return out
}

// RawLines fetches journal items and converts them to classifier input
// in one step.
func (c *Client) RawLines(ctx context.Context, codes []string, years []int) ([]ledger.RawLine, error) {
	lines, err := c.FetchLines(ctx, codes, years)
	if err != nil {
		return nil, err
	}
	return ToRawLines(lines), nil
}

// FetchAccounts pulls the chart of accounts.
func (c *Client) FetchAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := c.SearchRead(ctx, "account.account", []any{}, []string{"code", "name", "account_type"}, 0, &accounts)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// FetchAnalyticAccounts pulls the cost-center list used for store
// attribution review.
func (c *Client) FetchAnalyticAccounts(ctx context.Context) ([]AnalyticAccount, error) {
	var accounts []AnalyticAccount
	err := c.SearchRead(ctx, "account.analytic.account", []any{}, []string{"name"}, 0, &accounts)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// FetchMove pulls one journal entry header plus all its lines for
// drill-down display.
func (c *Client) FetchMove(ctx context.Context, moveID int64) (*Move, []MoveLine, error) {
	if moveID == 0 {
		return nil, nil, apperror.NewValidation("move id is required")
	}

	var moves []Move
	moveFields := []string{
		"name", "date", "ref", "partner_id", "state", "amount_total",
		"move_type", "invoice_date", "invoice_date_due", "narration",
	}
	if err := c.SearchRead(ctx, "account.move", []any{condition("id", "=", moveID)}, moveFields, 1, &moves); err != nil {
		return nil, nil, err
	}
	if len(moves) == 0 {
		return nil, nil, apperror.NewNotFound("journal entry", moveID)
	}

	var lines []MoveLine
	lineFields := []string{
		"name", "account_id", "debit", "credit", "balance",
		"analytic_distribution", "date", "quantity", "price_unit", "product_id",
	}
	if err := c.SearchRead(ctx, "account.move.line", []any{condition("move_id", "=", moveID)}, lineFields, 200, &lines); err != nil {
		return nil, nil, err
	}
	return &moves[0], lines, nil
}

// PDF is a decoded invoice attachment.
type PDF struct {
	Name     string
	Mimetype string
	Data     []byte
}

// PDFStore fetches invoice PDFs and keeps recently served ones in a
// compressed in-memory cache. Invoice PDF payloads are sizeable and
// operators tend to re-open the same handful of documents.
type PDFStore struct {
	client  *Client
	cache   *cache.TTL[[]byte]
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewPDFStore wires a PDF store over a client and a prepared cache.
func NewPDFStore(client *Client, ttlCache *cache.TTL[[]byte]) (*PDFStore, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	return &PDFStore{client: client, cache: ttlCache, encoder: enc, decoder: dec}, nil
}

// Fetch returns the first PDF attachment of a journal entry, or a
// not-found error when the entry carries none.
func (s *PDFStore) Fetch(ctx context.Context, moveID int64) (*PDF, error) {
	if moveID == 0 {
		return nil, apperror.NewValidation("move id is required")
	}

	key := fmt.Sprintf("move_pdf:%d", moveID)
	if compressed, ok := s.cache.Get(key); ok {
		data, err := s.decoder.DecodeAll(compressed, nil)
		if err == nil {
			return &PDF{Name: fmt.Sprintf("move-%d.pdf", moveID), Mimetype: "application/pdf", Data: data}, nil
		}
		s.cache.Invalidate(key)
	}

	domain := []any{
		condition("res_model", "=", "account.move"),
		condition("res_id", "=", moveID),
		condition("mimetype", "=like", "%pdf%"),
	}
	var attachments []Attachment
	if err := s.client.SearchRead(ctx, "ir.attachment", domain, []string{"name", "datas", "mimetype"}, 1, &attachments); err != nil {
		return nil, err
	}
	if len(attachments) == 0 {
		return nil, apperror.NewNotFound("pdf attachment", moveID)
	}

	att := attachments[0]
	data, err := base64.StdEncoding.DecodeString(att.Datas)
	if err != nil {
		return nil, apperror.NewRemoteUnavailable("odoo", fmt.Errorf("decode attachment payload: %w", err))
	}

	s.cache.Set(key, s.encoder.EncodeAll(data, nil))
	return &PDF{Name: string(att.Name), Mimetype: att.Mimetype, Data: data}, nil
}
