package odoo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Many2One is a reference field as Odoo serializes it: either false when
// unset or a two-element [id, display_name] array. The zero value is the
// unset state.
type Many2One struct {
	ID    int64
	Name  string
	Valid bool
}

func (m *Many2One) UnmarshalJSON(b []byte) error {
	*m = Many2One{}
	s := strings.TrimSpace(string(b))
	if s == "false" || s == "null" {
		return nil
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("many2one: %w", err)
	}
	if len(parts) == 0 {
		return nil
	}
	if err := json.Unmarshal(parts[0], &m.ID); err != nil {
		return fmt.Errorf("many2one id: %w", err)
	}
	if len(parts) > 1 {
		if err := json.Unmarshal(parts[1], &m.Name); err != nil {
			return fmt.Errorf("many2one name: %w", err)
		}
	}
	m.Valid = true
	return nil
}

func (m Many2One) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("false"), nil
	}
	return json.Marshal([2]any{m.ID, m.Name})
}

// Code extracts the leading account code token from the display name
// ("800000 Sales" -> "800000").
func (m Many2One) Code() string {
	if !m.Valid {
		return ""
	}
	fields := strings.Fields(m.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Distribution is an analytic distribution field: false when unset or a
// {"<analytic_id>": percentage} object.
type Distribution map[string]float64

func (d *Distribution) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "false" || s == "null" {
		*d = nil
		return nil
	}
	var m map[string]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("analytic distribution: %w", err)
	}
	*d = m
	return nil
}

// OptString is a text field that Odoo serializes as false when empty.
type OptString string

func (o *OptString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "false" || s == "null" {
		*o = ""
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = OptString(v)
	return nil
}

// MoveLine is one account.move.line record.
type MoveLine struct {
	ID           int64        `json:"id"`
	Date         string       `json:"date"`
	Debit        float64      `json:"debit"`
	Credit       float64      `json:"credit"`
	Balance      float64      `json:"balance"`
	Name         OptString    `json:"name"`
	AccountID    Many2One     `json:"account_id"`
	Distribution Distribution `json:"analytic_distribution"`
	MoveID       Many2One     `json:"move_id"`
	MoveName     OptString    `json:"move_name"`
	PartnerID    Many2One     `json:"partner_id"`
	Quantity     float64      `json:"quantity"`
	PriceUnit    float64      `json:"price_unit"`
	ProductID    Many2One     `json:"product_id"`
}

// ParsedDate parses the line date (YYYY-MM-DD).
func (l MoveLine) ParsedDate() (time.Time, error) {
	return time.Parse("2006-01-02", l.Date)
}

// Move is one account.move record (journal entry / invoice header).
type Move struct {
	ID             int64     `json:"id"`
	Name           OptString `json:"name"`
	Date           string    `json:"date"`
	Ref            OptString `json:"ref"`
	PartnerID      Many2One  `json:"partner_id"`
	State          string    `json:"state"`
	AmountTotal    float64   `json:"amount_total"`
	MoveType       string    `json:"move_type"`
	InvoiceDate    OptString `json:"invoice_date"`
	InvoiceDateDue OptString `json:"invoice_date_due"`
	Narration      OptString `json:"narration"`
}

// Account is one account.account record.
type Account struct {
	ID   int64     `json:"id"`
	Code OptString `json:"code"`
	Name OptString `json:"name"`
	Type OptString `json:"account_type"`
}

// AnalyticAccount is one account.analytic.account record.
type AnalyticAccount struct {
	ID   int64     `json:"id"`
	Name OptString `json:"name"`
}

// Attachment is one ir.attachment record. Datas is base64-encoded.
type Attachment struct {
	ID       int64     `json:"id"`
	Name     OptString `json:"name"`
	Datas    string    `json:"datas"`
	Mimetype string    `json:"mimetype"`
}
