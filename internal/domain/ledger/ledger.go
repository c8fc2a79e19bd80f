// Package ledger turns raw general-ledger lines into classified,
// store-attributed transactions and provides the aggregations the KPI
// layer is built on.
package ledger

import (
	"sort"
	"time"

	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/domain/stores"
)

// RawLine is one unclassified general-ledger line as fetched from the
// accounting backend.
type RawLine struct {
	AccountCode  string
	Debit        float64
	Credit       float64
	Balance      float64
	Date         time.Time
	Distribution map[string]float64
	MoveID       int64
	MoveName     string
	Description  string
	Partner      string
}

// Transaction is a classified, store-attributed ledger line. Amount is
// always positive; the sign convention of the source account has already
// been normalized away.
type Transaction struct {
	Date        time.Time `json:"date"`
	Store       string    `json:"store"`
	Section     string    `json:"section"`
	Category    string    `json:"category"`
	Label       string    `json:"label,omitempty"`
	Group       string    `json:"group,omitempty"`
	IsFixed     bool      `json:"isFixed"`
	Amount      float64   `json:"amount"`
	AccountCode string    `json:"accountCode"`
	MoveID      int64     `json:"moveId,omitempty"`
	MoveName    string    `json:"moveName,omitempty"`
	Description string    `json:"description,omitempty"`
	Partner     string    `json:"partner,omitempty"`
}

// Month returns the transaction month truncated to the first day, UTC.
func (t Transaction) Month() time.Time {
	return time.Date(t.Date.Year(), t.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Normalize classifies raw lines for one section. Lines whose account
// code has no mapping, or whose normalized amount is not positive, are
// dropped. The registry attributes each surviving line to a store.
func Normalize(lines []RawLine, section accountmap.Section, m accountmap.Map, reg *stores.Registry) []Transaction {
	out := make([]Transaction, 0, len(lines))
	for _, line := range lines {
		match, ok := m.Classify(line.AccountCode, section)
		if !ok {
			continue
		}
		amount := match.Entry.Normalize(line.Debit, line.Credit, line.Balance)
		if amount <= 0 {
			continue
		}
		out = append(out, Transaction{
			Date:        line.Date,
			Store:       reg.Resolve(line.Distribution),
			Section:     string(section),
			Category:    match.Category,
			Label:       match.Entry.Label,
			Group:       match.Entry.Group,
			IsFixed:     match.Entry.IsFixed,
			Amount:      amount,
			AccountCode: line.AccountCode,
			MoveID:      line.MoveID,
			MoveName:    line.MoveName,
			Description: line.Description,
			Partner:     line.Partner,
		})
	}
	return out
}

// Table is an in-memory set of transactions with the slice-and-dice
// helpers the KPI engine needs.
type Table []Transaction

// Total sums all amounts.
func (t Table) Total() float64 {
	var sum float64
	for _, tx := range t {
		sum += tx.Amount
	}
	return sum
}

// FilterStore keeps transactions attributed to the given store.
func (t Table) FilterStore(store string) Table {
	if store == "" {
		return t
	}
	var out Table
	for _, tx := range t {
		if tx.Store == store {
			out = append(out, tx)
		}
	}
	return out
}

// FilterRange keeps transactions with from <= date < to. A zero bound is
// open on that side.
func (t Table) FilterRange(from, to time.Time) Table {
	var out Table
	for _, tx := range t {
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !tx.Date.Before(to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// FilterCategories keeps transactions whose category is in the given set.
func (t Table) FilterCategories(categories ...string) Table {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	var out Table
	for _, tx := range t {
		if _, ok := set[tx.Category]; ok {
			out = append(out, tx)
		}
	}
	return out
}

// FilterFixed keeps fixed or variable cost lines.
func (t Table) FilterFixed(fixed bool) Table {
	var out Table
	for _, tx := range t {
		if tx.IsFixed == fixed {
			out = append(out, tx)
		}
	}
	return out
}

// ByCategory sums amounts per category.
func (t Table) ByCategory() map[string]float64 {
	out := make(map[string]float64)
	for _, tx := range t {
		out[tx.Category] += tx.Amount
	}
	return out
}

// ByStore sums amounts per store.
func (t Table) ByStore() map[string]float64 {
	out := make(map[string]float64)
	for _, tx := range t {
		out[tx.Store] += tx.Amount
	}
	return out
}

// ByGroup sums amounts per account group.
func (t Table) ByGroup() map[string]float64 {
	out := make(map[string]float64)
	for _, tx := range t {
		out[tx.Group] += tx.Amount
	}
	return out
}

// ByMonth sums amounts per calendar month.
func (t Table) ByMonth() map[time.Time]float64 {
	out := make(map[time.Time]float64)
	for _, tx := range t {
		out[tx.Month()] += tx.Amount
	}
	return out
}

// Months returns the distinct months present, ascending.
func (t Table) Months() []time.Time {
	seen := make(map[time.Time]struct{})
	for _, tx := range t {
		seen[tx.Month()] = struct{}{}
	}
	out := make([]time.Time, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// MonthlySeries returns per-month totals aligned with Months().
func (t Table) MonthlySeries() ([]time.Time, []float64) {
	months := t.Months()
	byMonth := t.ByMonth()
	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = byMonth[m]
	}
	return months, values
}

// Stores returns the distinct store codes present, sorted.
func (t Table) Stores() []string {
	seen := make(map[string]struct{})
	for _, tx := range t {
		seen[tx.Store] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
