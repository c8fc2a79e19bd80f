// Package demo generates the illustrative datasets served when a remote
// system is not connected. Generation is deterministic: the same years
// and store set always produce the same figures, so screens stay stable
// across reloads and tests can assert on shapes.
package demo

import (
	"fmt"
	"math/rand"
	"time"

	"ledgerscope/internal/core/money"
	"ledgerscope/internal/domain/kpi"
	"ledgerscope/internal/domain/ledger"
	"ledgerscope/internal/domain/stores"
)

const seed = 42

// Per-month demand multipliers. Coffee sells in winter.
var seasonality = [13]float64{0,
	1.05, 1.02, 0.98, 0.95, 0.93, 0.88,
	0.85, 0.87, 0.95, 1.02, 1.08, 1.15,
}

type costSpec struct {
	category string
	label    string
	group    string
	fixed    bool
	pct      float64
	variance float64
}

var costSpecs = []costSpec{
	{"cogs_coffee", "COGS - Coffee", "cogs", false, 0.18, 0.03},
	{"cogs_food", "COGS - Food", "cogs", false, 0.09, 0.02},
	{"cogs_merch", "COGS - Merchandise", "cogs", false, 0.03, 0.01},
	{"labor", "Labor Costs", "opex", false, 0.28, 0.04},
	{"rent", "Rent & Occupancy", "opex", true, 0.11, 0.01},
	{"utilities", "Utilities", "opex", false, 0.035, 0.008},
	{"marketing", "Marketing", "opex", false, 0.025, 0.01},
	{"maintenance", "Equipment Maintenance", "opex", false, 0.015, 0.005},
	{"supplies", "Supplies & Consumables", "opex", false, 0.02, 0.005},
	{"insurance", "Insurance & Licenses", "opex", true, 0.012, 0.002},
	{"depreciation", "Depreciation", "opex", true, 0.04, 0.005},
}

var revenueSplits = []struct {
	category string
	label    string
	pct      float64
}{
	{"coffee", "Coffee & Espresso", 0.58},
	{"food", "Food & Pastry", 0.25},
	{"merchandise", "Merchandise", 0.07},
	{"subscription", "Subscriptions", 0.10},
}

type capexSpec struct {
	code  string
	label string
}

var capexSpecs = []capexSpec{
	{"020000", "Buildings & Leasehold (verbouwing)"},
	{"021000", "Machinery & Equipment"},
	{"022000", "Furniture & Fixtures"},
	{"023000", "IT & POS Hardware"},
}

var capexAmounts = []float64{5000, 8000, 10000, 12000, 15000, 18000, 22000, 25000, 30000, 35000, 45000}

// Generator produces the demo datasets for a store registry.
type Generator struct {
	registry *stores.Registry
	now      time.Time
}

// NewGenerator builds a generator. now bounds generation: future months
// are never produced.
func NewGenerator(registry *stores.Registry, now time.Time) *Generator {
	return &Generator{registry: registry, now: now}
}

func (g *Generator) rng() *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func (g *Generator) retail() []string { return g.registry.Retail() }

// monthInPast reports whether year/month is not in the future.
func (g *Generator) monthInPast(year int, m time.Month) bool {
	if year < g.now.Year() {
		return true
	}
	return year == g.now.Year() && m <= g.now.Month()
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func monthDate(year int, m time.Month, day int) time.Time {
	return time.Date(year, m, day, 0, 0, 0, 0, time.UTC)
}

// Revenue generates monthly revenue transactions per store and product
// category, with seasonality, a ramp-up after opening and slow organic
// growth.
func (g *Generator) Revenue(years []int) ledger.Table {
	r := g.rng()
	retail := g.retail()

	base := make(map[string]float64, len(retail))
	for _, sc := range retail {
		sqm := g.registry.Sqm(sc)
		if sqm == 0 {
			sqm = 55
		}
		base[sc] = float64(sqm) * uniform(r, 550, 750)
	}

	var table ledger.Table
	for _, year := range years {
		for m := time.January; m <= time.December; m++ {
			if !g.monthInPast(year, m) {
				continue
			}
			for _, sc := range retail {
				monthsOpen := g.monthsOpen(sc, year, m)
				if monthsOpen < 0 {
					continue
				}
				ramp := 1.0
				if monthsOpen < 6 {
					ramp = min(1.0, 0.4+0.1*float64(monthsOpen))
				}
				growth := 1.0 + 0.005*float64(max(0, monthsOpen-6))

				total := base[sc] * seasonality[m] * ramp * growth * uniform(r, 0.88, 1.12)
				for _, split := range revenueSplits {
					amount := total * split.pct * uniform(r, 0.9, 1.1)
					if amount <= 0 {
						continue
					}
					table = append(table, ledger.Transaction{
						Date:     monthDate(year, m, 1),
						Store:    sc,
						Section:  "revenue",
						Category: split.category,
						Label:    split.label,
						Amount:   money.Cents(amount),
					})
				}
			}
		}
	}
	return table
}

// Costs derives cost transactions from revenue using realistic ratios.
func (g *Generator) Costs(revenue ledger.Table) ledger.Table {
	if len(revenue) == 0 {
		return nil
	}
	r := g.rng()

	type key struct {
		month time.Time
		store string
	}
	monthly := make(map[key]float64)
	var order []key
	for _, tx := range revenue {
		k := key{month: tx.Month(), store: tx.Store}
		if _, ok := monthly[k]; !ok {
			order = append(order, k)
		}
		monthly[k] += tx.Amount
	}

	var table ledger.Table
	for _, k := range order {
		rev := monthly[k]
		for _, spec := range costSpecs {
			pct := spec.pct + uniform(r, -spec.variance, spec.variance)
			amount := rev * max(0, pct)
			section := "opex"
			if spec.group == "cogs" {
				section = "cogs"
			}
			table = append(table, ledger.Transaction{
				Date:     k.month,
				Store:    k.store,
				Section:  section,
				Category: spec.category,
				Label:    spec.label,
				Group:    spec.group,
				IsFixed:  spec.fixed,
				Amount:   money.Cents(amount),
			})
		}
	}
	return table
}

// Capex generates one-off investment postings across stores and asset
// accounts.
func (g *Generator) Capex(years []int) ledger.Table {
	r := g.rng()
	retail := g.retail()
	if len(retail) == 0 {
		return nil
	}

	var table ledger.Table
	for _, year := range years {
		n := 40 + r.Intn(30)
		for i := 0; i < n; i++ {
			m := time.Month(1 + r.Intn(12))
			day := 1 + r.Intn(28)
			sc := retail[r.Intn(len(retail))]
			spec := capexSpecs[r.Intn(len(capexSpecs))]
			amount := capexAmounts[r.Intn(len(capexAmounts))] * uniform(r, 0.7, 1.4)

			table = append(table, ledger.Transaction{
				Date:        monthDate(year, m, day),
				Store:       sc,
				Section:     "capex",
				Category:    spec.code,
				Label:       spec.label,
				Group:       "capex",
				Amount:      money.Cents(amount),
				AccountCode: spec.code,
				Description: fmt.Sprintf("%s - %s", spec.label, g.registry.Name(sc)),
			})
		}
	}
	return table
}

// Customers derives customer activity from revenue.
func (g *Generator) Customers(revenue ledger.Table) []kpi.CustomerMonth {
	if len(revenue) == 0 {
		return nil
	}
	r := g.rng()

	var rows []kpi.CustomerMonth
	for _, sc := range revenue.Stores() {
		storeRev := revenue.FilterStore(sc)
		for _, m := range storeRev.Months() {
			rev := storeRev.ByMonth()[m]
			ticket := uniform(r, 5.20, 7.80)
			transactions := int64(rev / ticket)
			unique := int64(float64(transactions) * uniform(r, 0.55, 0.72))
			newPct := uniform(r, 0.25, 0.45)
			newCustomers := int64(float64(unique) * newPct)

			rows = append(rows, kpi.CustomerMonth{
				Month:               m,
				Store:               sc,
				Transactions:        transactions,
				UniqueCustomers:     unique,
				NewCustomers:        newCustomers,
				ReturningCustomers:  unique - newCustomers,
				RetentionRate:       money.Ratio(1 - newPct),
				AvgTransactionValue: money.Cents(ticket),
				Revenue:             money.Cents(rev),
			})
		}
	}
	return rows
}

// Labor derives labor figures from revenue. Staffing scales with floor
// area.
func (g *Generator) Labor(revenue ledger.Table) []kpi.LaborMonth {
	if len(revenue) == 0 {
		return nil
	}
	r := g.rng()

	var rows []kpi.LaborMonth
	for _, sc := range revenue.Stores() {
		storeRev := revenue.FilterStore(sc)
		sqm := g.registry.Sqm(sc)
		if sqm == 0 {
			sqm = 55
		}
		for _, m := range storeRev.Months() {
			rev := storeRev.ByMonth()[m]
			fte := max(2.0, float64(sqm)/18+uniform(r, -0.5, 0.5))
			hours := fte * uniform(r, 140, 168)
			cost := hours * uniform(r, 14.5, 18.5)

			rows = append(rows, kpi.LaborMonth{
				Month:   m,
				Store:   sc,
				Hours:   money.Euros(hours),
				Cost:    money.Cents(cost),
				FTE:     money.Round(fte, 1),
				Revenue: money.Cents(rev),
			})
		}
	}
	return rows
}

// Inventory generates monthly stock movement per store and item.
func (g *Generator) Inventory(years []int) []kpi.InventoryMonth {
	r := g.rng()
	items := []struct {
		name     string
		unitCost float64
	}{
		{"Single Origin Beans", 18.50},
		{"Blend Beans", 14.00},
		{"Milk & Alternatives", 2.80},
		{"Pastries & Cakes", 3.50},
		{"Sandwiches & Wraps", 4.20},
		{"Cups & Packaging", 0.35},
		{"Merchandise Items", 12.00},
		{"Syrups & Toppings", 8.50},
	}

	var rows []kpi.InventoryMonth
	for _, year := range years {
		for m := time.January; m <= time.December; m++ {
			if !g.monthInPast(year, m) {
				continue
			}
			for _, sc := range g.retail() {
				for _, item := range items {
					opening := 20 + r.Intn(130)
					purchased := 30 + r.Intn(170)
					sold := 25 + r.Intn(max(1, int(float64(opening+purchased)*0.85)-25))
					waste := int(uniform(r, 0.02, 0.08) * float64(sold))
					closing := max(0, opening+purchased-sold-waste)

					rows = append(rows, kpi.InventoryMonth{
						Month:      monthDate(year, m, 1),
						Store:      sc,
						Product:    item.name,
						Sold:       float64(sold),
						Waste:      float64(waste),
						StockValue: money.Cents(float64(closing) * item.unitCost),
						UnitCost:   item.unitCost,
					})
				}
			}
		}
	}
	return rows
}

// Investments generates a plausible build-out spend per store.
func (g *Generator) Investments() map[string]kpi.Investment {
	r := g.rng()
	out := make(map[string]kpi.Investment)
	for _, sc := range g.retail() {
		sqm := g.registry.Sqm(sc)
		if sqm == 0 {
			sqm = 55
		}
		out[sc] = kpi.Investment{
			Buildout:       money.Euros(float64(sqm) * uniform(r, 1200, 1800)),
			Equipment:      money.Euros(uniform(r, 25000, 45000)),
			Furniture:      money.Euros(float64(sqm) * uniform(r, 150, 300)),
			WorkingCapital: money.Euros(uniform(r, 15000, 30000)),
		}
	}
	return out
}

// Impact generates company-wide sourcing impact figures that improve
// slowly over time.
func (g *Generator) Impact(years []int) []kpi.ImpactMonth {
	r := g.rng()

	var rows []kpi.ImpactMonth
	for _, year := range years {
		for m := time.January; m <= time.December; m++ {
			if !g.monthInPast(year, m) {
				continue
			}
			monthsSinceStart := (year-2021)*12 + int(m)
			growthFactor := 1.0 + 0.02*float64(monthsSinceStart)

			kg := 2200 * growthFactor * uniform(r, 0.9, 1.1)
			directTrade := min(0.98, 0.80+0.001*float64(monthsSinceStart)+uniform(r, -0.02, 0.02))
			farmers := 500 + 3*monthsSinceStart + r.Intn(21) - 10
			farmerPremium := 0.30 + 0.001*float64(monthsSinceStart) + uniform(r, -0.02, 0.02)
			marketPrice := uniform(r, 4.50, 6.50)
			premiumPaid := marketPrice * farmerPremium * kg * directTrade

			rows = append(rows, kpi.ImpactMonth{
				Month:            monthDate(year, m, 1),
				KgSourced:        money.Round(kg, 1),
				PremiumPaid:      money.Cents(premiumPaid),
				Cups:             int64(kg * 1000 / 18),
				FarmersSupported: farmers,
				FarmerPremiumPct: money.Ratio(farmerPremium),
				DirectTradePct:   money.Ratio(directTrade),
				CompostablePct:   money.Ratio(min(0.98, 0.75+0.002*float64(monthsSinceStart))),
				CO2PerCupGrams:   money.Round(max(55, 85-0.15*float64(monthsSinceStart)+uniform(r, -3, 3)), 1),
			})
		}
	}
	return rows
}

// Budgets generates a default budget per store, scaled by floor area.
func (g *Generator) Budgets() map[string]float64 {
	r := g.rng()
	out := make(map[string]float64)
	for _, sc := range g.retail() {
		sqm := g.registry.Sqm(sc)
		if sqm == 0 {
			sqm = 55
		}
		budget := float64(sqm) * uniform(r, 600, 1000)
		out[sc] = float64(int(budget/1000)) * 1000
	}
	out[stores.Overhead] = 25000
	return out
}

func (g *Generator) monthsOpen(sc string, year int, m time.Month) int {
	s, ok := g.registry.Get(sc)
	if !ok || s.Opened == "" {
		return 36
	}
	opened, err := time.Parse("2006-01", s.Opened)
	if err != nil {
		return 36
	}
	return (year-opened.Year())*12 + int(m) - int(opened.Month())
}
