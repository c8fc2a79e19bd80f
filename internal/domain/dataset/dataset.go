// Package dataset assembles the full analytics snapshot for a year
// selection. Each section (revenue, costs, capex, labor, customers,
// inventory, impact) is loaded from its live source when one is
// connected and falls back to generated demo data independently of the
// other sections. Every section carries a source indicator so the API
// never serves illustrative figures as if they were live.
package dataset

import (
	"context"
	"fmt"
	"sort"

	"ledgerscope/internal/demo"
	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/domain/kpi"
	"ledgerscope/internal/domain/ledger"
	"ledgerscope/internal/domain/stores"
	"ledgerscope/internal/infrastructure/cache"
	"ledgerscope/pkg/logger"
)

// Source tags where a section's data came from.
type Source string

const (
	SourceLive Source = "live"
	SourceDemo Source = "demo"
)

// LedgerSource is the remote accounting backend surface the loader
// needs. *odoo.Client satisfies it.
type LedgerSource interface {
	Configured() bool
	RawLines(ctx context.Context, codes []string, years []int) ([]ledger.RawLine, error)
}

// LaborSource is the payroll-derived labor surface. *nmbrs.LaborBuilder
// satisfies it.
type LaborSource interface {
	Configured() bool
	Build(ctx context.Context, revenue ledger.Table) ([]kpi.LaborMonth, error)
}

// Snapshot is one fully loaded dataset.
type Snapshot struct {
	Years []int `json:"years"`

	Revenue ledger.Table `json:"-"`
	Costs   ledger.Table `json:"-"`
	Capex   ledger.Table `json:"-"`

	Customers []kpi.CustomerMonth       `json:"-"`
	Labor     []kpi.LaborMonth          `json:"-"`
	Inventory []kpi.InventoryMonth      `json:"-"`
	Impact    []kpi.ImpactMonth         `json:"-"`
	Invest    map[string]kpi.Investment `json:"-"`

	Sources map[string]Source `json:"sources"`
}

// Loader builds snapshots.
type Loader struct {
	accountMap  accountmap.Map
	registry    *stores.Registry
	ledgerSrc   LedgerSource
	laborSrc    LaborSource
	gen         *demo.Generator
	investments map[string]kpi.Investment
	snapshots   *cache.TTL[*Snapshot]
}

// NewLoader wires a loader. ledgerSrc and laborSrc may be nil when the
// corresponding system is not deployed; investments may be empty, in
// which case demo investment data is used. snapshots caches whole
// loaded snapshots per year selection.
func NewLoader(
	m accountmap.Map,
	registry *stores.Registry,
	ledgerSrc LedgerSource,
	laborSrc LaborSource,
	gen *demo.Generator,
	investments map[string]kpi.Investment,
	snapshots *cache.TTL[*Snapshot],
) *Loader {
	return &Loader{
		accountMap:  m,
		registry:    registry,
		ledgerSrc:   ledgerSrc,
		laborSrc:    laborSrc,
		gen:         gen,
		investments: investments,
		snapshots:   snapshots,
	}
}

func cacheKey(years []int) string {
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)
	key := "snapshot"
	for _, y := range sorted {
		key += fmt.Sprintf(":%d", y)
	}
	return key
}

// Load returns the snapshot for a year selection, from cache when fresh.
func (l *Loader) Load(ctx context.Context, years []int) (*Snapshot, error) {
	if len(years) == 0 {
		return nil, fmt.Errorf("dataset: no years selected")
	}
	if l.snapshots == nil {
		return l.build(ctx, years), nil
	}
	return l.snapshots.GetOrFetch(ctx, cacheKey(years), func(ctx context.Context) (*Snapshot, error) {
		return l.build(ctx, years), nil
	})
}

// Invalidate drops the cached snapshot for a year selection.
func (l *Loader) Invalidate(years []int) {
	if l.snapshots != nil {
		l.snapshots.Invalidate(cacheKey(years))
	}
}

func (l *Loader) build(ctx context.Context, years []int) *Snapshot {
	snap := &Snapshot{Years: years, Sources: make(map[string]Source)}

	snap.Revenue, snap.Sources["revenue"] = l.loadSection(ctx, years, accountmap.SectionRevenue, l.gen.Revenue)
	snap.Capex, snap.Sources["capex"] = l.loadSection(ctx, years, accountmap.SectionCapex, l.gen.Capex)
	snap.Costs, snap.Sources["costs"] = l.loadCosts(ctx, years, snap.Revenue)
	snap.Labor, snap.Sources["labor"] = l.loadLabor(ctx, snap.Revenue)

	// No live source is wired for these sections: the point-of-sale,
	// stock and sourcing-impact modules are not part of the ledger
	// deployment. They always serve demo data, tagged as such.
	snap.Customers = l.gen.Customers(snap.Revenue)
	snap.Sources["customers"] = SourceDemo
	snap.Inventory = l.gen.Inventory(years)
	snap.Sources["inventory"] = SourceDemo
	snap.Impact = l.gen.Impact(years)
	snap.Sources["impact"] = SourceDemo

	if len(l.investments) > 0 {
		snap.Invest = l.investments
		snap.Sources["investments"] = SourceLive
	} else {
		snap.Invest = l.gen.Investments()
		snap.Sources["investments"] = SourceDemo
	}

	return snap
}

// loadSection fetches and classifies one account-map section, falling
// back to the given demo generator on any failure or empty result.
func (l *Loader) loadSection(ctx context.Context, years []int, section accountmap.Section, fallback func([]int) ledger.Table) (ledger.Table, Source) {
	if l.ledgerSrc == nil || !l.ledgerSrc.Configured() {
		return fallback(years), SourceDemo
	}

	codes := l.accountMap.Codes(section)
	if len(codes) == 0 {
		return fallback(years), SourceDemo
	}

	raw, err := l.ledgerSrc.RawLines(ctx, codes, years)
	if err != nil {
		logger.Warn(ctx, "ledger fetch failed, serving demo data",
			"section", string(section), "error", err)
		return fallback(years), SourceDemo
	}

	table := ledger.Normalize(raw, section, l.accountMap, l.registry)
	if len(table) == 0 {
		return fallback(years), SourceDemo
	}
	return table, SourceLive
}

// loadCosts joins the cogs and opex sections into one cost table. Both
// sections must deliver live data for the combined table to count as
// live; otherwise demo costs derived from the loaded revenue are served.
func (l *Loader) loadCosts(ctx context.Context, years []int, revenue ledger.Table) (ledger.Table, Source) {
	demoCosts := func([]int) ledger.Table { return l.gen.Costs(revenue) }

	cogs, cogsSrc := l.loadSection(ctx, years, accountmap.SectionCOGS, demoCosts)
	if cogsSrc == SourceDemo {
		return cogs, SourceDemo
	}
	opex, opexSrc := l.loadSection(ctx, years, accountmap.SectionOpex, demoCosts)
	if opexSrc == SourceDemo {
		return opex, SourceDemo
	}
	return append(cogs, opex...), SourceLive
}

func (l *Loader) loadLabor(ctx context.Context, revenue ledger.Table) ([]kpi.LaborMonth, Source) {
	if l.laborSrc == nil || !l.laborSrc.Configured() {
		return l.gen.Labor(revenue), SourceDemo
	}
	rows, err := l.laborSrc.Build(ctx, revenue)
	if err != nil {
		logger.Warn(ctx, "payroll fetch failed, serving demo data", "error", err)
		return l.gen.Labor(revenue), SourceDemo
	}
	if len(rows) == 0 {
		return l.gen.Labor(revenue), SourceDemo
	}
	return rows, SourceLive
}
