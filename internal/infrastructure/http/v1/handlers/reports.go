package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"ledgerscope/internal/core/apperror"
	"ledgerscope/internal/demo"
	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/domain/budget"
	"ledgerscope/internal/domain/dataset"
	"ledgerscope/internal/domain/kpi"
	"ledgerscope/internal/domain/ledger"
	"ledgerscope/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves the KPI report endpoints. Every report loads
// the snapshot (cached), applies the caller's year and store selection,
// and hands the filtered tables to the engine.
type ReportsHandler struct {
	BaseHandler
	loader       *dataset.Loader
	engine       *kpi.Engine
	budgets      budget.Store
	gen          *demo.Generator
	accountMap   accountmap.Map
	defaultYears []int
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(
	loader *dataset.Loader,
	engine *kpi.Engine,
	budgets budget.Store,
	gen *demo.Generator,
	m accountmap.Map,
	defaultYears []int,
) *ReportsHandler {
	return &ReportsHandler{
		loader:       loader,
		engine:       engine,
		budgets:      budgets,
		gen:          gen,
		accountMap:   m,
		defaultYears: defaultYears,
	}
}

// selection is one request's resolved filters plus the loaded snapshot.
type selection struct {
	years    []int
	stores   []string
	storeSet map[string]bool
	snap     *dataset.Snapshot
}

func (s *selection) meta(period string) dto.ReportMeta {
	sources := make(map[string]string, len(s.snap.Sources))
	for k, v := range s.snap.Sources {
		sources[k] = string(v)
	}
	return dto.ReportMeta{
		Years:   s.years,
		Stores:  s.stores,
		Period:  period,
		Sources: sources,
	}
}

func (s *selection) revenue() ledger.Table { return filterTable(s.snap.Revenue, s.storeSet) }
func (s *selection) costs() ledger.Table   { return filterTable(s.snap.Costs, s.storeSet) }
func (s *selection) capex() ledger.Table   { return filterTable(s.snap.Capex, s.storeSet) }

func filterTable(t ledger.Table, storeSet map[string]bool) ledger.Table {
	if len(storeSet) == 0 {
		return t
	}
	var out ledger.Table
	for _, tx := range t {
		if storeSet[tx.Store] {
			out = append(out, tx)
		}
	}
	return out
}

func (h *ReportsHandler) load(c *gin.Context) (*selection, bool) {
	years, ok := h.YearsQuery(c, h.defaultYears)
	if !ok {
		return nil, false
	}

	snap, err := h.loader.Load(c.Request.Context(), years)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	storeCodes := h.CSVQuery(c, "stores")
	storeSet := make(map[string]bool, len(storeCodes))
	for _, sc := range storeCodes {
		storeSet[sc] = true
	}

	return &selection{
		years:    years,
		stores:   storeCodes,
		storeSet: storeSet,
		snap:     snap,
	}, true
}

// singleStore resolves the optional single-store filter for reports
// that compute per-store time series.
func (h *ReportsHandler) singleStore(sel *selection) string {
	if len(sel.stores) == 1 {
		return sel.stores[0]
	}
	return ""
}

func (h *ReportsHandler) respond(c *gin.Context, sel *selection, period string, data any) {
	h.OK(c, dto.Report{Meta: sel.meta(period), Data: data})
}

// ExecutiveSummary handles GET /api/v1/reports/executive-summary.
func (h *ReportsHandler) ExecutiveSummary(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	summary := h.engine.ExecutiveSummary(sel.revenue(), sel.costs(), h.filterCustomers(sel), sel.snap.Impact)
	h.respond(c, sel, "", summary)
}

// Profitability handles GET /api/v1/reports/profitability.
func (h *ReportsHandler) Profitability(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.Profitability(sel.revenue(), sel.costs()))
}

// ProfitabilityByStore handles GET /api/v1/reports/profitability-by-store.
func (h *ReportsHandler) ProfitabilityByStore(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.ProfitabilityByStore(sel.revenue(), sel.costs()))
}

// ROI handles GET /api/v1/reports/roi.
func (h *ReportsHandler) ROI(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.StoreROI(sel.snap.Revenue, sel.snap.Costs, h.singleStore(sel)))
}

// BreakEven handles GET /api/v1/reports/break-even.
func (h *ReportsHandler) BreakEven(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.BreakEven(sel.snap.Revenue, sel.snap.Costs, h.singleStore(sel)))
}

// Revenue handles GET /api/v1/reports/revenue.
func (h *ReportsHandler) Revenue(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.RevenueMetrics(sel.revenue(), h.filterCustomers(sel)))
}

// RevenueByPeriod handles GET /api/v1/reports/revenue-by-period.
func (h *ReportsHandler) RevenueByPeriod(c *gin.Context) {
	period := c.DefaultQuery("period", "month")
	switch period {
	case "month", "quarter", "year":
	default:
		h.Error(c, apperror.NewValidation("period must be month, quarter or year").WithDetail("period", period))
		return
	}

	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, period, h.engine.RevenueByPeriod(sel.revenue(), period))
}

// CostStructure handles GET /api/v1/reports/cost-structure.
func (h *ReportsHandler) CostStructure(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.CostStructure(sel.costs(), sel.revenue()))
}

// Customers handles GET /api/v1/reports/customers.
func (h *ReportsHandler) Customers(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.CustomerMetrics(h.filterCustomers(sel), sel.costs()))
}

// Labor handles GET /api/v1/reports/labor.
func (h *ReportsHandler) Labor(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	labor := sel.snap.Labor
	if len(sel.storeSet) > 0 {
		var filtered []kpi.LaborMonth
		for _, lm := range labor {
			if sel.storeSet[lm.Store] {
				filtered = append(filtered, lm)
			}
		}
		labor = filtered
	}
	h.respond(c, sel, "", h.engine.LaborEfficiency(labor))
}

// Inventory handles GET /api/v1/reports/inventory.
func (h *ReportsHandler) Inventory(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	inventory := sel.snap.Inventory
	if len(sel.storeSet) > 0 {
		var filtered []kpi.InventoryMonth
		for _, im := range inventory {
			if sel.storeSet[im.Store] {
				filtered = append(filtered, im)
			}
		}
		inventory = filtered
	}
	h.respond(c, sel, "", h.engine.InventoryMetrics(inventory))
}

// CashFlow handles GET /api/v1/reports/cash-flow.
func (h *ReportsHandler) CashFlow(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.CashFlow(sel.revenue(), sel.costs()))
}

// Impact handles GET /api/v1/reports/impact. Impact figures are
// company-wide, so the store filter does not apply.
func (h *ReportsHandler) Impact(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}
	h.respond(c, sel, "", h.engine.ImpactSummary(sel.snap.Impact))
}

// BudgetVariance handles GET /api/v1/reports/budget-variance. It tracks
// construction budgets against capex actuals per store. The key defaults
// to the capex budget of the first selected year; when no budget has been
// saved under the key, generated per-store defaults fill in.
func (h *ReportsHandler) BudgetVariance(c *gin.Context) {
	sel, ok := h.load(c)
	if !ok {
		return
	}

	year := sel.years[0]
	key := c.Query("key")
	if key == "" {
		key = budget.Key(year, h.accountMap.Codes(accountmap.SectionCapex))
	}

	amounts, err := h.budgets.Get(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	budgetSource := "saved"
	if len(amounts) == 0 && h.gen != nil {
		amounts = h.gen.Budgets()
		budgetSource = "demo"
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	actuals := sel.capex().FilterRange(from, from.AddDate(1, 0, 0))

	h.respond(c, sel, "", gin.H{
		"key":          key,
		"year":         year,
		"budgetSource": budgetSource,
		"variance":     h.engine.BudgetVariance(amounts, actuals),
	})
}

func (h *ReportsHandler) filterCustomers(sel *selection) []kpi.CustomerMonth {
	if len(sel.storeSet) == 0 {
		return sel.snap.Customers
	}
	var out []kpi.CustomerMonth
	for _, cm := range sel.snap.Customers {
		if sel.storeSet[cm.Store] {
			out = append(out, cm)
		}
	}
	return out
}
