package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerscope/internal/domain/ledger"
	"ledgerscope/internal/domain/stores"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func testEngine(t *testing.T, investments map[string]Investment) *Engine {
	t.Helper()
	reg, err := stores.NewRegistry([]stores.Store{
		{Code: "LIN", Name: "Linnaeusstraat", Sqm: 80, AnalyticID: 101},
		{Code: "JPH", Name: "Jan Pieter Heijestraat", Sqm: 65, AnalyticID: 102},
	})
	require.NoError(t, err)
	targets := Targets{
		LaborCostPct:    0.30,
		RentCostPct:     0.12,
		FoodCostPct:     0.30,
		BeverageCostPct: 0.25,
	}
	return NewEngine(reg, targets, investments)
}

func revRow(m time.Time, store string, amount float64) ledger.Transaction {
	return ledger.Transaction{Date: m, Store: store, Section: "revenue", Category: "net_sales", Amount: amount}
}

func costRow(m time.Time, store, category, group string, fixed bool, amount float64) ledger.Transaction {
	return ledger.Transaction{Date: m, Store: store, Section: "opex", Category: category, Group: group, IsFixed: fixed, Amount: amount}
}

func TestProfitability(t *testing.T) {
	e := testEngine(t, nil)

	t.Run("empty input gives nil", func(t *testing.T) {
		assert.Nil(t, e.Profitability(nil, nil))
		assert.Nil(t, e.Profitability(ledger.Table{revRow(month(2025, 1), "LIN", 100)}, nil))
	})

	revenue := ledger.Table{revRow(month(2025, 1), "LIN", 10000)}
	costs := ledger.Table{
		costRow(month(2025, 1), "LIN", "cogs_coffee", "cogs", false, 3000),
		costRow(month(2025, 1), "LIN", "rent", "opex", true, 1500),
		costRow(month(2025, 1), "LIN", "depreciation", "opex", true, 500),
	}

	p := e.Profitability(revenue, costs)
	require.NotNil(t, p)
	assert.InDelta(t, 10000.0, p.TotalRevenue, 1e-9)
	assert.InDelta(t, 3000.0, p.COGS, 1e-9)
	assert.InDelta(t, 7000.0, p.GrossProfit, 1e-9)
	assert.InDelta(t, 70.0, p.GrossMarginPct, 1e-9)
	assert.InDelta(t, 5000.0, p.NetProfit, 1e-9)
	assert.InDelta(t, 50.0, p.NetMarginPct, 1e-9)
	assert.InDelta(t, 5500.0, p.EBITDA, 1e-9)
	assert.InDelta(t, 55.0, p.EBITDAMarginPct, 1e-9)
	assert.InDelta(t, 20.0, p.OpexRatio, 1e-9)

	t.Run("margins are scale invariant", func(t *testing.T) {
		double := func(tbl ledger.Table) ledger.Table {
			out := make(ledger.Table, len(tbl))
			for i, tx := range tbl {
				tx.Amount *= 2
				out[i] = tx
			}
			return out
		}
		p2 := e.Profitability(double(revenue), double(costs))
		require.NotNil(t, p2)
		assert.InDelta(t, 2*p.GrossProfit, p2.GrossProfit, 1e-9)
		assert.InDelta(t, 2*p.NetProfit, p2.NetProfit, 1e-9)
		assert.InDelta(t, 2*p.EBITDA, p2.EBITDA, 1e-9)
		assert.InDelta(t, p.GrossMarginPct, p2.GrossMarginPct, 1e-9)
		assert.InDelta(t, p.NetMarginPct, p2.NetMarginPct, 1e-9)
		assert.InDelta(t, p.EBITDAMarginPct, p2.EBITDAMarginPct, 1e-9)
		assert.InDelta(t, p.OpexRatio, p2.OpexRatio, 1e-9)
	})
}

func TestStoreROI(t *testing.T) {
	e := testEngine(t, map[string]Investment{
		"LIN": {Buildout: 60000, Equipment: 25000, Furniture: 5000, WorkingCapital: 10000},
	})

	revenue := ledger.Table{
		revRow(month(2025, 1), "LIN", 50000),
		revRow(month(2025, 2), "LIN", 50000),
		revRow(month(2025, 3), "LIN", 50000),
		revRow(month(2025, 1), "JPH", 99999),
	}
	costs := ledger.Table{
		costRow(month(2025, 1), "LIN", "rent", "opex", true, 130000),
	}

	rows := e.StoreROI(revenue, costs, "")
	require.Len(t, rows, 1, "stores without investment data are skipped")

	row := rows[0]
	assert.Equal(t, "LIN", row.Store)
	assert.InDelta(t, 100000.0, row.TotalInvestment, 1e-9)
	assert.InDelta(t, 150000.0, row.TotalRevenue, 1e-9)
	assert.InDelta(t, 130000.0, row.TotalCosts, 1e-9)
	assert.InDelta(t, 20000.0, row.NetProfit, 1e-9)
	assert.InDelta(t, 20.0, row.ROIPct, 1e-9)
	assert.Equal(t, 3, row.MonthsOperating)
	assert.InDelta(t, 80.0, row.AnnualizedROIPct, 1e-9)
}

func TestBreakEven(t *testing.T) {
	e := testEngine(t, map[string]Investment{
		"LIN": {Buildout: 100000},
	})

	// 3 months, 5000 revenue each, fixed costs 2000/mo, variable costs
	// at 40% of revenue.
	var revenue, costs ledger.Table
	for _, m := range []time.Time{month(2025, 1), month(2025, 2), month(2025, 3)} {
		revenue = append(revenue, revRow(m, "LIN", 5000))
		costs = append(costs,
			costRow(m, "LIN", "rent", "opex", true, 2000),
			costRow(m, "LIN", "cogs_coffee", "cogs", false, 2000),
		)
	}

	rows := e.BreakEven(revenue, costs, "")
	require.Len(t, rows, 1)
	row := rows[0]

	assert.InDelta(t, 0.4, row.VariableCostRatio, 1e-9)
	assert.InDelta(t, 0.6, row.ContributionMargin, 1e-9)
	require.NotNil(t, row.BreakEvenRevenueMonthly)
	assert.InDelta(t, 3333.0, *row.BreakEvenRevenueMonthly, 1.0)
	assert.InDelta(t, 5000.0, row.AvgMonthlyRevenue, 1e-9)
	assert.InDelta(t, 1000.0, row.AvgMonthlyProfit, 1e-9)
	require.NotNil(t, row.MonthsToPayback)
	assert.InDelta(t, 100.0, *row.MonthsToPayback, 1e-9)
	assert.InDelta(t, 150.0, row.BEPerformancePct, 0.1)
}

func TestBreakEvenUnprofitableStore(t *testing.T) {
	e := testEngine(t, map[string]Investment{"LIN": {Buildout: 50000}})

	revenue := ledger.Table{revRow(month(2025, 1), "LIN", 1000)}
	costs := ledger.Table{costRow(month(2025, 1), "LIN", "rent", "opex", true, 3000)}

	rows := e.BreakEven(revenue, costs, "")
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].MonthsToPayback, "no payback horizon when monthly profit is negative")
}

func TestBreakEvenContributionMarginExhausted(t *testing.T) {
	e := testEngine(t, map[string]Investment{"LIN": {Buildout: 50000}})

	// Variable costs exceed revenue: no break-even revenue exists.
	revenue := ledger.Table{revRow(month(2025, 1), "LIN", 1000)}
	costs := ledger.Table{
		costRow(month(2025, 1), "LIN", "cogs_coffee", "cogs", false, 1500),
		costRow(month(2025, 1), "LIN", "rent", "opex", true, 500),
	}

	rows := e.BreakEven(revenue, costs, "")
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].BreakEvenRevenueMonthly)
	assert.InDelta(t, 0.0, rows[0].BEPerformancePct, 1e-9)
}

func TestRevenueMetricsGrowth(t *testing.T) {
	e := testEngine(t, nil)

	var revenue ledger.Table
	amounts := map[time.Month]float64{
		time.January: 1000, time.February: 1000, time.March: 1000,
		time.April: 1200, time.May: 1200, time.June: 1200,
	}
	for m, amount := range amounts {
		revenue = append(revenue, revRow(month(2025, m), "LIN", amount))
	}

	rm := e.RevenueMetrics(revenue, nil)
	require.NotNil(t, rm)
	assert.InDelta(t, 20.0, rm.GrowthPct3M, 1e-9)
	assert.Equal(t, 6, rm.MonthsOfData)
	assert.InDelta(t, 1100.0, rm.AvgMonthlyRevenue, 1e-9)
	// 6600 total / 6 months / 80 sqm
	assert.InDelta(t, 14.0, rm.RevenuePerSqmMonth, 1.0)
}

func TestRevenueMetricsShortHistoryHasZeroGrowth(t *testing.T) {
	e := testEngine(t, nil)
	revenue := ledger.Table{
		revRow(month(2025, 1), "LIN", 1000),
		revRow(month(2025, 2), "LIN", 2000),
	}
	rm := e.RevenueMetrics(revenue, nil)
	require.NotNil(t, rm)
	assert.InDelta(t, 0.0, rm.GrowthPct3M, 1e-9)
}

func TestRevenueByPeriod(t *testing.T) {
	e := testEngine(t, nil)
	revenue := ledger.Table{
		revRow(month(2025, 1), "LIN", 100),
		revRow(month(2025, 2), "LIN", 200),
		revRow(month(2025, 4), "LIN", 400),
	}

	monthly := e.RevenueByPeriod(revenue, "month")
	require.Len(t, monthly, 3)
	assert.Equal(t, "2025-01", monthly[0].Period)

	quarterly := e.RevenueByPeriod(revenue, "quarter")
	require.Len(t, quarterly, 2)
	assert.Equal(t, "2025-Q1", quarterly[0].Period)
	assert.InDelta(t, 300.0, quarterly[0].Revenue, 1e-9)
	assert.Equal(t, "2025-Q2", quarterly[1].Period)

	yearly := e.RevenueByPeriod(revenue, "year")
	require.Len(t, yearly, 1)
	assert.InDelta(t, 700.0, yearly[0].Revenue, 1e-9)
}

func TestCostStructure(t *testing.T) {
	e := testEngine(t, nil)

	revenue := ledger.Table{revRow(month(2025, 1), "LIN", 10000)}
	costs := ledger.Table{
		{Date: month(2025, 1), Store: "LIN", Category: "rent", Label: "Rent", Amount: 1500},
		{Date: month(2025, 1), Store: "LIN", Category: "utilities", Label: "Utilities", Amount: 300},
	}

	rows := e.CostStructure(costs, revenue)
	require.Len(t, rows, 2)

	// Sorted by amount descending.
	assert.Equal(t, "rent", rows[0].Category)
	assert.InDelta(t, 15.0, rows[0].PctOfRevenue, 1e-9)
	require.NotNil(t, rows[0].TargetPct)
	assert.InDelta(t, 12.0, *rows[0].TargetPct, 1e-9)
	require.NotNil(t, rows[0].VsTarget)
	assert.InDelta(t, 3.0, *rows[0].VsTarget, 1e-9)

	assert.Equal(t, "utilities", rows[1].Category)
	assert.Nil(t, rows[1].TargetPct, "no benchmark configured for utilities")
	assert.Nil(t, rows[1].VsTarget)
}

func TestCustomerMetrics(t *testing.T) {
	e := testEngine(t, nil)

	customers := []CustomerMonth{
		{Month: month(2025, 1), Store: "LIN", Transactions: 1200, UniqueCustomers: 400, NewCustomers: 100, ReturningCustomers: 300, RetentionRate: 0.5, AvgTransactionValue: 6.0, Revenue: 7200},
		{Month: month(2025, 2), Store: "LIN", Transactions: 1400, UniqueCustomers: 600, NewCustomers: 100, ReturningCustomers: 500, RetentionRate: 0.5, AvgTransactionValue: 7.0, Revenue: 9800},
	}
	costs := ledger.Table{
		{Date: month(2025, 1), Store: "LIN", Category: "marketing", Amount: 4000},
	}

	cm := e.CustomerMetrics(customers, costs)
	require.NotNil(t, cm)
	assert.Equal(t, int64(1000), cm.TotalCustomers)
	assert.Equal(t, int64(200), cm.NewCustomers)
	assert.InDelta(t, 20.0, cm.AcquisitionCost, 1e-9)
	// revenue/customer = 17, lifespan = 1/(1-0.5) = 2 months
	assert.InDelta(t, 34.0, cm.LifetimeValue, 1e-9)
	assert.InDelta(t, 1.7, cm.CLVCACRatio, 1e-9)
	assert.InDelta(t, 2.6, cm.VisitsPerCustomer, 1e-9)
	assert.InDelta(t, 20.0, cm.NewCustomerPct, 1e-9)
}

func TestCustomerMetricsNoNewCustomers(t *testing.T) {
	e := testEngine(t, nil)

	customers := []CustomerMonth{
		{Month: month(2025, 1), Store: "LIN", Transactions: 100, UniqueCustomers: 50, RetentionRate: 0.4, Revenue: 600},
	}
	costs := ledger.Table{
		{Date: month(2025, 1), Store: "LIN", Category: "marketing", Amount: 9999},
	}

	cm := e.CustomerMetrics(customers, costs)
	require.NotNil(t, cm)
	assert.InDelta(t, 0.0, cm.AcquisitionCost, 1e-9, "marketing spend without acquisitions yields zero CAC")
	assert.InDelta(t, 0.0, cm.CLVCACRatio, 1e-9)
}

func TestCustomerMetricsFullRetentionCapsLifespan(t *testing.T) {
	e := testEngine(t, nil)

	customers := []CustomerMonth{
		{Month: month(2025, 1), Store: "LIN", UniqueCustomers: 10, RetentionRate: 1.0, Revenue: 100},
	}
	cm := e.CustomerMetrics(customers, nil)
	require.NotNil(t, cm)
	// 10 per customer x 36-month cap.
	assert.InDelta(t, 360.0, cm.LifetimeValue, 1e-9)
}

func TestLaborEfficiency(t *testing.T) {
	e := testEngine(t, nil)

	labor := []LaborMonth{
		{Month: month(2025, 1), Store: "LIN", Hours: 700, Cost: 12000, FTE: 4.0, Revenue: 40000},
		{Month: month(2025, 2), Store: "LIN", Hours: 700, Cost: 12000, FTE: 4.0, Revenue: 44000},
	}

	lm := e.LaborEfficiency(labor)
	require.NotNil(t, lm)
	assert.InDelta(t, 1400.0, lm.TotalLaborHours, 1e-9)
	assert.InDelta(t, 60.0, lm.RevenuePerLaborHour, 1e-9)
	// 24000 / 84000 = 28.6%
	assert.InDelta(t, 28.6, lm.LaborCostPct, 1e-9)
	assert.InDelta(t, 30.0, lm.TargetLaborPct, 1e-9)
	assert.InDelta(t, -1.4, lm.VsTarget, 1e-9)
	// 84000 / (4 FTE x 2 months)
	assert.InDelta(t, 10500.0, lm.RevenuePerEmployeeMonth, 1e-9)
}

func TestInventoryMetrics(t *testing.T) {
	e := testEngine(t, nil)

	inventory := []InventoryMonth{
		{Month: month(2025, 1), Store: "LIN", Sold: 900, Waste: 100, StockValue: 5000, UnitCost: 10},
		{Month: month(2025, 2), Store: "LIN", Sold: 900, Waste: 100, StockValue: 7000, UnitCost: 10},
	}

	im := e.InventoryMetrics(inventory)
	require.NotNil(t, im)
	assert.InDelta(t, 6000.0, im.AvgStockValue, 1e-9)
	assert.InDelta(t, 7000.0, im.CurrentStockValue, 1e-9)
	// cost of sold = 18000, avg stock 6000 -> 3 turns over 2 months
	assert.InDelta(t, 3.0, im.TurnoverRatio, 1e-9)
	assert.InDelta(t, 18.0, im.AnnualizedTurnover, 1e-9)
	assert.InDelta(t, 10.0, im.WasteRatePct, 1e-9)
	// daily cogs = 18000/60 = 300; dio = 6000/300 = 20
	assert.InDelta(t, 20.0, im.DaysInventory, 1e-9)
}

func TestCashFlow(t *testing.T) {
	e := testEngine(t, nil)

	revenue := ledger.Table{
		revRow(month(2025, 1), "LIN", 10000),
		revRow(month(2025, 2), "LIN", 12000),
	}
	costs := ledger.Table{
		costRow(month(2025, 1), "LIN", "rent", "opex", true, 8000),
		costRow(month(2025, 1), "LIN", "depreciation", "opex", true, 1000),
		costRow(month(2025, 2), "LIN", "rent", "opex", true, 8000),
	}

	rows := e.CashFlow(revenue, costs)
	require.Len(t, rows, 2)

	assert.Equal(t, "2025-01", rows[0].Month)
	assert.InDelta(t, 1000.0, rows[0].NetProfit, 1e-9)
	assert.InDelta(t, 2000.0, rows[0].OperatingCashFlow, 1e-9)
	assert.InDelta(t, 2000.0, rows[0].CumulativeCashFlow, 1e-9)

	assert.Equal(t, "2025-02", rows[1].Month)
	assert.InDelta(t, 4000.0, rows[1].OperatingCashFlow, 1e-9)
	assert.InDelta(t, 6000.0, rows[1].CumulativeCashFlow, 1e-9)
}

func TestImpactSummary(t *testing.T) {
	e := testEngine(t, nil)

	var impact []ImpactMonth
	for i := 1; i <= 6; i++ {
		premium := 1000.0
		if i > 3 {
			premium = 1200.0
		}
		impact = append(impact, ImpactMonth{
			Month:            month(2025, time.Month(i)),
			KgSourced:        500,
			PremiumPaid:      premium,
			Cups:             10000,
			FarmersSupported: 100 + i,
			FarmerPremiumPct: 0.35,
			DirectTradePct:   0.92,
			CompostablePct:   0.80,
			CO2PerCupGrams:   28.4,
		})
	}

	s := e.ImpactSummary(impact)
	require.NotNil(t, s)
	assert.InDelta(t, 3000.0, s.TotalKgSourced, 1e-9)
	assert.InDelta(t, 6600.0, s.TotalPremiumPaid, 1e-9)
	assert.Equal(t, int64(60000), s.TotalCupsServed)
	assert.Equal(t, 106, s.FarmersSupported)
	assert.InDelta(t, 20.0, s.PremiumGrowthPct, 1e-9)
	assert.InDelta(t, 35.0, s.AvgFarmerPremiumPct, 1e-9)
	assert.InDelta(t, 0.11, s.PremiumPerCup, 1e-9)
	assert.InDelta(t, 28.4, s.CurrentCO2PerCup, 1e-9)
}

func TestExecutiveSummary(t *testing.T) {
	e := testEngine(t, map[string]Investment{"LIN": {Buildout: 100000}})

	revenue := ledger.Table{revRow(month(2025, 1), "LIN", 150000)}
	costs := ledger.Table{costRow(month(2025, 1), "LIN", "rent", "opex", true, 130000)}

	s := e.ExecutiveSummary(revenue, costs, nil, nil)
	assert.InDelta(t, 150000.0, s.TotalRevenue, 1e-9)
	assert.InDelta(t, 20.0, s.AvgROIPct, 1e-9)
	assert.InDelta(t, 100000.0, s.TotalInvestment, 1e-9)
	assert.Equal(t, 1, s.ActiveStores)
}

func TestBudgetVariance(t *testing.T) {
	e := testEngine(t, nil)

	budget := map[string]float64{"LIN": 50000, "JPH": 25000}
	actuals := ledger.Table{
		{Date: month(2025, 1), Store: "LIN", Category: "equipment", Amount: 42000},
	}

	rows := e.BudgetVariance(budget, actuals)
	require.Len(t, rows, 2)

	assert.Equal(t, "JPH", rows[0].Store)
	assert.InDelta(t, 25000.0, rows[0].Variance, 1e-9, "no postings means the full budget remains")
	assert.Equal(t, "LIN", rows[1].Store)
	assert.InDelta(t, 8000.0, rows[1].Variance, 1e-9)

	assert.Nil(t, e.BudgetVariance(nil, actuals))
}
