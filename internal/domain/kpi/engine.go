// Package kpi computes the financial metrics served by the API.
//
// Every function tolerates empty input: a nil or empty result means the
// metric is undefined for the given scope, which callers render as such.
// Missing remote data is an expected production state, not an error.
package kpi

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ledgerscope/internal/core/money"
	"ledgerscope/internal/domain/ledger"
	"ledgerscope/internal/domain/stores"
)

const (
	groupCOGS            = "cogs"
	categoryDepreciation = "depreciation"
	categoryMarketing    = "marketing"

	// Lifetime value is capped regardless of measured retention.
	maxLifespanMonths = 36
)

// Engine evaluates KPI formulas against normalized transaction tables.
// It carries the reference data the formulas need: store registry,
// benchmark targets and per-store investments.
type Engine struct {
	registry    *stores.Registry
	targets     Targets
	investments map[string]Investment
}

// NewEngine builds an engine over the given reference data.
func NewEngine(registry *stores.Registry, targets Targets, investments map[string]Investment) *Engine {
	if investments == nil {
		investments = map[string]Investment{}
	}
	return &Engine{registry: registry, targets: targets, investments: investments}
}

// Targets exposes the configured benchmarks.
func (e *Engine) Targets() Targets { return e.targets }

// Investments exposes the configured per-store investments.
func (e *Engine) Investments() map[string]Investment { return e.investments }

// Profitability computes margins over a revenue and cost table. Returns
// nil when either table is empty or revenue sums to zero, in which case
// every margin is undefined.
func (e *Engine) Profitability(revenue, costs ledger.Table) *Profitability {
	if len(revenue) == 0 || len(costs) == 0 {
		return nil
	}
	totalRevenue := revenue.Total()
	if totalRevenue == 0 {
		return nil
	}

	cogs := costs.ByGroup()[groupCOGS]
	depreciation := costs.FilterCategories(categoryDepreciation).Total()
	totalCosts := costs.Total()

	grossProfit := totalRevenue - cogs
	netProfit := totalRevenue - totalCosts
	ebitda := netProfit + depreciation

	return &Profitability{
		TotalRevenue:    totalRevenue,
		COGS:            cogs,
		GrossProfit:     grossProfit,
		GrossMarginPct:  money.Pct(grossProfit / totalRevenue * 100),
		NetProfit:       netProfit,
		NetMarginPct:    money.Pct(netProfit / totalRevenue * 100),
		EBITDA:          ebitda,
		EBITDAMarginPct: money.Pct(ebitda / totalRevenue * 100),
		TotalCosts:      totalCosts,
		OpexRatio:       money.Pct((totalCosts - cogs) / totalRevenue * 100),
	}
}

// ProfitabilityByStore evaluates Profitability per store present in the
// revenue table. Stores with zero revenue are omitted.
func (e *Engine) ProfitabilityByStore(revenue, costs ledger.Table) []StoreProfitability {
	var rows []StoreProfitability
	for _, sc := range revenue.Stores() {
		p := e.Profitability(revenue.FilterStore(sc), costs.FilterStore(sc))
		if p == nil {
			continue
		}
		rows = append(rows, StoreProfitability{
			Profitability: *p,
			Store:         sc,
			StoreName:     e.registry.Name(sc),
		})
	}
	return rows
}

// StoreROI computes investment return per store. Only stores with
// configured investment data produce rows; store may narrow to one code.
func (e *Engine) StoreROI(revenue, costs ledger.Table, store string) []ROIRow {
	if len(revenue) == 0 || len(costs) == 0 || len(e.investments) == 0 {
		return nil
	}

	codes := e.investmentCodes(store)
	var rows []ROIRow
	for _, sc := range codes {
		inv, ok := e.investments[sc]
		if !ok {
			continue
		}
		totalInvestment := inv.Total()

		storeRev := revenue.FilterStore(sc)
		totalRev := storeRev.Total()
		totalCosts := costs.FilterStore(sc).Total()
		netProfit := totalRev - totalCosts

		var roiPct float64
		if totalInvestment > 0 {
			roiPct = netProfit / totalInvestment * 100
		}
		monthsOperating := len(storeRev.Months())
		var annualized float64
		if monthsOperating > 0 {
			annualized = roiPct / math.Max(1, float64(monthsOperating)) * 12
		}

		info, _ := e.registry.Get(sc)
		rows = append(rows, ROIRow{
			Store:            sc,
			StoreName:        e.registry.Name(sc),
			City:             info.City,
			Opened:           info.Opened,
			TotalInvestment:  totalInvestment,
			TotalRevenue:     totalRev,
			TotalCosts:       totalCosts,
			NetProfit:        netProfit,
			ROIPct:           money.Pct(roiPct),
			AnnualizedROIPct: money.Pct(annualized),
			MonthsOperating:  monthsOperating,
		})
	}
	return rows
}

// BreakEven computes the break-even picture per store. Undefined figures
// (no positive contribution margin, no positive monthly profit) come back
// as nil pointers in the row, never as an error or infinity.
func (e *Engine) BreakEven(revenue, costs ledger.Table, store string) []BreakEvenRow {
	if len(revenue) == 0 || len(costs) == 0 || len(e.investments) == 0 {
		return nil
	}

	var rows []BreakEvenRow
	for _, sc := range e.investmentCodes(store) {
		inv, ok := e.investments[sc]
		if !ok {
			continue
		}

		storeRev := revenue.FilterStore(sc)
		if len(storeRev) == 0 {
			continue
		}
		months := len(storeRev.Months())
		if months == 0 {
			continue
		}
		storeCosts := costs.FilterStore(sc)

		totalRev := storeRev.Total()
		avgMonthlyRevenue := totalRev / float64(months)

		fixedTotal := storeCosts.FilterFixed(true).Total()
		variableTotal := storeCosts.FilterFixed(false).Total()

		variableRatio := 0.7
		if totalRev > 0 {
			variableRatio = variableTotal / totalRev
		}
		avgMonthlyFixed := fixedTotal / float64(months)

		var breakEvenRaw float64
		var breakEvenMonthly *float64
		if variableRatio < 1 {
			breakEvenRaw = avgMonthlyFixed / (1 - variableRatio)
			breakEvenMonthly = fptr(money.Euros(breakEvenRaw))
		}

		avgMonthlyProfit := (totalRev - storeCosts.Total()) / float64(months)

		var monthsToPayback *float64
		if avgMonthlyProfit > 0 {
			monthsToPayback = fptr(money.Round(inv.Total()/avgMonthlyProfit, 1))
		}

		var performance float64
		if breakEvenRaw > 0 {
			performance = avgMonthlyRevenue / breakEvenRaw * 100
		}

		rows = append(rows, BreakEvenRow{
			Store:                   sc,
			StoreName:               e.registry.Name(sc),
			TotalInvestment:         inv.Total(),
			AvgMonthlyRevenue:       money.Euros(avgMonthlyRevenue),
			BreakEvenRevenueMonthly: breakEvenMonthly,
			AvgMonthlyProfit:        money.Euros(avgMonthlyProfit),
			MonthsToPayback:         monthsToPayback,
			BEPerformancePct:        money.Pct(performance),
			VariableCostRatio:       money.Ratio(variableRatio),
			ContributionMargin:      money.Ratio(1 - variableRatio),
		})
	}
	return rows
}

// RevenueMetrics summarizes the revenue table, with transaction-level
// customer figures mixed in when available.
func (e *Engine) RevenueMetrics(revenue ledger.Table, customers []CustomerMonth) *RevenueMetrics {
	if len(revenue) == 0 {
		return nil
	}

	totalRevenue := revenue.Total()
	months := revenue.Months()
	byMonth := revenue.ByMonth()

	var avgMonthly float64
	if len(months) > 0 {
		avgMonthly = totalRevenue / float64(len(months))
	}

	// Floor area of the stores actually present, overhead excluded.
	var totalSqm int
	for _, sc := range revenue.Stores() {
		if sc == stores.Overhead {
			continue
		}
		totalSqm += e.registry.Sqm(sc)
	}
	var revPerSqm float64
	if totalSqm > 0 && len(months) > 0 {
		revPerSqm = totalRevenue / float64(len(months)) / float64(totalSqm)
	}

	growth := threeMonthGrowth(months, byMonth)

	var avgTV float64
	var totalCustomers int64
	if len(customers) > 0 {
		var tvSum float64
		for _, c := range customers {
			tvSum += c.AvgTransactionValue
			totalCustomers += c.UniqueCustomers
		}
		avgTV = tvSum / float64(len(customers))
	}

	totalForPct := math.Max(totalRevenue, 1)
	categoryPct := make(map[string]float64)
	for cat, amount := range revenue.ByCategory() {
		categoryPct[cat] = money.Pct(amount / totalForPct * 100)
	}

	return &RevenueMetrics{
		TotalRevenue:        totalRevenue,
		AvgMonthlyRevenue:   money.Euros(avgMonthly),
		MonthsOfData:        len(months),
		RevenuePerSqmMonth:  money.Euros(revPerSqm),
		GrowthPct3M:         money.Pct(growth),
		AvgTransactionValue: money.Cents(avgTV),
		TotalCustomers:      totalCustomers,
		CategoryPct:         categoryPct,
	}
}

// RevenueByPeriod aggregates revenue into month, quarter or year buckets.
func (e *Engine) RevenueByPeriod(revenue ledger.Table, period string) []PeriodRevenue {
	if len(revenue) == 0 {
		return nil
	}

	sums := make(map[string]float64)
	for _, tx := range revenue {
		sums[periodKey(tx.Date, period)] += tx.Amount
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]PeriodRevenue, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, PeriodRevenue{Period: k, Revenue: sums[k]})
	}
	return rows
}

// CostStructure breaks costs down per category against revenue, with
// benchmark deltas where a target is configured.
func (e *Engine) CostStructure(costs, revenue ledger.Table) []CostStructureRow {
	if len(costs) == 0 || len(revenue) == 0 {
		return nil
	}
	totalRevenue := revenue.Total()

	type catInfo struct {
		label  string
		amount float64
	}
	byCat := make(map[string]*catInfo)
	for _, tx := range costs {
		info, ok := byCat[tx.Category]
		if !ok {
			info = &catInfo{label: tx.Label}
			byCat[tx.Category] = info
		}
		info.amount += tx.Amount
	}

	targetMap := map[string]float64{
		"labor":       e.targets.LaborCostPct * 100,
		"rent":        e.targets.RentCostPct * 100,
		"cogs_coffee": e.targets.BeverageCostPct * 100,
		"cogs_food":   e.targets.FoodCostPct * 100,
	}

	rows := make([]CostStructureRow, 0, len(byCat))
	for cat, info := range byCat {
		row := CostStructureRow{
			Category: cat,
			Label:    info.label,
			Amount:   info.amount,
		}
		if totalRevenue > 0 {
			row.PctOfRevenue = money.Pct(info.amount / totalRevenue * 100)
		}
		if target, ok := targetMap[cat]; ok {
			row.TargetPct = fptr(target)
			row.VsTarget = fptr(money.Pct(row.PctOfRevenue - target))
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount != rows[j].Amount {
			return rows[i].Amount > rows[j].Amount
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// CustomerMetrics summarizes acquisition and lifetime value. The cost
// table supplies marketing spend for the acquisition-cost estimate.
func (e *Engine) CustomerMetrics(customers []CustomerMonth, costs ledger.Table) *CustomerMetrics {
	if len(customers) == 0 {
		return nil
	}

	var (
		transactions, totalCustomers, newCustomers, returning int64
		retentionSum, tvSum, revenueSum                       float64
	)
	monthSet := make(map[time.Time]struct{})
	for _, c := range customers {
		transactions += c.Transactions
		totalCustomers += c.UniqueCustomers
		newCustomers += c.NewCustomers
		returning += c.ReturningCustomers
		retentionSum += c.RetentionRate
		tvSum += c.AvgTransactionValue
		revenueSum += c.Revenue
		monthSet[c.Month] = struct{}{}
	}
	n := float64(len(customers))
	avgRetention := retentionSum / n
	avgTV := tvSum / n

	var cac float64
	if newCustomers > 0 {
		marketing := costs.FilterCategories(categoryMarketing).Total()
		cac = marketing / float64(newCustomers)
	}

	var clv float64
	if len(monthSet) > 0 && totalCustomers > 0 {
		revPerCustomer := revenueSum / float64(totalCustomers)
		lifespan := float64(maxLifespanMonths)
		if avgRetention < 1 {
			lifespan = math.Min(1/(1-avgRetention), maxLifespanMonths)
		}
		clv = revPerCustomer * lifespan
	}

	var clvCAC float64
	if cac > 0 {
		clvCAC = money.Round(clv/cac, 1)
	}

	var visits, newPct float64
	if totalCustomers > 0 {
		visits = float64(transactions) / float64(totalCustomers)
		newPct = float64(newCustomers) / float64(totalCustomers) * 100
	}

	return &CustomerMetrics{
		TotalTransactions:   transactions,
		TotalCustomers:      totalCustomers,
		NewCustomers:        newCustomers,
		ReturningCustomers:  returning,
		AvgRetentionRate:    money.Ratio(avgRetention),
		AvgTransactionValue: money.Cents(avgTV),
		AcquisitionCost:     money.Cents(cac),
		LifetimeValue:       money.Cents(clv),
		CLVCACRatio:         clvCAC,
		VisitsPerCustomer:   money.Round(visits, 1),
		NewCustomerPct:      money.Pct(newPct),
	}
}

// LaborEfficiency summarizes labor productivity for the given months.
func (e *Engine) LaborEfficiency(labor []LaborMonth) *LaborMetrics {
	if len(labor) == 0 {
		return nil
	}

	var hours, cost, fteSum, revenue float64
	monthSet := make(map[time.Time]struct{})
	for _, l := range labor {
		hours += l.Hours
		cost += l.Cost
		fteSum += l.FTE
		revenue += l.Revenue
		monthSet[l.Month] = struct{}{}
	}
	avgFTE := fteSum / float64(len(labor))

	var revPerHour, laborPct, revPerEmployee float64
	if hours > 0 {
		revPerHour = revenue / hours
	}
	if revenue > 0 {
		laborPct = cost / revenue * 100
	}
	if avgFTE > 0 && len(monthSet) > 0 {
		revPerEmployee = revenue / (avgFTE * float64(len(monthSet)))
	}

	targetPct := e.targets.LaborCostPct * 100
	return &LaborMetrics{
		TotalLaborHours:         money.Euros(hours),
		TotalLaborCost:          money.Euros(cost),
		AvgFTE:                  money.Round(avgFTE, 1),
		RevenuePerLaborHour:     money.Cents(revPerHour),
		LaborCostPct:            money.Pct(laborPct),
		RevenuePerEmployeeMonth: money.Euros(revPerEmployee),
		TargetLaborPct:          targetPct,
		VsTarget:                money.Pct(laborPct - targetPct),
	}
}

// InventoryMetrics summarizes stock turns and waste.
func (e *Engine) InventoryMetrics(inventory []InventoryMonth) *InventoryMetrics {
	if len(inventory) == 0 {
		return nil
	}

	var sold, waste, costOfSold float64
	stockByMonth := make(map[time.Time]float64)
	for _, row := range inventory {
		sold += row.Sold
		waste += row.Waste
		costOfSold += row.Sold * row.UnitCost
		stockByMonth[row.Month] += row.StockValue
	}

	months := make([]time.Time, 0, len(stockByMonth))
	for m := range stockByMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	var stockSum float64
	for _, m := range months {
		stockSum += stockByMonth[m]
	}
	avgStock := stockSum / float64(len(months))
	currentStock := stockByMonth[months[len(months)-1]]

	var turnover float64
	if avgStock > 0 {
		turnover = costOfSold / avgStock
	}
	annualized := turnover * 12 / math.Max(1, float64(len(months)))

	var wasteRate float64
	if sold+waste > 0 {
		wasteRate = waste / (sold + waste) * 100
	}

	var dio float64
	dailyCOGS := costOfSold / (float64(len(months)) * 30)
	if dailyCOGS > 0 {
		dio = avgStock / dailyCOGS
	}

	return &InventoryMetrics{
		AvgStockValue:      money.Euros(avgStock),
		CurrentStockValue:  money.Euros(currentStock),
		TurnoverRatio:      money.Round(turnover, 1),
		AnnualizedTurnover: money.Round(annualized, 1),
		WasteRatePct:       money.Cents(wasteRate),
		DaysInventory:      money.Round(dio, 1),
		TotalWasteUnits:    waste,
		TotalSoldUnits:     sold,
	}
}

// CashFlow estimates monthly operating cash flow, with a running total
// accumulated in chronological order.
func (e *Engine) CashFlow(revenue, costs ledger.Table) []CashFlowRow {
	if len(revenue) == 0 || len(costs) == 0 {
		return nil
	}

	revByMonth := revenue.ByMonth()
	costByMonth := costs.ByMonth()
	deprByMonth := costs.FilterCategories(categoryDepreciation).ByMonth()

	monthSet := make(map[time.Time]struct{})
	for m := range revByMonth {
		monthSet[m] = struct{}{}
	}
	for m := range costByMonth {
		monthSet[m] = struct{}{}
	}
	months := make([]time.Time, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	rows := make([]CashFlowRow, 0, len(months))
	var cumulative float64
	for _, m := range months {
		rev := revByMonth[m]
		cost := costByMonth[m]
		depr := deprByMonth[m]
		netProfit := rev - cost
		operating := netProfit + depr
		cumulative += operating

		rows = append(rows, CashFlowRow{
			Month:              m.Format("2006-01"),
			Revenue:            money.Euros(rev),
			TotalCosts:         money.Euros(cost),
			NetProfit:          money.Euros(netProfit),
			Depreciation:       money.Euros(depr),
			OperatingCashFlow:  money.Euros(operating),
			CumulativeCashFlow: money.Euros(cumulative),
		})
	}
	return rows
}

// ImpactSummary aggregates the sourcing-mission figures.
func (e *Engine) ImpactSummary(impact []ImpactMonth) *ImpactSummary {
	if len(impact) == 0 {
		return nil
	}

	sorted := append([]ImpactMonth(nil), impact...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Month.Before(sorted[j].Month) })
	latest := sorted[len(sorted)-1]

	var kg, premium, farmerPremiumSum, directTradeSum, compostableSum float64
	var cups int64
	premiumByMonth := make(map[time.Time]float64)
	for _, row := range sorted {
		kg += row.KgSourced
		premium += row.PremiumPaid
		cups += row.Cups
		farmerPremiumSum += row.FarmerPremiumPct
		directTradeSum += row.DirectTradePct
		compostableSum += row.CompostablePct
		premiumByMonth[row.Month] += row.PremiumPaid
	}
	n := float64(len(sorted))

	months := make([]time.Time, 0, len(premiumByMonth))
	for m := range premiumByMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	premiumGrowth := threeMonthGrowth(months, premiumByMonth)

	var premiumPerCup float64
	if cups > 0 {
		premiumPerCup = money.Ratio(premium / float64(cups))
	}

	return &ImpactSummary{
		TotalKgSourced:      money.Euros(kg),
		TotalPremiumPaid:    money.Euros(premium),
		TotalCupsServed:     cups,
		FarmersSupported:    latest.FarmersSupported,
		AvgFarmerPremiumPct: money.Pct(farmerPremiumSum / n * 100),
		AvgDirectTradePct:   money.Pct(directTradeSum / n * 100),
		AvgCompostablePct:   money.Pct(compostableSum / n * 100),
		CurrentCO2PerCup:    money.Round(latest.CO2PerCupGrams, 1),
		PremiumPerCup:       premiumPerCup,
		PremiumGrowthPct:    money.Pct(premiumGrowth),
		KgPerMonthLatest:    money.Euros(latest.KgSourced),
	}
}

// ExecutiveSummary assembles the hero figures from the other metrics.
func (e *Engine) ExecutiveSummary(revenue, costs ledger.Table, customers []CustomerMonth, impact []ImpactMonth) ExecutiveSummary {
	var out ExecutiveSummary

	if p := e.Profitability(revenue, costs); p != nil {
		out.TotalRevenue = p.TotalRevenue
		out.GrossMarginPct = p.GrossMarginPct
		out.NetMarginPct = p.NetMarginPct
		out.EBITDA = p.EBITDA
	}
	if rm := e.RevenueMetrics(revenue, customers); rm != nil {
		out.GrowthPct = rm.GrowthPct3M
		out.AvgTransactionValue = rm.AvgTransactionValue
		out.TotalCustomers = rm.TotalCustomers
	}
	if roi := e.StoreROI(revenue, costs, ""); len(roi) > 0 {
		var roiSum, invSum float64
		for _, row := range roi {
			roiSum += row.ROIPct
			invSum += row.TotalInvestment
		}
		out.AvgROIPct = money.Pct(roiSum / float64(len(roi)))
		out.TotalInvestment = invSum
	}
	if imp := e.ImpactSummary(impact); imp != nil {
		out.FarmersSupported = imp.FarmersSupported
		out.PremiumPaid = imp.TotalPremiumPaid
	}
	out.ActiveStores = len(revenue.Stores())
	return out
}

// BudgetVariance compares budgeted amounts against posted actuals per
// store. Variance is budget minus actual: positive means under budget.
func (e *Engine) BudgetVariance(budget map[string]float64, actuals ledger.Table) []BudgetVarianceRow {
	if len(budget) == 0 {
		return nil
	}
	byStore := actuals.ByStore()

	codes := make([]string, 0, len(budget))
	for sc := range budget {
		codes = append(codes, sc)
	}
	sort.Strings(codes)

	rows := make([]BudgetVarianceRow, 0, len(codes))
	for _, sc := range codes {
		b := budget[sc]
		actual := byStore[sc]
		rows = append(rows, BudgetVarianceRow{
			Store:     sc,
			StoreName: e.registry.Name(sc),
			Budget:    b,
			Actual:    actual,
			Variance:  b - actual,
		})
	}
	return rows
}

// investmentCodes returns the store codes to evaluate, narrowed to one
// when store is non-empty, otherwise all configured investments sorted.
func (e *Engine) investmentCodes(store string) []string {
	if store != "" {
		return []string{store}
	}
	codes := make([]string, 0, len(e.investments))
	for sc := range e.investments {
		codes = append(codes, sc)
	}
	sort.Strings(codes)
	return codes
}

// threeMonthGrowth compares the latest three months against the prior
// three. Needs at least six months of data; otherwise growth is 0.
func threeMonthGrowth(months []time.Time, byMonth map[time.Time]float64) float64 {
	if len(months) < 6 {
		return 0
	}
	var recent, prior float64
	for _, m := range months[len(months)-3:] {
		recent += byMonth[m]
	}
	for _, m := range months[len(months)-6 : len(months)-3] {
		prior += byMonth[m]
	}
	if prior <= 0 {
		return 0
	}
	return (recent - prior) / prior * 100
}

func periodKey(d time.Time, period string) string {
	switch period {
	case "quarter":
		q := (int(d.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", d.Year(), q)
	case "year":
		return d.Format("2006")
	default:
		return d.Format("2006-01")
	}
}

func fptr(v float64) *float64 { return &v }
