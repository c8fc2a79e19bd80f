package kpi

import "time"

// Targets holds the benchmark ratios KPIs are compared against.
// Percentage targets are stored as fractions (0.30 = 30%).
type Targets struct {
	GrossMarginPct      float64 `yaml:"gross_margin_pct" json:"grossMarginPct"`
	NetMarginPct        float64 `yaml:"net_margin_pct" json:"netMarginPct"`
	LaborCostPct        float64 `yaml:"labor_cost_pct" json:"laborCostPct"`
	RentCostPct         float64 `yaml:"rent_cost_pct" json:"rentCostPct"`
	FoodCostPct         float64 `yaml:"food_cost_pct" json:"foodCostPct"`
	BeverageCostPct     float64 `yaml:"beverage_cost_pct" json:"beverageCostPct"`
	AvgTransactionValue float64 `yaml:"avg_transaction_value" json:"avgTransactionValue"`
	RevenuePerSqmMonth  float64 `yaml:"revenue_per_sqm_month" json:"revenuePerSqmMonth"`
	RevenuePerLaborHour float64 `yaml:"revenue_per_labor_hour" json:"revenuePerLaborHour"`
	CustomerRetention   float64 `yaml:"customer_retention_pct" json:"customerRetentionPct"`
	InventoryTurnover   float64 `yaml:"inventory_turnover" json:"inventoryTurnover"`
	BreakEvenMonths     float64 `yaml:"break_even_months" json:"breakEvenMonths"`
}

// Investment is the one-off buildout spend for a store.
type Investment struct {
	Buildout       float64 `yaml:"buildout" json:"buildout"`
	Equipment      float64 `yaml:"equipment" json:"equipment"`
	Furniture      float64 `yaml:"furniture" json:"furniture"`
	WorkingCapital float64 `yaml:"working_capital" json:"workingCapital"`
}

// Total is the full invested amount for ROI and payback math.
func (i Investment) Total() float64 {
	return i.Buildout + i.Equipment + i.Furniture + i.WorkingCapital
}

// CustomerMonth is one month of customer activity for one store.
type CustomerMonth struct {
	Month               time.Time `json:"month"`
	Store               string    `json:"store"`
	Transactions        int64     `json:"transactions"`
	UniqueCustomers     int64     `json:"uniqueCustomers"`
	NewCustomers        int64     `json:"newCustomers"`
	ReturningCustomers  int64     `json:"returningCustomers"`
	RetentionRate       float64   `json:"retentionRate"`
	AvgTransactionValue float64   `json:"avgTransactionValue"`
	Revenue             float64   `json:"revenue"`
}

// LaborMonth is one month of labor input for one store.
type LaborMonth struct {
	Month   time.Time `json:"month"`
	Store   string    `json:"store"`
	Hours   float64   `json:"hours"`
	Cost    float64   `json:"cost"`
	FTE     float64   `json:"fte"`
	Revenue float64   `json:"revenue"`
}

// InventoryMonth is one month of stock movement for one store.
type InventoryMonth struct {
	Month      time.Time `json:"month"`
	Store      string    `json:"store"`
	Product    string    `json:"product,omitempty"`
	Sold       float64   `json:"sold"`
	Waste      float64   `json:"waste"`
	StockValue float64   `json:"stockValue"`
	UnitCost   float64   `json:"unitCost"`
}

// ImpactMonth is one month of company-wide sourcing impact figures.
type ImpactMonth struct {
	Month            time.Time `json:"month"`
	KgSourced        float64   `json:"kgSourced"`
	PremiumPaid      float64   `json:"premiumPaid"`
	Cups             int64     `json:"cups"`
	FarmersSupported int       `json:"farmersSupported"`
	FarmerPremiumPct float64   `json:"farmerPremiumPct"`
	DirectTradePct   float64   `json:"directTradePct"`
	CompostablePct   float64   `json:"compostablePct"`
	CO2PerCupGrams   float64   `json:"co2PerCupGrams"`
}

// Profitability is the margin breakdown for one scope (company or store).
type Profitability struct {
	TotalRevenue    float64 `json:"totalRevenue"`
	COGS            float64 `json:"cogs"`
	GrossProfit     float64 `json:"grossProfit"`
	GrossMarginPct  float64 `json:"grossMarginPct"`
	NetProfit       float64 `json:"netProfit"`
	NetMarginPct    float64 `json:"netMarginPct"`
	EBITDA          float64 `json:"ebitda"`
	EBITDAMarginPct float64 `json:"ebitdaMarginPct"`
	TotalCosts      float64 `json:"totalCosts"`
	OpexRatio       float64 `json:"opexRatio"`
}

// StoreProfitability is Profitability scoped to one store.
type StoreProfitability struct {
	Profitability
	Store     string `json:"store"`
	StoreName string `json:"storeName"`
}

// ROIRow is the investment return picture for one store.
type ROIRow struct {
	Store            string  `json:"store"`
	StoreName        string  `json:"storeName"`
	City             string  `json:"city,omitempty"`
	Opened           string  `json:"opened,omitempty"`
	TotalInvestment  float64 `json:"totalInvestment"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalCosts       float64 `json:"totalCosts"`
	NetProfit        float64 `json:"netProfit"`
	ROIPct           float64 `json:"roiPct"`
	AnnualizedROIPct float64 `json:"annualizedRoiPct"`
	MonthsOperating  int     `json:"monthsOperating"`
}

// BreakEvenRow is the break-even analysis for one store. Nil pointers mean
// the figure is undefined for that store (no viable contribution margin or
// no positive monthly profit), which is a reportable state, not an error.
type BreakEvenRow struct {
	Store                   string   `json:"store"`
	StoreName               string   `json:"storeName"`
	TotalInvestment         float64  `json:"totalInvestment"`
	AvgMonthlyRevenue       float64  `json:"avgMonthlyRevenue"`
	BreakEvenRevenueMonthly *float64 `json:"breakEvenRevenueMonthly"`
	AvgMonthlyProfit        float64  `json:"avgMonthlyProfit"`
	MonthsToPayback         *float64 `json:"monthsToPayback"`
	BEPerformancePct        float64  `json:"bePerformancePct"`
	VariableCostRatio       float64  `json:"variableCostRatio"`
	ContributionMargin      float64  `json:"contributionMargin"`
}

// RevenueMetrics summarizes the revenue side for one scope.
type RevenueMetrics struct {
	TotalRevenue        float64            `json:"totalRevenue"`
	AvgMonthlyRevenue   float64            `json:"avgMonthlyRevenue"`
	MonthsOfData        int                `json:"monthsOfData"`
	RevenuePerSqmMonth  float64            `json:"revenuePerSqmMonth"`
	GrowthPct3M         float64            `json:"growthPct3m"`
	AvgTransactionValue float64            `json:"avgTransactionValue"`
	TotalCustomers      int64              `json:"totalCustomers"`
	CategoryPct         map[string]float64 `json:"categoryPct"`
}

// PeriodRevenue is one aggregated period row.
type PeriodRevenue struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
}

// CostStructureRow is one cost category with its share of revenue and the
// delta against the configured benchmark, when one exists.
type CostStructureRow struct {
	Category     string   `json:"category"`
	Label        string   `json:"label"`
	Amount       float64  `json:"amount"`
	PctOfRevenue float64  `json:"pctOfRevenue"`
	TargetPct    *float64 `json:"targetPct"`
	VsTarget     *float64 `json:"vsTarget"`
}

// CustomerMetrics summarizes acquisition, retention and lifetime value.
type CustomerMetrics struct {
	TotalTransactions   int64   `json:"totalTransactions"`
	TotalCustomers      int64   `json:"totalCustomers"`
	NewCustomers        int64   `json:"newCustomers"`
	ReturningCustomers  int64   `json:"returningCustomers"`
	AvgRetentionRate    float64 `json:"avgRetentionRate"`
	AvgTransactionValue float64 `json:"avgTransactionValue"`
	AcquisitionCost     float64 `json:"customerAcquisitionCost"`
	LifetimeValue       float64 `json:"customerLifetimeValue"`
	CLVCACRatio         float64 `json:"clvCacRatio"`
	VisitsPerCustomer   float64 `json:"visitsPerCustomer"`
	NewCustomerPct      float64 `json:"newCustomerPct"`
}

// LaborMetrics summarizes labor productivity.
type LaborMetrics struct {
	TotalLaborHours         float64 `json:"totalLaborHours"`
	TotalLaborCost          float64 `json:"totalLaborCost"`
	AvgFTE                  float64 `json:"avgFte"`
	RevenuePerLaborHour     float64 `json:"revenuePerLaborHour"`
	LaborCostPct            float64 `json:"laborCostPct"`
	RevenuePerEmployeeMonth float64 `json:"revenuePerEmployeeMonth"`
	TargetLaborPct          float64 `json:"targetLaborPct"`
	VsTarget                float64 `json:"vsTarget"`
}

// InventoryMetrics summarizes stock efficiency.
type InventoryMetrics struct {
	AvgStockValue       float64 `json:"avgStockValue"`
	CurrentStockValue   float64 `json:"currentStockValue"`
	TurnoverRatio       float64 `json:"turnoverRatio"`
	AnnualizedTurnover  float64 `json:"annualizedTurnover"`
	WasteRatePct        float64 `json:"wasteRatePct"`
	DaysInventory       float64 `json:"daysInventoryOutstanding"`
	TotalWasteUnits     float64 `json:"totalWasteUnits"`
	TotalSoldUnits      float64 `json:"totalSoldUnits"`
}

// CashFlowRow is one month of estimated operating cash flow.
type CashFlowRow struct {
	Month              string  `json:"month"`
	Revenue            float64 `json:"revenue"`
	TotalCosts         float64 `json:"totalCosts"`
	NetProfit          float64 `json:"netProfit"`
	Depreciation       float64 `json:"depreciation"`
	OperatingCashFlow  float64 `json:"operatingCashFlow"`
	CumulativeCashFlow float64 `json:"cumulativeCashFlow"`
}

// ImpactSummary aggregates the sourcing-mission KPIs.
type ImpactSummary struct {
	TotalKgSourced      float64 `json:"totalKgSourced"`
	TotalPremiumPaid    float64 `json:"totalPremiumPaid"`
	TotalCupsServed     int64   `json:"totalCupsServed"`
	FarmersSupported    int     `json:"currentFarmersSupported"`
	AvgFarmerPremiumPct float64 `json:"avgFarmerPremiumPct"`
	AvgDirectTradePct   float64 `json:"avgDirectTradePct"`
	AvgCompostablePct   float64 `json:"avgCompostablePct"`
	CurrentCO2PerCup    float64 `json:"currentCo2PerCup"`
	PremiumPerCup       float64 `json:"premiumPerCup"`
	PremiumGrowthPct    float64 `json:"premiumGrowthPct"`
	KgPerMonthLatest    float64 `json:"kgPerMonthLatest"`
}

// ExecutiveSummary is the top-level hero view.
type ExecutiveSummary struct {
	TotalRevenue        float64 `json:"totalRevenue"`
	GrossMarginPct      float64 `json:"grossMarginPct"`
	NetMarginPct        float64 `json:"netMarginPct"`
	EBITDA              float64 `json:"ebitda"`
	AvgROIPct           float64 `json:"avgRoiPct"`
	TotalInvestment     float64 `json:"totalInvestment"`
	GrowthPct           float64 `json:"growthPct"`
	AvgTransactionValue float64 `json:"avgTransactionValue"`
	TotalCustomers      int64   `json:"totalCustomers"`
	ActiveStores        int     `json:"activeStores"`
	FarmersSupported    int     `json:"farmersSupported"`
	PremiumPaid         float64 `json:"premiumPaid"`
}

// BudgetVarianceRow compares a budgeted amount to the posted actuals for
// one store.
type BudgetVarianceRow struct {
	Store     string  `json:"store"`
	StoreName string  `json:"storeName"`
	Budget    float64 `json:"budget"`
	Actual    float64 `json:"actual"`
	Variance  float64 `json:"variance"`
}
