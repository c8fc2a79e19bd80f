package nmbrs

import (
	"context"
	"sort"
	"strings"

	"ledgerscope/internal/core/money"
	"ledgerscope/internal/domain/kpi"
	"ledgerscope/internal/domain/ledger"
	"ledgerscope/internal/domain/stores"
)

// Weeks per month used to turn weekly contract hours into monthly ones.
const avgWeeksPerMonth = 4.33

// ResolveStore maps a payroll department or cost center to a store code.
// Tried in order: exact department match, exact cost-center match,
// case-insensitive substring match on the department. Unknown staff land
// on overhead.
func ResolveStore(mapping map[string]string, department, costCenter string) string {
	if department != "" {
		if sc, ok := mapping[department]; ok {
			return sc
		}
	}
	if costCenter != "" {
		if sc, ok := mapping[costCenter]; ok {
			return sc
		}
	}
	if department != "" {
		deptLower := strings.ToLower(department)
		keys := make([]string, 0, len(mapping))
		for k := range mapping {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			keyLower := strings.ToLower(k)
			if strings.Contains(deptLower, keyLower) || strings.Contains(keyLower, deptLower) {
				return mapping[k]
			}
		}
	}
	return stores.Overhead
}

// Staffing is the aggregated payroll snapshot for one store.
type Staffing struct {
	Store       string  `json:"store"`
	Headcount   int     `json:"headcount"`
	TotalFTE    float64 `json:"totalFte"`
	MonthlyCost float64 `json:"monthlyCost"`
}

// LaborBuilder turns the current payroll snapshot plus a revenue table
// into monthly labor figures. Payroll exposes current state only, so the
// same staffing snapshot is applied to every revenue month.
type LaborBuilder struct {
	api API
	cfg Config
}

// NewLaborBuilder wires a builder over the payroll API.
func NewLaborBuilder(api API, cfg Config) *LaborBuilder {
	return &LaborBuilder{api: api, cfg: cfg}
}

// Configured reports whether the builder can reach live payroll data.
func (b *LaborBuilder) Configured() bool {
	return b.cfg.Configured() && b.cfg.CompanyID != 0
}

// StaffingByStore aggregates employees into per-store staffing. An
// employee with no schedule counts as one full FTE.
func (b *LaborBuilder) StaffingByStore(ctx context.Context) (map[string]Staffing, error) {
	employees, err := b.api.Employees(ctx, b.cfg.CompanyID)
	if err != nil {
		return nil, err
	}

	fullTime := b.cfg.fullTimeHours()
	burden := b.cfg.employerBurden()

	agg := make(map[string]Staffing)
	for _, emp := range employees {
		sc := ResolveStore(b.cfg.DepartmentToStore, emp.Department, emp.CostCenter)

		fte := 1.0
		if emp.HoursPerWeek > 0 {
			fte = emp.HoursPerWeek / fullTime
		}

		s := agg[sc]
		s.Store = sc
		s.Headcount++
		s.TotalFTE += fte
		s.MonthlyCost += emp.GrossSalary * (1 + burden)
		agg[sc] = s
	}
	return agg, nil
}

// Build produces one labor row per store per revenue month. Hours are
// estimated from contract FTE: fte x full-time week x 4.33 weeks. Stores
// without mapped payroll staff are skipped.
func (b *LaborBuilder) Build(ctx context.Context, revenue ledger.Table) ([]kpi.LaborMonth, error) {
	if len(revenue) == 0 {
		return nil, nil
	}

	staffing, err := b.StaffingByStore(ctx)
	if err != nil {
		return nil, err
	}
	if len(staffing) == 0 {
		return nil, nil
	}

	fullTime := b.cfg.fullTimeHours()

	var rows []kpi.LaborMonth
	for _, sc := range revenue.Stores() {
		s, ok := staffing[sc]
		if !ok {
			continue
		}
		hours := s.TotalFTE * fullTime * avgWeeksPerMonth

		storeRev := revenue.FilterStore(sc).ByMonth()
		months := make([]string, 0, len(storeRev))
		byKey := make(map[string]kpi.LaborMonth, len(storeRev))
		for m, amount := range storeRev {
			key := m.Format("2006-01")
			months = append(months, key)
			byKey[key] = kpi.LaborMonth{
				Month:   m,
				Store:   sc,
				Hours:   money.Euros(hours),
				Cost:    money.Cents(s.MonthlyCost),
				FTE:     money.Round(s.TotalFTE, 1),
				Revenue: money.Cents(amount),
			}
		}
		sort.Strings(months)
		for _, key := range months {
			rows = append(rows, byKey[key])
		}
	}
	return rows, nil
}
