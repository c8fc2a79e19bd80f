package nmbrs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerscope/internal/domain/ledger"
	"ledgerscope/internal/domain/stores"
)

func TestResolveStore(t *testing.T) {
	mapping := map[string]string{
		"Linnaeusstraat":   "LIN",
		"CC-201":           "UTR",
		"Jan Pieter Heije": "JPH",
	}

	tests := []struct {
		name       string
		department string
		costCenter string
		want       string
	}{
		{name: "exact department", department: "Linnaeusstraat", want: "LIN"},
		{name: "exact cost center", department: "Unknown Dept", costCenter: "CC-201", want: "UTR"},
		{name: "substring match", department: "Store - Linnaeusstraat", want: "LIN"},
		{name: "reverse substring match", department: "Heije", want: "JPH"},
		{name: "no match is overhead", department: "Head Office", want: stores.Overhead},
		{name: "empty input is overhead", want: stores.Overhead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStore(mapping, tt.department, tt.costCenter))
		})
	}
}

type fakeAPI struct {
	employees []Employee
	err       error
}

func (f *fakeAPI) Companies(context.Context) ([]Company, error) {
	return []Company{{ID: 1, Name: "Wakuli Retail B.V."}}, nil
}

func (f *fakeAPI) Employees(context.Context, int64) ([]Employee, error) {
	return f.employees, f.err
}

func laborConfig() Config {
	return Config{
		BaseURL: "http://unused", Username: "u", Token: "t", CompanyID: 1,
		DepartmentToStore: map[string]string{"Linnaeusstraat": "LIN"},
	}
}

func TestStaffingByStore(t *testing.T) {
	api := &fakeAPI{employees: []Employee{
		{ID: 1, Name: "Barista A", Department: "Linnaeusstraat", HoursPerWeek: 32, GrossSalary: 2400},
		{ID: 2, Name: "Barista B", Department: "Linnaeusstraat", HoursPerWeek: 20, GrossSalary: 1500},
		{ID: 3, Name: "Office", Department: "Head Office", GrossSalary: 4000},
	}}

	b := NewLaborBuilder(api, laborConfig())
	staffing, err := b.StaffingByStore(context.Background())
	require.NoError(t, err)
	require.Len(t, staffing, 2)

	lin := staffing["LIN"]
	assert.Equal(t, 2, lin.Headcount)
	assert.InDelta(t, 1.3, lin.TotalFTE, 1e-9) // 32/40 + 20/40
	assert.InDelta(t, 5070.0, lin.MonthlyCost, 1e-9)

	ooh := staffing[stores.Overhead]
	assert.Equal(t, 1, ooh.Headcount)
	assert.InDelta(t, 1.0, ooh.TotalFTE, 1e-9, "no schedule counts as a full FTE")
}

func TestBuildLabor(t *testing.T) {
	api := &fakeAPI{employees: []Employee{
		{ID: 1, Department: "Linnaeusstraat", HoursPerWeek: 40, GrossSalary: 2500},
	}}
	b := NewLaborBuilder(api, laborConfig())

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	revenue := ledger.Table{
		{Date: jan, Store: "LIN", Category: "net_sales", Amount: 40000},
		{Date: feb, Store: "LIN", Category: "net_sales", Amount: 44000},
		{Date: jan, Store: "UTR", Category: "net_sales", Amount: 9999},
	}

	rows, err := b.Build(context.Background(), revenue)
	require.NoError(t, err)
	require.Len(t, rows, 2, "stores without mapped staff are skipped")

	assert.Equal(t, "LIN", rows[0].Store)
	assert.Equal(t, jan, rows[0].Month)
	// 1.0 FTE x 40h x 4.33 weeks = 173 hours after rounding
	assert.InDelta(t, 173.0, rows[0].Hours, 0.5)
	assert.InDelta(t, 3250.0, rows[0].Cost, 1e-9) // 2500 x 1.30
	assert.InDelta(t, 40000.0, rows[0].Revenue, 1e-9)
	assert.InDelta(t, 44000.0, rows[1].Revenue, 1e-9)
}

func TestBuildLaborEmptyInputs(t *testing.T) {
	b := NewLaborBuilder(&fakeAPI{}, laborConfig())

	rows, err := b.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, rows)

	revenue := ledger.Table{{Date: time.Now(), Store: "LIN", Amount: 1}}
	rows, err = b.Build(context.Background(), revenue)
	require.NoError(t, err)
	assert.Nil(t, rows, "no employees means no labor rows")
}
