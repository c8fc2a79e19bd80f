package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/domain/stores"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testDeps(t *testing.T) (accountmap.Map, *stores.Registry) {
	t.Helper()
	m := accountmap.Map{
		accountmap.SectionRevenue: {
			"net_sales": {Codes: []string{"8%"}, Label: "Net Sales", Sign: accountmap.SignCredit},
		},
		accountmap.SectionOpex: {
			"rent":      {Codes: []string{"450%"}, Label: "Rent", Sign: accountmap.SignDebit, IsFixed: true},
			"marketing": {Codes: []string{"460%"}, Label: "Marketing", Sign: accountmap.SignDebit},
		},
	}
	reg, err := stores.NewRegistry([]stores.Store{
		{Code: "AMS01", Name: "Amsterdam Centrum", AnalyticID: 101},
		{Code: "UTR01", Name: "Utrecht Binnenstad", AnalyticID: 201},
	})
	require.NoError(t, err)
	return m, reg
}

func TestNormalize(t *testing.T) {
	m, reg := testDeps(t)

	lines := []RawLine{
		// Classified revenue, attributed to AMS01.
		{AccountCode: "800000", Debit: 30, Credit: 100, Date: date(2025, time.January, 15), Distribution: map[string]float64{"101": 100}},
		// Reversing entry nets out negative and is dropped.
		{AccountCode: "800000", Debit: 100, Credit: 30, Date: date(2025, time.January, 16), Distribution: map[string]float64{"101": 100}},
		// Unmapped account code is dropped.
		{AccountCode: "999999", Debit: 50, Date: date(2025, time.January, 17)},
		// No distribution lands on overhead.
		{AccountCode: "450010", Debit: 2000, Date: date(2025, time.February, 1)},
	}

	revenue := Normalize(lines, accountmap.SectionRevenue, m, reg)
	require.Len(t, revenue, 1)
	assert.Equal(t, "AMS01", revenue[0].Store)
	assert.Equal(t, "net_sales", revenue[0].Category)
	assert.InDelta(t, 70.0, revenue[0].Amount, 1e-9)

	opex := Normalize(lines, accountmap.SectionOpex, m, reg)
	require.Len(t, opex, 1)
	assert.Equal(t, stores.Overhead, opex[0].Store)
	assert.True(t, opex[0].IsFixed)
}

func testTable() Table {
	return Table{
		{Date: date(2025, time.January, 10), Store: "AMS01", Category: "net_sales", Amount: 1000},
		{Date: date(2025, time.January, 20), Store: "UTR01", Category: "net_sales", Amount: 500},
		{Date: date(2025, time.February, 5), Store: "AMS01", Category: "rent", Group: "occupancy", IsFixed: true, Amount: 2000},
		{Date: date(2025, time.February, 15), Store: "AMS01", Category: "marketing", Amount: 300},
	}
}

func TestTableFilters(t *testing.T) {
	tbl := testTable()

	assert.InDelta(t, 3800.0, tbl.Total(), 1e-9)
	assert.Len(t, tbl.FilterStore("AMS01"), 3)
	assert.Len(t, tbl.FilterStore(""), 4)
	assert.Len(t, tbl.FilterCategories("net_sales"), 2)
	assert.Len(t, tbl.FilterFixed(true), 1)
	assert.Len(t, tbl.FilterFixed(false), 3)

	feb := tbl.FilterRange(date(2025, time.February, 1), date(2025, time.March, 1))
	assert.Len(t, feb, 2)

	openEnded := tbl.FilterRange(date(2025, time.February, 1), time.Time{})
	assert.Len(t, openEnded, 2)
}

func TestTableAggregations(t *testing.T) {
	tbl := testTable()

	byCat := tbl.ByCategory()
	assert.InDelta(t, 1500.0, byCat["net_sales"], 1e-9)
	assert.InDelta(t, 2000.0, byCat["rent"], 1e-9)

	byStore := tbl.ByStore()
	assert.InDelta(t, 3300.0, byStore["AMS01"], 1e-9)
	assert.InDelta(t, 500.0, byStore["UTR01"], 1e-9)

	byGroup := tbl.ByGroup()
	assert.InDelta(t, 2000.0, byGroup["occupancy"], 1e-9)
	assert.InDelta(t, 1800.0, byGroup[""], 1e-9)

	months := tbl.Months()
	require.Len(t, months, 2)
	assert.Equal(t, date(2025, time.January, 1), months[0])
	assert.Equal(t, date(2025, time.February, 1), months[1])

	_, values := tbl.MonthlySeries()
	require.Len(t, values, 2)
	assert.InDelta(t, 1500.0, values[0], 1e-9)
	assert.InDelta(t, 2300.0, values[1], 1e-9)

	assert.Equal(t, []string{"AMS01", "UTR01"}, tbl.Stores())
}
