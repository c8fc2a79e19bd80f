package accountmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMap() Map {
	return Map{
		SectionRevenue: {
			"net_sales": {
				Codes: []string{"800000", "8001%"},
				Label: "Net Sales",
				Sign:  SignCredit,
			},
			"other_income": {
				Codes: []string{"8%"},
				Label: "Other Income",
				Sign:  SignCredit,
			},
		},
		SectionOpex: {
			"rent": {
				Codes:   []string{"450%"},
				Label:   "Rent",
				Sign:    SignDebit,
				Group:   "occupancy",
				IsFixed: true,
			},
			"marketing": {
				Codes: []string{"460%"},
				Label: "Marketing",
				Sign:  SignDebit,
			},
		},
		SectionCapex: {
			"equipment": {
				Codes: []string{"02%"},
				Label: "Equipment",
				Sign:  SignAbs,
				Group: "capex",
			},
		},
	}
}

func TestClassify(t *testing.T) {
	m := testMap()

	tests := []struct {
		name         string
		code         string
		section      Section
		wantCategory string
		wantOK       bool
	}{
		{
			name:         "exact match wins over overlapping prefix",
			code:         "800000",
			section:      SectionRevenue,
			wantCategory: "net_sales",
			wantOK:       true,
		},
		{
			name:         "longest prefix wins",
			code:         "800150",
			section:      SectionRevenue,
			wantCategory: "net_sales",
			wantOK:       true,
		},
		{
			name:         "shorter prefix catches the rest",
			code:         "890000",
			section:      SectionRevenue,
			wantCategory: "other_income",
			wantOK:       true,
		},
		{
			name:    "no match",
			code:    "999999",
			section: SectionOpex,
			wantOK:  false,
		},
		{
			name:    "section scoping excludes other sections",
			code:    "450010",
			section: SectionRevenue,
			wantOK:  false,
		},
		{
			name:         "empty section searches everywhere",
			code:         "450010",
			section:      "",
			wantCategory: "rent",
			wantOK:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok := m.Classify(tt.code, tt.section)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantCategory, match.Category)
			}
		})
	}
}

func TestClassifyExactIsNotAPrefix(t *testing.T) {
	m := Map{
		SectionRevenue: {
			"exact_only": {
				Codes: []string{"700000"},
				Label: "Exact Only",
				Sign:  SignCredit,
			},
		},
	}

	// A pattern without the trailing wildcard must not match extensions
	// of itself.
	_, ok := m.Classify("7000001", SectionRevenue)
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		sign    Sign
		debit   float64
		credit  float64
		balance float64
		want    float64
	}{
		{name: "credit convention", sign: SignCredit, debit: 30, credit: 100, want: 70},
		{name: "credit reversal goes negative", sign: SignCredit, debit: 100, credit: 30, want: -70},
		{name: "debit convention", sign: SignDebit, debit: 120, credit: 20, want: 100},
		{name: "abs uses balance", sign: SignAbs, debit: 10, credit: 0, balance: -250, want: 250},
		{name: "abs falls back to debit minus credit", sign: SignAbs, debit: 0, credit: 40, want: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{Sign: tt.sign}
			assert.InDelta(t, tt.want, e.Normalize(tt.debit, tt.credit, tt.balance), 1e-9)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid map passes", func(t *testing.T) {
		require.NoError(t, testMap().Validate())
	})

	t.Run("empty map fails", func(t *testing.T) {
		require.Error(t, Map{}.Validate())
	})

	t.Run("unknown section fails", func(t *testing.T) {
		m := Map{"profits": {"x": {Codes: []string{"1%"}, Sign: SignCredit}}}
		require.Error(t, m.Validate())
	})

	t.Run("entry without codes fails", func(t *testing.T) {
		m := Map{SectionOpex: {"rent": {Sign: SignDebit}}}
		require.Error(t, m.Validate())
	})

	t.Run("invalid sign fails", func(t *testing.T) {
		m := Map{SectionOpex: {"rent": {Codes: []string{"45%"}, Sign: "net"}}}
		require.Error(t, m.Validate())
	})

	t.Run("bare wildcard fails", func(t *testing.T) {
		m := Map{SectionOpex: {"rent": {Codes: []string{"%"}, Sign: SignDebit}}}
		require.Error(t, m.Validate())
	})
}

func TestMapHelpers(t *testing.T) {
	m := testMap()

	codes := m.Codes(SectionRevenue)
	assert.ElementsMatch(t, []string{"800000", "8001%", "8%"}, codes)

	labels := m.Labels(SectionOpex)
	assert.Equal(t, "Rent", labels["450%"])
	assert.Equal(t, "Marketing", labels["460%"])

	fixed := m.FixedCategories(SectionOpex)
	assert.True(t, fixed["rent"])
	assert.False(t, fixed["marketing"])
}
