package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerscope/internal/demo"
	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/domain/budget"
	"ledgerscope/internal/domain/dataset"
	"ledgerscope/internal/domain/kpi"
	"ledgerscope/internal/domain/stores"
	"ledgerscope/internal/infrastructure/http/v1/middleware"
	"ledgerscope/pkg/logger"
)

func testAccountMap() accountmap.Map {
	return accountmap.Map{
		accountmap.SectionRevenue: {
			"coffee_sales": {Codes: []string{"800000"}, Label: "Coffee Sales", Sign: accountmap.SignCredit},
		},
		accountmap.SectionCOGS: {
			"cogs_coffee": {Codes: []string{"400000"}, Label: "COGS - Coffee", Sign: accountmap.SignDebit, Group: "cogs"},
		},
		accountmap.SectionOpex: {
			"rent": {Codes: []string{"420000"}, Label: "Rent", Sign: accountmap.SignDebit, IsFixed: true},
		},
		accountmap.SectionCapex: {
			"construction": {Codes: []string{"037000"}, Label: "Construction", Sign: accountmap.SignAbs, Group: "capex"},
		},
	}
}

func testRouter(t *testing.T, jwtSecret string) http.Handler {
	t.Helper()

	reg, err := stores.NewRegistry([]stores.Store{
		{Code: "LIN", Name: "Linnaeusstraat", Sqm: 65, Opened: "2021-03", AnalyticID: 17046},
		{Code: "JPH", Name: "Jan Pieter Heijestraat", Sqm: 55, Opened: "2021-06", AnalyticID: 17047},
		{Code: stores.Overhead, Name: "Overhead"},
	})
	require.NoError(t, err)

	m := testAccountMap()
	gen := demo.NewGenerator(reg, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	loader := dataset.NewLoader(m, reg, nil, nil, gen, nil, nil)
	engine := kpi.NewEngine(reg, kpi.Targets{LaborCostPct: 0.30, RentCostPct: 0.12}, nil)
	budgets := budget.NewMemoryStore()

	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Logger:       log,
		Loader:       loader,
		Engine:       engine,
		Budgets:      budgets,
		Registry:     reg,
		Demo:         gen,
		AccountMap:   m,
		DefaultYears: []int{2024, 2025},
		JWTSecret:    jwtSecret,
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var parsed map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed), "body: %s", rec.Body.String())
	}
	return rec, parsed
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestExecutiveSummaryDemoSources(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/reports/executive-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	meta := body["meta"].(map[string]any)
	sources := meta["sources"].(map[string]any)
	assert.Equal(t, "demo", sources["revenue"])
	assert.Equal(t, "demo", sources["costs"])

	data := body["data"].(map[string]any)
	assert.Greater(t, data["totalRevenue"].(float64), 0.0)
}

func TestProfitabilityWithFilters(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/reports/profitability?years=2025&stores=LIN", "")
	require.Equal(t, http.StatusOK, rec.Code)

	meta := body["meta"].(map[string]any)
	assert.Equal(t, []any{float64(2025)}, meta["years"])
	assert.Equal(t, []any{"LIN"}, meta["stores"])
}

func TestRevenueByPeriodRejectsBadPeriod(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/reports/revenue-by-period?period=week", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestBadYearRejected(t *testing.T) {
	router := testRouter(t, "")
	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/reports/profitability?years=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoresList(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/stores", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["stores"], 3)
}

func TestAccountsUnconfigured(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/accounts", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "CONFIG_ERROR", body["code"])
}

func TestBudgetLifecycle(t *testing.T) {
	router := testRouter(t, "")

	key := "2025_800000"
	rec, body := doJSON(t, router, http.MethodPut, "/api/v1/budgets/"+key,
		`{"amounts":{"LIN":45000,"JPH":38000}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 83000.0, body["total"])

	rec, body = doJSON(t, router, http.MethodGet, "/api/v1/budgets/"+key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	amounts := body["amounts"].(map[string]any)
	assert.Equal(t, 45000.0, amounts["LIN"])

	rec, body = doJSON(t, router, http.MethodPut, "/api/v1/budgets/"+key+"/stores/LIN", `{"amount":50000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 88000.0, body["total"])

	rec, body = doJSON(t, router, http.MethodGet, "/api/v1/budgets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{key}, body["keys"])

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/v1/budgets/"+key, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, body = doJSON(t, router, http.MethodGet, "/api/v1/budgets/"+key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["amounts"])
}

func TestBudgetRejectsUnknownStore(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodPut, "/api/v1/budgets/2025_800000",
		`{"amounts":{"XXX":1000}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestBudgetTemplateDefaultsToRetailStores(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodPost, "/api/v1/budgets/2025_800000/template",
		`{"amount":40000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	amounts := body["amounts"].(map[string]any)
	assert.Len(t, amounts, 2)
	assert.Equal(t, 40000.0, amounts["LIN"])
	assert.NotContains(t, amounts, stores.Overhead)
}

func TestBudgetVarianceTracksCapexActuals(t *testing.T) {
	router := testRouter(t, "")

	key := budget.Key(2025, []string{"037000"})
	rec, _ := doJSON(t, router, http.MethodPut, "/api/v1/budgets/"+key,
		`{"amounts":{"LIN":45000}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/reports/budget-variance?years=2025", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, key, data["key"])
	assert.Equal(t, float64(2025), data["year"])
	assert.Equal(t, "saved", data["budgetSource"])

	rows := data["variance"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "LIN", row["store"])
	assert.EqualValues(t, 45000, row["budget"])

	// The demo snapshot posts capex against LIN, so the actual spend is
	// non-zero and the variance differs from the budget.
	actual := row["actual"].(float64)
	assert.Greater(t, actual, 0.0)
	assert.InDelta(t, 45000-actual, row["variance"].(float64), 0.01)
}

func TestBudgetVarianceFallsBackToDemoBudgets(t *testing.T) {
	router := testRouter(t, "")

	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/reports/budget-variance?years=2025", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, budget.Key(2025, []string{"037000"}), data["key"])
	assert.Equal(t, "demo", data["budgetSource"])

	rows := data["variance"].([]any)
	require.NotEmpty(t, rows)
	seen := make(map[string]bool)
	for _, r := range rows {
		row := r.(map[string]any)
		seen[row["store"].(string)] = true
		assert.Greater(t, row["budget"].(float64), 0.0)
	}
	assert.True(t, seen["LIN"])
	assert.True(t, seen["JPH"])
	assert.True(t, seen[stores.Overhead])
}

func TestDataSources(t *testing.T) {
	router := testRouter(t, "")
	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/datasources", "")
	require.Equal(t, http.StatusOK, rec.Code)

	sources := body["sources"].(map[string]any)
	for _, section := range []string{"revenue", "costs", "capex", "customers", "labor", "inventory", "impact"} {
		assert.Equal(t, "demo", sources[section], section)
	}
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	router := testRouter(t, "test-secret")

	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/stores", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	// Health stays open.
	rec, _ = doJSON(t, router, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := middleware.NewTokenValidator("test-secret").Issue("dashboard", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAuthRejectsForeignSignature(t *testing.T) {
	router := testRouter(t, "test-secret")

	token, err := middleware.NewTokenValidator("other-secret").Issue("dashboard", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
