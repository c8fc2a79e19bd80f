// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"ledgerscope/internal/demo"
	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/domain/budget"
	"ledgerscope/internal/domain/dataset"
	"ledgerscope/internal/domain/kpi"
	"ledgerscope/internal/domain/stores"
	"ledgerscope/internal/infrastructure/http/v1/handlers"
	"ledgerscope/internal/infrastructure/http/v1/middleware"
	"ledgerscope/internal/infrastructure/odoo"
	"ledgerscope/internal/infrastructure/storage/postgres"
	"ledgerscope/pkg/logger"
)

// RouterConfig holds everything the API surface needs.
type RouterConfig struct {
	Logger *logger.Logger

	Loader   *dataset.Loader
	Engine   *kpi.Engine
	Budgets  budget.Store
	Registry *stores.Registry

	// Demo supplies generated budget defaults for the variance report
	// when no budget has been saved.
	Demo *demo.Generator

	AccountMap accountmap.Map

	// Odoo and PDFs are nil when no accounting backend is configured;
	// the explorer and drill-down endpoints then return a config error
	// while reports keep serving demo data.
	Odoo *odoo.Client
	PDFs *odoo.PDFStore

	// Pool is nil when budgets run in memory.
	Pool *postgres.Pool

	// DefaultYears is the year selection used when the caller passes
	// none.
	DefaultYears []int

	// JWTSecret enables bearer auth on /api/v1 when non-empty.
	JWTSecret string

	NmbrsConfigured bool
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, then tracing so the logger and
	// error handler see trace IDs.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	odooConfigured := cfg.Odoo != nil && cfg.Odoo.Configured()

	healthHandler := handlers.NewHealthHandler(cfg.Pool, odooConfigured, cfg.NmbrsConfigured)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")
	if cfg.JWTSecret != "" {
		api.Use(middleware.Auth(middleware.NewTokenValidator(cfg.JWTSecret)))
	}

	reportsHandler := handlers.NewReportsHandler(cfg.Loader, cfg.Engine, cfg.Budgets, cfg.Demo, cfg.AccountMap, cfg.DefaultYears)
	reports := api.Group("/reports")
	{
		reports.GET("/executive-summary", reportsHandler.ExecutiveSummary)
		reports.GET("/profitability", reportsHandler.Profitability)
		reports.GET("/profitability-by-store", reportsHandler.ProfitabilityByStore)
		reports.GET("/roi", reportsHandler.ROI)
		reports.GET("/break-even", reportsHandler.BreakEven)
		reports.GET("/revenue", reportsHandler.Revenue)
		reports.GET("/revenue-by-period", reportsHandler.RevenueByPeriod)
		reports.GET("/cost-structure", reportsHandler.CostStructure)
		reports.GET("/customers", reportsHandler.Customers)
		reports.GET("/labor", reportsHandler.Labor)
		reports.GET("/inventory", reportsHandler.Inventory)
		reports.GET("/cash-flow", reportsHandler.CashFlow)
		reports.GET("/impact", reportsHandler.Impact)
		reports.GET("/budget-variance", reportsHandler.BudgetVariance)
	}

	accountsHandler := handlers.NewAccountsHandler(cfg.Odoo, cfg.AccountMap)
	api.GET("/accounts", accountsHandler.List)
	api.GET("/accounts/unmapped", accountsHandler.Unmapped)

	storesHandler := handlers.NewStoresHandler(cfg.Registry)
	api.GET("/stores", storesHandler.List)

	budgetsHandler := handlers.NewBudgetsHandler(cfg.Budgets, cfg.Registry)
	budgets := api.Group("/budgets")
	{
		budgets.GET("", budgetsHandler.ListKeys)
		budgets.GET("/:key", budgetsHandler.Get)
		budgets.PUT("/:key", budgetsHandler.Set)
		budgets.PUT("/:key/stores/:store", budgetsHandler.SetStore)
		budgets.POST("/:key/template", budgetsHandler.Template)
		budgets.DELETE("/:key", budgetsHandler.Delete)
	}

	movesHandler := handlers.NewMovesHandler(cfg.Odoo, cfg.PDFs)
	api.GET("/moves/:id", movesHandler.Get)
	api.GET("/moves/:id/pdf", movesHandler.PDF)

	dataSourcesHandler := handlers.NewDataSourcesHandler(cfg.Loader, cfg.DefaultYears)
	api.GET("/datasources", dataSourcesHandler.Get)
	api.POST("/datasources/refresh", dataSourcesHandler.Refresh)

	return router
}
