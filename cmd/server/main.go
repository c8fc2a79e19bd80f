// Package main is the entry point for the ledgerscope API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledgerscope/internal/config"
	"ledgerscope/internal/demo"
	"ledgerscope/internal/domain/budget"
	"ledgerscope/internal/domain/dataset"
	"ledgerscope/internal/domain/kpi"
	"ledgerscope/internal/infrastructure/cache"
	v1 "ledgerscope/internal/infrastructure/http/v1"
	"ledgerscope/internal/infrastructure/nmbrs"
	"ledgerscope/internal/infrastructure/odoo"
	"ledgerscope/internal/infrastructure/storage/postgres"
	"ledgerscope/pkg/logger"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(getEnv("CONFIG_FILE", "configs/config.yaml"))
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.AppEnv == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting ledgerscope server")

	registry, err := cfg.Registry()
	if err != nil {
		log.Fatalw("invalid store registry", "error", err)
	}

	// --- Remote backends ---
	var ledgerSrc dataset.LedgerSource
	var odooClient *odoo.Client
	odooCfg := cfg.OdooConfig()
	if odooCfg.Configured() {
		odooClient = odoo.NewClient(odooCfg)
		ledgerSrc = odooClient
		log.Infow("odoo backend configured", "url", odooCfg.URL, "database", odooCfg.Database)
	} else {
		log.Info("odoo backend not configured, ledger sections serve demo data")
	}

	var laborSrc dataset.LaborSource
	nmbrsCfg := cfg.NmbrsConfig()
	if nmbrsCfg.Configured() {
		laborSrc = nmbrs.NewLaborBuilder(nmbrs.NewClient(nmbrsCfg), nmbrsCfg)
		log.Infow("nmbrs backend configured", "url", nmbrsCfg.BaseURL)
	} else {
		log.Info("nmbrs backend not configured, labor section serves demo data")
	}

	// --- Budget store ---
	var budgets budget.Store
	var pool *postgres.Pool
	if cfg.DatabaseURL != "" {
		pool, err = postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()

		repo := postgres.NewBudgetRepo(pool)
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalw("failed to migrate budgets table", "error", err)
		}
		budgets = repo
		log.Info("budget store: postgres")
	} else {
		budgets = budget.NewMemoryStore()
		log.Info("budget store: in-memory (set DATABASE_URL to persist budgets)")
	}

	// --- Dataset loader and KPI engine ---
	gen := demo.NewGenerator(registry, time.Now())
	snapshots := cache.NewTTL[*dataset.Snapshot](cfg.Cache.TTL.Std(), cfg.Cache.MaxEntries)
	loader := dataset.NewLoader(cfg.AccountMap, registry, ledgerSrc, laborSrc, gen, cfg.Investments, snapshots)
	engine := kpi.NewEngine(registry, cfg.Targets, cfg.Investments)

	var pdfs *odoo.PDFStore
	if odooClient != nil {
		pdfs, err = odoo.NewPDFStore(odooClient, cache.NewTTL[[]byte](cfg.Cache.TTL.Std(), 64))
		if err != nil {
			log.Fatalw("failed to initialize pdf store", "error", err)
		}
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, API runs without authentication")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:          log,
		Loader:          loader,
		Engine:          engine,
		Budgets:         budgets,
		Registry:        registry,
		Demo:            gen,
		AccountMap:      cfg.AccountMap,
		Odoo:            odooClient,
		PDFs:            pdfs,
		Pool:            pool,
		DefaultYears:    cfg.Years,
		JWTSecret:       cfg.JWTSecret,
		NmbrsConfigured: nmbrsCfg.Configured(),
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port, "years", cfg.Years)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
