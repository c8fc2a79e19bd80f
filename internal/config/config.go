// Package config loads the application configuration.
//
// Structure (store registry, account map, targets, investments) lives in
// a YAML file. Credentials and connection strings come from the
// environment so the YAML file can be committed.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"ledgerscope/internal/core/apperror"
	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/domain/kpi"
	"ledgerscope/internal/domain/stores"
	"ledgerscope/internal/infrastructure/nmbrs"
	"ledgerscope/internal/infrastructure/odoo"
)

// Duration wraps time.Duration so YAML values can use Go duration
// syntax ("30s", "5m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Server holds HTTP server settings.
type Server struct {
	Port            string   `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Cache holds snapshot cache settings.
type Cache struct {
	TTL        Duration `yaml:"ttl"`
	MaxEntries int      `yaml:"max_entries"`
}

// Odoo holds the accounting backend connection. Credentials are
// env-only.
type Odoo struct {
	URL        string   `yaml:"url"`
	Database   string   `yaml:"database"`
	CompanyID  int64    `yaml:"company_id"`
	MaxRecords int      `yaml:"max_records"`
	Timeout    Duration `yaml:"timeout"`

	username string
	password string
}

// Nmbrs holds the payroll backend connection. Credentials are env-only.
type Nmbrs struct {
	BaseURL           string            `yaml:"base_url"`
	CompanyID         int64             `yaml:"company_id"`
	FullTimeHours     float64           `yaml:"full_time_hours"`
	EmployerBurden    float64           `yaml:"employer_burden"`
	DepartmentToStore map[string]string `yaml:"department_to_store"`
	Timeout           Duration          `yaml:"timeout"`

	username string
	token    string
}

// Config is the full application configuration.
type Config struct {
	Server Server `yaml:"server"`
	Cache  Cache  `yaml:"cache"`
	Odoo   Odoo   `yaml:"odoo"`
	Nmbrs  Nmbrs  `yaml:"nmbrs"`

	// Years are the fiscal years the snapshot covers.
	Years []int `yaml:"years"`

	Stores      []stores.Store            `yaml:"stores"`
	AccountMap  accountmap.Map            `yaml:"account_map"`
	Targets     kpi.Targets               `yaml:"targets"`
	Investments map[string]kpi.Investment `yaml:"investments"`

	// DatabaseURL enables the postgres budget store when set. Empty
	// means in-memory budgets.
	DatabaseURL string `yaml:"-"`

	JWTSecret string `yaml:"-"`
	LogLevel  string `yaml:"-"`
	AppEnv    string `yaml:"-"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.NewConfig(fmt.Sprintf("read config file %s: %v", path, err))
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperror.NewConfig(fmt.Sprintf("parse config file %s: %v", path, err))
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: Server{
			Port:            "8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Cache: Cache{
			TTL:        Duration(5 * time.Minute),
			MaxEntries: 16,
		},
		Odoo: Odoo{
			MaxRecords: 10000,
			Timeout:    Duration(30 * time.Second),
		},
		Nmbrs: Nmbrs{
			FullTimeHours:  40,
			EmployerBurden: 0.30,
			Timeout:        Duration(30 * time.Second),
		},
		Years:    []int{time.Now().Year() - 1, time.Now().Year()},
		LogLevel: "info",
		AppEnv:   "development",
	}
}

func (c *Config) applyEnv() {
	c.Odoo.URL = getEnv("ODOO_URL", c.Odoo.URL)
	c.Odoo.Database = getEnv("ODOO_DB", c.Odoo.Database)
	c.Odoo.username = os.Getenv("ODOO_USERNAME")
	c.Odoo.password = os.Getenv("ODOO_PASSWORD")
	if v := getEnvInt64("ODOO_COMPANY_ID", 0); v != 0 {
		c.Odoo.CompanyID = v
	}

	c.Nmbrs.BaseURL = getEnv("NMBRS_URL", c.Nmbrs.BaseURL)
	c.Nmbrs.username = os.Getenv("NMBRS_USERNAME")
	c.Nmbrs.token = os.Getenv("NMBRS_TOKEN")
	if v := getEnvInt64("NMBRS_COMPANY_ID", 0); v != 0 {
		c.Nmbrs.CompanyID = v
	}

	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.JWTSecret = os.Getenv("JWT_SECRET")
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.Server.Port = getEnv("APP_PORT", c.Server.Port)
}

func (c *Config) validate() error {
	if len(c.Stores) == 0 {
		return apperror.NewConfig("at least one store must be configured")
	}
	if len(c.Years) == 0 {
		return apperror.NewConfig("at least one fiscal year must be configured")
	}
	if err := c.AccountMap.Validate(); err != nil {
		return err
	}
	return nil
}

// OdooConfig converts the loaded settings into the client config.
func (c *Config) OdooConfig() odoo.Config {
	return odoo.Config{
		URL:        c.Odoo.URL,
		Database:   c.Odoo.Database,
		Username:   c.Odoo.username,
		Password:   c.Odoo.password,
		CompanyID:  c.Odoo.CompanyID,
		MaxRecords: c.Odoo.MaxRecords,
		Timeout:    c.Odoo.Timeout.Std(),
	}
}

// NmbrsConfig converts the loaded settings into the client config.
func (c *Config) NmbrsConfig() nmbrs.Config {
	return nmbrs.Config{
		BaseURL:           c.Nmbrs.BaseURL,
		Username:          c.Nmbrs.username,
		Token:             c.Nmbrs.token,
		CompanyID:         c.Nmbrs.CompanyID,
		FullTimeHours:     c.Nmbrs.FullTimeHours,
		EmployerBurden:    c.Nmbrs.EmployerBurden,
		DepartmentToStore: c.Nmbrs.DepartmentToStore,
		Timeout:           c.Nmbrs.Timeout.Std(),
	}
}

// Registry builds the store registry from the configured stores.
func (c *Config) Registry() (*stores.Registry, error) {
	return stores.NewRegistry(c.Stores)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}
