// Package nmbrs is the client for the Visma Nmbrs payroll platform. It
// pulls the current employee, department, schedule and salary state and
// turns it into the per-store labor figures the KPI layer consumes.
package nmbrs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ledgerscope/internal/core/apperror"
	"ledgerscope/pkg/logger"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultFullTimeHours = 40.0
	defaultBurden        = 0.30
)

// Config holds connection and payroll-model settings.
type Config struct {
	BaseURL   string
	Username  string
	Token     string
	CompanyID int64

	// FullTimeHours is the weekly hours of a 1.0 FTE contract.
	FullTimeHours float64

	// EmployerBurden is the social-charges markup over gross salary.
	EmployerBurden float64

	// DepartmentToStore maps payroll department or cost-center names to
	// store codes.
	DepartmentToStore map[string]string

	Timeout time.Duration
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.Username != "" && c.Token != ""
}

func (c Config) fullTimeHours() float64 {
	if c.FullTimeHours > 0 {
		return c.FullTimeHours
	}
	return defaultFullTimeHours
}

func (c Config) employerBurden() float64 {
	if c.EmployerBurden > 0 {
		return c.EmployerBurden
	}
	return defaultBurden
}

// Company is one payroll administration.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Employee is the flattened current state of one employee.
type Employee struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Department   string  `json:"department"`
	CostCenter   string  `json:"costCenter"`
	JobTitle     string  `json:"jobTitle"`
	StartDate    string  `json:"startDate"`
	HoursPerWeek float64 `json:"hoursPerWeek"`
	GrossSalary  float64 `json:"grossSalaryMonth"`
}

// API is the payroll surface the labor builder needs. The HTTP client
// implements it; tests substitute a fake.
type API interface {
	Companies(ctx context.Context) ([]Company, error)
	Employees(ctx context.Context, companyID int64) ([]Employee, error)
}

// Client talks to the payroll gateway over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a client. No network call happens until first use.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
}

// Configured reports whether the client has credentials to work with.
func (c *Client) Configured() bool { return c.cfg.Configured() }

// CompanyID is the configured payroll administration.
func (c *Client) CompanyID() int64 { return c.cfg.CompanyID }

func (c *Client) get(ctx context.Context, path string, out any) error {
	if !c.cfg.Configured() {
		return apperror.NewConfig("nmbrs credentials are not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Nmbrs-Username", c.cfg.Username)
	req.Header.Set("X-Nmbrs-Token", c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.NewRemoteUnavailable("nmbrs", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return apperror.NewUnauthorized("nmbrs rejected the configured credentials")
	}
	if resp.StatusCode != http.StatusOK {
		return apperror.NewRemoteUnavailable("nmbrs", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.NewRemoteUnavailable("nmbrs", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperror.NewRemoteUnavailable("nmbrs", fmt.Errorf("decode %s response: %w", path, err))
	}
	return nil
}

// Companies lists the payroll administrations visible to the account.
func (c *Client) Companies(ctx context.Context) ([]Company, error) {
	var companies []Company
	if err := c.get(ctx, "/companies", &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// Employees lists the current employees of one administration with
// department, schedule and salary state flattened in.
func (c *Client) Employees(ctx context.Context, companyID int64) ([]Employee, error) {
	if companyID == 0 {
		return nil, apperror.NewConfig("nmbrs company id is not configured")
	}
	var employees []Employee
	if err := c.get(ctx, fmt.Sprintf("/companies/%d/employees", companyID), &employees); err != nil {
		return nil, err
	}
	logger.Debug(ctx, "fetched payroll employees", "company_id", companyID, "count", len(employees))
	return employees, nil
}

// Status is the connection check result served to operators.
type Status struct {
	Connected     bool   `json:"connected"`
	CompanyName   string `json:"companyName,omitempty"`
	EmployeeCount int    `json:"employeeCount"`
	Error         string `json:"error,omitempty"`
}

// CheckConnection verifies credentials and the configured company.
func (c *Client) CheckConnection(ctx context.Context) Status {
	if !c.cfg.Configured() {
		return Status{Error: "nmbrs credentials not configured"}
	}

	companies, err := c.Companies(ctx)
	if err != nil {
		return Status{Error: err.Error()}
	}

	var name string
	for _, company := range companies {
		if company.ID == c.cfg.CompanyID {
			name = company.Name
			break
		}
	}

	employees, err := c.Employees(ctx, c.cfg.CompanyID)
	if err != nil {
		return Status{Error: err.Error()}
	}
	return Status{Connected: true, CompanyName: name, EmployeeCount: len(employees)}
}
