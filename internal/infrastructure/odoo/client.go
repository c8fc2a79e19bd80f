// Package odoo is the JSON-RPC client for the accounting backend. It
// covers the handful of models the analytics layer needs: journal items,
// journal entries, chart of accounts, analytic accounts and attachments.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ledgerscope/internal/core/apperror"
	"ledgerscope/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// Config holds connection settings for one Odoo database.
type Config struct {
	URL        string
	Database   string
	Username   string
	Password   string
	CompanyID  int64
	MaxRecords int
	Timeout    time.Duration
}

// Configured reports whether credentials are present. An unconfigured
// client is a valid state: callers fall back to demo data.
func (c Config) Configured() bool {
	return c.URL != "" && c.Database != "" && c.Username != "" && c.Password != ""
}

// Client talks to Odoo's /jsonrpc endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	tracer     trace.Tracer

	mu  sync.Mutex
	uid int64

	reqID atomic.Int64
}

// NewClient builds a client. No network call happens until the first
// request.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("ledgerscope/odoo"),
	}
}

// MaxRecords is the search_read limit to apply.
func (c *Client) MaxRecords() int {
	if c.cfg.MaxRecords <= 0 {
		return 10000
	}
	return c.cfg.MaxRecords
}

// CompanyID is the configured company filter.
func (c *Client) CompanyID() int64 { return c.cfg.CompanyID }

// Configured reports whether the client has credentials to work with.
func (c *Client) Configured() bool { return c.cfg.Configured() }

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo rpc: %s: %s", e.Message, e.Data.Message)
	}
	return fmt.Sprintf("odoo rpc: %s", e.Message)
}

// call performs one JSON-RPC round trip against the given service.
func (c *Client) call(ctx context.Context, service, method string, args []any) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "odoo.call",
		trace.WithAttributes(
			attribute.String("rpc.service", service),
			attribute.String("rpc.method", method),
		))
	defer span.End()

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      c.reqID.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.NewRemoteUnavailable("odoo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		span.RecordError(err)
		return nil, apperror.NewRemoteUnavailable("odoo", err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.NewRemoteUnavailable("odoo", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, apperror.NewRemoteUnavailable("odoo", fmt.Errorf("decode rpc response: %w", err))
	}
	if rpcResp.Error != nil {
		span.RecordError(rpcResp.Error)
		return nil, apperror.NewRemoteUnavailable("odoo", rpcResp.Error)
	}
	return rpcResp.Result, nil
}

// Authenticate logs in and caches the user id for subsequent calls.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return c.uid, nil
	}
	if !c.cfg.Configured() {
		return 0, apperror.NewConfig("odoo credentials are not configured")
	}

	result, err := c.call(ctx, "common", "authenticate",
		[]any{c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]any{}})
	if err != nil {
		return 0, err
	}

	// Odoo answers false (not an error) on bad credentials.
	var uid int64
	if err := json.Unmarshal(result, &uid); err != nil || uid == 0 {
		return 0, apperror.NewUnauthorized("odoo rejected the configured credentials")
	}

	c.uid = uid
	logger.Info(ctx, "authenticated with odoo", "db", c.cfg.Database, "uid", uid)
	return uid, nil
}

// ExecuteKW runs one model method through the object service.
func (c *Client) ExecuteKW(ctx context.Context, model, method string, args []any, kw map[string]any) (json.RawMessage, error) {
	uid, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if kw == nil {
		kw = map[string]any{}
	}
	return c.call(ctx, "object", "execute_kw",
		[]any{c.cfg.Database, uid, c.cfg.Password, model, method, args, kw})
}

// SearchRead fetches records of a model matching a domain filter and
// decodes them into out (a pointer to a slice of record structs).
func (c *Client) SearchRead(ctx context.Context, model string, domain []any, fields []string, limit int, out any) error {
	kw := map[string]any{"fields": fields}
	if limit > 0 {
		kw["limit"] = limit
	}
	result, err := c.ExecuteKW(ctx, model, "search_read", []any{domain}, kw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result, out); err != nil {
		return apperror.NewRemoteUnavailable("odoo", fmt.Errorf("decode %s records: %w", model, err))
	}
	return nil
}
