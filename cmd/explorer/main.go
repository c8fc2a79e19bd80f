// Package main provides the ledger explorer CLI, the operator tool for
// reviewing how the configured account map covers the live chart of
// accounts.
// Usage: explorer accounts
//        explorer unmapped
//        explorer lines --year 2025
//        explorer check
//        explorer token --subject dashboard
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"ledgerscope/internal/config"
	"ledgerscope/internal/domain/accountmap"
	"ledgerscope/internal/infrastructure/http/v1/middleware"
	"ledgerscope/internal/infrastructure/nmbrs"
	"ledgerscope/internal/infrastructure/odoo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(envOr("CONFIG_FILE", "configs/config.yaml"))
	if err != nil {
		fatal("load configuration: %v", err)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "accounts":
		listAccounts(ctx, cfg, false)
	case "unmapped":
		listAccounts(ctx, cfg, true)
	case "lines":
		listLines(ctx, cfg)
	case "check":
		checkBackends(ctx, cfg)
	case "token":
		issueToken(cfg)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Ledgerscope Explorer CLI

Usage:
  explorer <command> [options]

Commands:
  accounts  List the chart of accounts with its classification
  unmapped  List accounts no pattern in the account map matches
  lines     Summarize recent journal lines per account code
  check     Verify connectivity to the configured backends
  token     Issue an API bearer token (requires JWT_SECRET)
  help      Show this help

Environment:
  CONFIG_FILE    Path to the YAML configuration (default configs/config.yaml)
  ODOO_USERNAME, ODOO_PASSWORD, NMBRS_USERNAME, NMBRS_TOKEN, JWT_SECRET`)
}

func mustOdoo(cfg *config.Config) *odoo.Client {
	oc := cfg.OdooConfig()
	if !oc.Configured() {
		fatal("odoo is not configured; set ODOO_URL, ODOO_DB, ODOO_USERNAME, ODOO_PASSWORD")
	}
	return odoo.NewClient(oc)
}

func listAccounts(ctx context.Context, cfg *config.Config, unmappedOnly bool) {
	client := mustOdoo(cfg)

	accounts, err := client.FetchAccounts(ctx)
	if err != nil {
		fatal("fetch accounts: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tSECTION\tCATEGORY")

	total, unmapped := 0, 0
	for _, a := range accounts {
		total++
		match, ok := cfg.AccountMap.Classify(string(a.Code), "")
		if !ok {
			unmapped++
		}
		if unmappedOnly && ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Code, a.Name, match.Section, match.Category)
	}
	w.Flush()
	fmt.Printf("\n%d accounts, %d unmapped\n", total, unmapped)
}

func listLines(ctx context.Context, cfg *config.Config) {
	fs := flag.NewFlagSet("lines", flag.ExitOnError)
	year := fs.Int("year", time.Now().Year(), "fiscal year to summarize")
	section := fs.String("section", "", "limit to one section (revenue, cogs, opex, capex)")
	_ = fs.Parse(os.Args[2:])

	client := mustOdoo(cfg)

	sections := accountmap.Sections()
	if *section != "" {
		sections = []accountmap.Section{accountmap.Section(*section)}
	}

	var codes []string
	for _, sec := range sections {
		codes = append(codes, cfg.AccountMap.Codes(sec)...)
	}
	if len(codes) == 0 {
		fatal("no account codes configured for the requested section")
	}

	lines, err := client.FetchLines(ctx, codes, []int{*year})
	if err != nil {
		fatal("fetch lines: %v", err)
	}

	type stat struct {
		count           int
		debit, credit   float64
		section         accountmap.Section
		category, label string
	}
	byCode := map[string]*stat{}
	for _, l := range lines {
		code := l.AccountID.Code()
		s := byCode[code]
		if s == nil {
			s = &stat{}
			if match, ok := cfg.AccountMap.Classify(code, ""); ok {
				s.section = match.Section
				s.category = match.Category
				s.label = match.Entry.Label
			}
			byCode[code] = s
		}
		s.count++
		s.debit += l.Debit
		s.credit += l.Credit
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tLINES\tDEBIT\tCREDIT\tSECTION\tCATEGORY")
	for code, s := range byCode {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%s\t%s\n", code, s.count, s.debit, s.credit, s.section, s.category)
	}
	w.Flush()
	fmt.Printf("\n%d journal lines across %d account codes in %d\n", len(lines), len(byCode), *year)
}

func checkBackends(ctx context.Context, cfg *config.Config) {
	oc := cfg.OdooConfig()
	if oc.Configured() {
		client := odoo.NewClient(oc)
		if _, err := client.Authenticate(ctx); err != nil {
			fmt.Printf("odoo: FAILED (%v)\n", err)
		} else {
			fmt.Printf("odoo: ok (%s / %s)\n", oc.URL, oc.Database)
		}
	} else {
		fmt.Println("odoo: not configured")
	}

	nc := cfg.NmbrsConfig()
	if nc.Configured() {
		status := nmbrs.NewClient(nc).CheckConnection(ctx)
		if status.Connected {
			fmt.Printf("nmbrs: ok (%d employees)\n", status.EmployeeCount)
		} else {
			fmt.Printf("nmbrs: FAILED (%s)\n", status.Error)
		}
	} else {
		fmt.Println("nmbrs: not configured")
	}
}

func issueToken(cfg *config.Config) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("subject", "explorer", "token subject")
	ttl := fs.String("ttl", "720h", "token lifetime")
	_ = fs.Parse(os.Args[2:])

	if cfg.JWTSecret == "" {
		fatal("JWT_SECRET is not set")
	}
	lifetime, err := time.ParseDuration(*ttl)
	if err != nil {
		fatal("invalid ttl: %v", err)
	}

	token, err := middleware.NewTokenValidator(cfg.JWTSecret).Issue(*subject, lifetime)
	if err != nil {
		fatal("issue token: %v", err)
	}
	fmt.Println(token)
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
