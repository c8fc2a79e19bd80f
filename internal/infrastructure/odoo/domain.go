package odoo

import "fmt"

// Odoo domain filters are prefix-notation expression lists: an '|' or '&'
// operator precedes its two operands, and conditions are [field, op,
// value] triples. The builders below produce the shapes the ledger
// queries need.

func condition(field, op string, value any) []any {
	return []any{field, op, value}
}

// AccountCodesDomain matches lines whose account code starts with any of
// the given patterns. Patterns already carrying a trailing wildcard are
// passed through; exact codes get one appended for the =like operator.
func AccountCodesDomain(codes []string) []any {
	if len(codes) == 0 {
		return nil
	}
	var domain []any
	for i := 1; i < len(codes); i++ {
		domain = append(domain, "|")
	}
	for _, code := range codes {
		pattern := code
		if len(pattern) == 0 || pattern[len(pattern)-1] != '%' {
			pattern += "%"
		}
		domain = append(domain, condition("account_id.code", "=like", pattern))
	}
	return domain
}

// YearsDomain matches lines dated within any of the given calendar years.
func YearsDomain(years []int) []any {
	if len(years) == 0 {
		return nil
	}
	if len(years) == 1 {
		return []any{
			condition("date", ">=", fmt.Sprintf("%d-01-01", years[0])),
			condition("date", "<=", fmt.Sprintf("%d-12-31", years[0])),
		}
	}
	var domain []any
	for i := 1; i < len(years); i++ {
		domain = append(domain, "|")
	}
	for _, y := range years {
		domain = append(domain, "&",
			condition("date", ">=", fmt.Sprintf("%d-01-01", y)),
			condition("date", "<=", fmt.Sprintf("%d-12-31", y)),
		)
	}
	return domain
}

// LinesDomain is the full filter for posted journal items of one company
// restricted to an account code set and year set.
func LinesDomain(companyID int64, codes []string, years []int) []any {
	domain := []any{
		condition("company_id", "=", companyID),
		condition("parent_state", "=", "posted"),
	}
	domain = append(domain, YearsDomain(years)...)
	domain = append(domain, AccountCodesDomain(codes)...)
	return domain
}
