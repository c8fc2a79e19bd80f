// Package accountmap resolves raw ledger account codes to reporting
// categories. The map is the single source of truth connecting a chart of
// accounts to dashboard sections; it is loaded from configuration so a new
// ledger layout can be onboarded without a code change.
package accountmap

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Section identifies a reporting section of the account map.
type Section string

const (
	SectionRevenue Section = "revenue"
	SectionCOGS    Section = "cogs"
	SectionOpex    Section = "opex"
	SectionCapex   Section = "capex"
)

// Sections lists all sections in reporting order.
func Sections() []Section {
	return []Section{SectionRevenue, SectionCOGS, SectionOpex, SectionCapex}
}

// Sign determines how a ledger balance converts into a reporting-positive amount.
type Sign string

const (
	// SignCredit: amount = credit - debit (positive means revenue).
	SignCredit Sign = "credit"
	// SignDebit: amount = debit - credit (positive means an expense).
	SignDebit Sign = "debit"
	// SignAbs: amount = |balance|, falling back to |debit - credit| when
	// balance is zero. Used for asset/CAPEX entries.
	SignAbs Sign = "abs"
)

// Entry is one configured category within a section.
type Entry struct {
	// Codes holds account code patterns. A trailing '%' marks a prefix
	// pattern (the ledger's =like convention); anything else is an exact code.
	Codes []string `yaml:"codes" json:"codes"`

	// Label is the display name.
	Label string `yaml:"label" json:"label"`

	// Sign is the balance interpretation for this category.
	Sign Sign `yaml:"sign" json:"sign"`

	// Group is an optional roll-up tag (e.g. "cogs", "opex", "capex").
	Group string `yaml:"group,omitempty" json:"group,omitempty"`

	// IsFixed marks fixed (vs variable) cost categories for break-even math.
	IsFixed bool `yaml:"is_fixed,omitempty" json:"isFixed,omitempty"`
}

// Normalize converts raw ledger line figures into a reporting-positive
// amount under this entry's sign convention. Callers drop results <= 0:
// a reversing entry must not show up as negative revenue or expense, and
// abs categories should only surface genuine postings.
func (e Entry) Normalize(debit, credit, balance float64) float64 {
	switch e.Sign {
	case SignCredit:
		return credit - debit
	case SignDebit:
		return debit - credit
	default: // SignAbs
		if balance != 0 {
			return math.Abs(balance)
		}
		return math.Abs(debit - credit)
	}
}

// Map is the full section -> category -> entry configuration.
type Map map[Section]map[string]Entry

// Match is a resolved classification.
type Match struct {
	Section  Section
	Category string
	Entry    Entry
}

// Classify resolves a raw account code to its configured category.
// When section is non-empty only that section is searched. An exact match
// wins outright; otherwise the longest matching prefix pattern wins.
// The second return value is false when no pattern matches.
func (m Map) Classify(rawCode string, section Section) (Match, bool) {
	sections := []Section{section}
	if section == "" {
		sections = Sections()
	}

	var best Match
	bestLen := -1

	for _, sec := range sections {
		for category, entry := range m[sec] {
			for _, pattern := range entry.Codes {
				if rawCode == pattern {
					return Match{Section: sec, Category: category, Entry: entry}, true
				}
				prefix := strings.TrimSuffix(pattern, "%")
				if prefix != pattern && strings.HasPrefix(rawCode, prefix) && len(prefix) > bestLen {
					best = Match{Section: sec, Category: category, Entry: entry}
					bestLen = len(prefix)
				}
			}
		}
	}

	if bestLen < 0 {
		return Match{}, false
	}
	return best, true
}

// Codes returns all code patterns configured for a section.
func (m Map) Codes(section Section) []string {
	var codes []string
	for _, category := range sortedKeys(m[section]) {
		codes = append(codes, m[section][category].Codes...)
	}
	return codes
}

// Labels returns a flat code-pattern -> label mapping for a section.
func (m Map) Labels(section Section) map[string]string {
	labels := make(map[string]string)
	for _, entry := range m[section] {
		for _, code := range entry.Codes {
			labels[code] = entry.Label
		}
	}
	return labels
}

// FixedCategories returns the category keys tagged is_fixed within a section.
func (m Map) FixedCategories(section Section) map[string]bool {
	fixed := make(map[string]bool)
	for category, entry := range m[section] {
		if entry.IsFixed {
			fixed[category] = true
		}
	}
	return fixed
}

// Validate checks the map for configuration bugs. A bad sign or an entry
// without codes is a config error that must fail startup, not a data
// condition to fall back from.
func (m Map) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("account map is empty")
	}
	for section, entries := range m {
		if !isKnownSection(section) {
			return fmt.Errorf("account map: unknown section %q", section)
		}
		for category, entry := range entries {
			if len(entry.Codes) == 0 {
				return fmt.Errorf("account map: %s/%s has no code patterns", section, category)
			}
			switch entry.Sign {
			case SignCredit, SignDebit, SignAbs:
			default:
				return fmt.Errorf("account map: %s/%s has invalid sign %q", section, category, entry.Sign)
			}
			for _, code := range entry.Codes {
				if strings.TrimSuffix(code, "%") == "" {
					return fmt.Errorf("account map: %s/%s has empty code pattern", section, category)
				}
			}
		}
	}
	return nil
}

func isKnownSection(s Section) bool {
	switch s {
	case SectionRevenue, SectionCOGS, SectionOpex, SectionCapex:
		return true
	}
	return false
}

func sortedKeys(m map[string]Entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic order keeps remote query domains and tests stable.
	sort.Strings(keys)
	return keys
}
