// Package stores holds the immutable store reference data and the
// cost-center attribution rules.
package stores

import (
	"fmt"
	"sort"
	"strconv"
)

// Overhead is the pseudo-store that collects postings with no store
// attribution (central office, shared costs).
const Overhead = "OOH"

// Store is one retail location.
type Store struct {
	Code       string  `yaml:"code" json:"code"`
	Name       string  `yaml:"name" json:"name"`
	Address    string  `yaml:"address,omitempty" json:"address,omitempty"`
	City       string  `yaml:"city,omitempty" json:"city,omitempty"`
	Lat        float64 `yaml:"lat,omitempty" json:"lat,omitempty"`
	Lon        float64 `yaml:"lon,omitempty" json:"lon,omitempty"`
	Sqm        int     `yaml:"sqm,omitempty" json:"sqm,omitempty"`
	Opened     string  `yaml:"opened,omitempty" json:"opened,omitempty"` // YYYY-MM
	AnalyticID int64   `yaml:"analytic_id,omitempty" json:"analyticId,omitempty"`
}

// Registry provides lookups over the configured store set.
type Registry struct {
	byCode     map[string]Store
	byAnalytic map[int64]string
	order      []string
}

// NewRegistry builds a registry from configured stores. Duplicate store
// codes or duplicate analytic IDs are configuration bugs.
func NewRegistry(list []Store) (*Registry, error) {
	r := &Registry{
		byCode:     make(map[string]Store, len(list)),
		byAnalytic: make(map[int64]string, len(list)),
	}
	for _, s := range list {
		if s.Code == "" {
			return nil, fmt.Errorf("stores: entry %q has no code", s.Name)
		}
		if _, ok := r.byCode[s.Code]; ok {
			return nil, fmt.Errorf("stores: duplicate store code %q", s.Code)
		}
		r.byCode[s.Code] = s
		r.order = append(r.order, s.Code)
		if s.AnalyticID != 0 {
			if prev, ok := r.byAnalytic[s.AnalyticID]; ok {
				return nil, fmt.Errorf("stores: analytic id %d mapped to both %q and %q", s.AnalyticID, prev, s.Code)
			}
			r.byAnalytic[s.AnalyticID] = s.Code
		}
	}
	return r, nil
}

// Get returns a store by code.
func (r *Registry) Get(code string) (Store, bool) {
	s, ok := r.byCode[code]
	return s, ok
}

// Name returns the display name for a store code, or the code itself when
// the store is unknown.
func (r *Registry) Name(code string) string {
	if s, ok := r.byCode[code]; ok {
		return s.Name
	}
	return code
}

// Sqm returns the floor area for a store code (0 when unknown or overhead).
func (r *Registry) Sqm(code string) int {
	if s, ok := r.byCode[code]; ok {
		return s.Sqm
	}
	return 0
}

// All returns every store in configuration order.
func (r *Registry) All() []Store {
	out := make([]Store, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.byCode[code])
	}
	return out
}

// Codes returns every store code in configuration order.
func (r *Registry) Codes() []string {
	return append([]string(nil), r.order...)
}

// Retail returns store codes excluding the overhead pseudo-store.
func (r *Registry) Retail() []string {
	var out []string
	for _, code := range r.order {
		if code != Overhead {
			out = append(out, code)
		}
	}
	return out
}

// Resolve attributes a ledger line to a store from its analytic
// distribution (cost-center-id -> percentage share). The first key that
// maps to a known store wins and the percentage weights are ignored; a
// split posting collapses onto a single store. That first-match behavior
// is load-bearing for parity with the upstream reporting and must not be
// changed without coordinating with the finance team.
func (r *Registry) Resolve(distribution map[string]float64) string {
	if len(distribution) == 0 {
		return Overhead
	}
	// Map iteration order is random; walk keys in sorted order so the
	// "first" match is at least stable between runs.
	keys := make([]string, 0, len(distribution))
	for k := range distribution {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		if code, ok := r.byAnalytic[id]; ok {
			return code
		}
	}
	return Overhead
}
