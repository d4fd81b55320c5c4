// Package mtr obtains the seven individual-income marginal tax rates the
// parameter store consumes. The real estimator is an external
// microsimulation; this package defines the adapter contract and a
// fixed-table fallback used when the estimator is not invoked.
package mtr

import (
	"fmt"

	"github.com/iwvelando/capcost/pkg/constants"
)

// Rates carries the population-weighted average marginal tax rates.
type Rates struct {
	TauPT  float64 // pass-through business income
	TauDiv float64 // dividends
	TauInt float64 // interest
	TauSCG float64 // short-term capital gains
	TauLCG float64 // long-term capital gains
	TauTD  float64 // tax-deferred retirement accounts
	TauH   float64 // home mortgage interest deduction offset
}

// RateFetcher produces the marginal rates for a year under a baseline policy
// and an optional individual-income reform.
type RateFetcher interface {
	Rates(year int, baseline, reform map[string]interface{}) (Rates, error)
}

// FixedTable is the estimator fallback: a year-indexed table of
// precomputed rates. Years between table entries resolve to the nearest
// preceding entry; years past the extrapolation horizon are an error.
type FixedTable struct {
	horizon int
	table   map[int]Rates
}

// NewFixedTable builds the default fallback table.
func NewFixedTable() *FixedTable {
	return &FixedTable{
		horizon: constants.TCLastYear,
		table: map[int]Rates{
			2013: {TauPT: 0.2052, TauDiv: 0.1806, TauInt: 0.2423, TauSCG: 0.2634, TauLCG: 0.1985, TauTD: 0.2153, TauH: 0.2020},
			2017: {TauPT: 0.2124, TauDiv: 0.1837, TauInt: 0.2497, TauSCG: 0.2661, TauLCG: 0.2014, TauTD: 0.2214, TauH: 0.2067},
			2018: {TauPT: 0.1896, TauDiv: 0.1788, TauInt: 0.2268, TauSCG: 0.2493, TauLCG: 0.1953, TauTD: 0.2041, TauH: 0.1852},
			2026: {TauPT: 0.2109, TauDiv: 0.1824, TauInt: 0.2455, TauSCG: 0.2627, TauLCG: 0.1998, TauTD: 0.2186, TauH: 0.2031},
		},
	}
}

// Rates implements RateFetcher. Baseline and reform policies are ignored by
// the fixed table; they exist so the estimator-backed implementation can
// satisfy the same contract.
func (f *FixedTable) Rates(year int, baseline, reform map[string]interface{}) (Rates, error) {
	if year > f.horizon {
		return Rates{}, fmt.Errorf("Start year is beyond data extrapolation: %d > %d", year, f.horizon)
	}
	if year < constants.StartYear {
		return Rates{}, fmt.Errorf("year %d predates the rate table (first year %d)", year, constants.StartYear)
	}
	best, ok := 0, false
	for y := range f.table {
		if y <= year && y > best {
			best, ok = y, true
		}
	}
	if !ok {
		return Rates{}, fmt.Errorf("no rate table entry at or before %d", year)
	}
	return f.table[best], nil
}
