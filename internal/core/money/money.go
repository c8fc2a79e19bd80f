// Package money provides exact rounding helpers for reporting figures.
// KPI tables carry float64 amounts; rounding goes through decimal so that
// values like 33.335 land where an accountant expects them, not where IEEE
// binary representation happens to put them.
package money

import "github.com/shopspring/decimal"

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Pct rounds a percentage to 1 decimal place.
func Pct(v float64) float64 {
	return Round(v, 1)
}

// Euros rounds a currency amount to whole euros.
func Euros(v float64) float64 {
	return Round(v, 0)
}

// Cents rounds a currency amount to 2 decimal places.
func Cents(v float64) float64 {
	return Round(v, 2)
}

// Ratio rounds a unitless ratio to 3 decimal places.
func Ratio(v float64) float64 {
	return Round(v, 3)
}
