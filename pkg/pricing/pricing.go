package pricing

import "fmt"

// Category is a waste material class.
type Category string

const (
	Plastic Category = "plastic"
	Paper   Category = "paper"
	Metal   Category = "metal"
	EWaste  Category = "ewaste"
)

// Rates are per-kilogram prices in INR.
type Rates map[Category]float64

// DefaultRates is the market table used for estimates and final prices.
var DefaultRates = Rates{
	Plastic: 15,
	Paper:   10,
	Metal:   40,
	EWaste:  60,
}

// Categories lists the accepted categories in display order.
func Categories() []Category {
	return []Category{Plastic, Paper, Metal, EWaste}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := DefaultRates[c]
	return ok
}

// Estimate returns rate[category] * kg.
func (r Rates) Estimate(c Category, kg float64) (float64, error) {
	rate, ok := r[c]
	if !ok {
		return 0, fmt.Errorf("invalid category %q: must be one of %v", c, Categories())
	}
	return rate * kg, nil
}

// Estimate prices kg of c with DefaultRates.
func Estimate(c Category, kg float64) (float64, error) {
	return DefaultRates.Estimate(c, kg)
}
