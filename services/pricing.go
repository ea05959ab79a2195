package services

import (
	"math"

	"asin-lister/models"
)

// ApplyPriceRules maps a source price to a destination price. The first rule
// whose band contains price wins; with no matching rule the price passes
// through. Results are rounded to whole currency units and never drop below 1.
// Non-positive prices are not computable and yield 0.
func ApplyPriceRules(price float64, rules []models.PriceRule) int64 {
	if price <= 0 || math.IsNaN(price) {
		return 0
	}

	out := price
	for _, r := range rules {
		if r.Min <= price && (r.Max == nil || price <= *r.Max) {
			out = price*r.Multiply + r.Plus
			break
		}
	}

	rounded := int64(math.Round(out))
	if rounded < 1 {
		return 1
	}
	return rounded
}
