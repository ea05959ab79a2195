package services

import (
	"testing"

	"asin-lister/models"
)

func f64(v float64) *float64 { return &v }

func TestApplyPriceRules(t *testing.T) {
	single := []models.PriceRule{{Min: 1, Max: f64(3000), Multiply: 1.2, Plus: 400}}
	tiered := []models.PriceRule{
		{Min: 1, Max: f64(1000), Multiply: 1.5, Plus: 0},
		{Min: 1000, Max: f64(5000), Multiply: 1, Plus: 100},
		{Min: 5000, Multiply: 1.1, Plus: 0},
	}

	tests := []struct {
		name  string
		price float64
		rules []models.PriceRule
		want  int64
	}{
		{"upper bound inclusive", 3000, single, 4000},
		{"end-to-end price", 2500, single, 3400},
		{"unmatched passes through", 3001, single, 3001},
		{"unmatched fraction rounds", 3001.6, single, 3002},
		{"zero", 0, single, 0},
		{"negative", -10, single, 0},
		{"zero without rules", 0, nil, 0},
		{"no rules passthrough", 99.4, nil, 99},
		{"clamped to one", 0.2, nil, 1},
		{"first match wins on overlap", 1000, tiered, 1500},
		{"open ended last rule", 10000, tiered, 11000},
		{"below every band", 0.5, tiered, 1},
		{"negative result clamped", 10, []models.PriceRule{{Min: 1, Multiply: 1, Plus: -500}}, 1},
	}

	for _, tt := range tests {
		if got := ApplyPriceRules(tt.price, tt.rules); got != tt.want {
			t.Errorf("%s: ApplyPriceRules(%.2f) = %d; want %d", tt.name, tt.price, got, tt.want)
		}
	}
}
