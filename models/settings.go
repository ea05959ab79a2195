package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// PriceRule maps a source price band [Min, Max] to a destination price of
// price*Multiply + Plus. A nil Max leaves the band open-ended.
type PriceRule struct {
	Min      float64  `json:"min" validate:"gte=0"`
	Max      *float64 `json:"max,omitempty" validate:"omitempty,gte=0"`
	Multiply float64  `json:"multiply" validate:"gt=0"`
	Plus     float64  `json:"plus"`
}

// CategoryMapping is one manual keyword override. Mappings are kept as a slice
// so their stored order decides which keyword wins.
type CategoryMapping struct {
	Keyword string `json:"keyword" validate:"required"`
	Code    string `json:"code" validate:"required,numeric"`
}

// Settings is the business configuration snapshot for one pipeline run.
type Settings struct {
	PrimeOnly      bool              `json:"prime_only"`
	MaxShipDays    int               `json:"max_ship_days" validate:"gte=0"`
	MaxStock       int               `json:"max_stock" validate:"gte=1"`
	ShippingMethod string            `json:"shipping_method" validate:"required"`
	PriceRules     []PriceRule       `json:"price_rules" validate:"dive"`
	DeniedASINs    []string          `json:"denied_asins"`
	EraseWords     []string          `json:"erase_words"`
	ForbiddenWords []string          `json:"forbidden_words"`
	KeepASINs      []string          `json:"keep_asins"`
	CategoryMap    []CategoryMapping `json:"category_map" validate:"dive"`
	AutoCategory   bool              `json:"auto_category"`
}

// DefaultSettings is used when nothing has been stored yet.
func DefaultSettings() Settings {
	max := 3000.0
	return Settings{
		PrimeOnly:      true,
		MaxShipDays:    3,
		MaxStock:       5,
		ShippingMethod: "1",
		PriceRules: []PriceRule{
			{Min: 1, Max: &max, Multiply: 1.2, Plus: 400},
			{Min: 3001, Multiply: 1.15, Plus: 600},
		},
		AutoCategory: true,
	}
}

// Validate checks struct tags plus the cross-field band constraint.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	for i, r := range s.PriceRules {
		if r.Max != nil && *r.Max < r.Min {
			return fmt.Errorf("settings: price rule %d: max %.2f below min %.2f", i, *r.Max, r.Min)
		}
	}
	return nil
}

// Clone returns a deep copy so a run never observes edits made after it started.
func (s Settings) Clone() Settings {
	c := s
	c.PriceRules = make([]PriceRule, len(s.PriceRules))
	for i, r := range s.PriceRules {
		c.PriceRules[i] = r
		if r.Max != nil {
			m := *r.Max
			c.PriceRules[i].Max = &m
		}
	}
	c.DeniedASINs = append([]string(nil), s.DeniedASINs...)
	c.EraseWords = append([]string(nil), s.EraseWords...)
	c.ForbiddenWords = append([]string(nil), s.ForbiddenWords...)
	c.KeepASINs = append([]string(nil), s.KeepASINs...)
	c.CategoryMap = append([]CategoryMapping(nil), s.CategoryMap...)
	return c
}
