package models

import "time"

// SourceItemInfo is the enrichment data the source marketplace returns for one
// identifier. Nil pointer fields mean the source did not report the value.
type SourceItemInfo struct {
	ASIN        string   `json:"asin"`
	Price       *float64 `json:"price,omitempty"`
	SellerCount *int     `json:"seller_count,omitempty"`
	IsPrime     *bool    `json:"is_prime,omitempty"`
	ShipDays    *int     `json:"ship_days,omitempty"`
	Title       string   `json:"title"`
	Image       string   `json:"image,omitempty"`
}

// HasPrice reports whether the source supplied a usable (positive) price.
func (s *SourceItemInfo) HasPrice() bool {
	return s != nil && s.Price != nil && *s.Price > 0
}

// ListingCandidate is a product the pipeline may list on the destination
// marketplace. It is persisted by the item store between runs.
type ListingCandidate struct {
	ASIN      string    `json:"asin" db:"asin"`
	Name      string    `json:"name" db:"name"`
	CatalogID string    `json:"catalog_id,omitempty" db:"catalog_id"`
	Image     string    `json:"image,omitempty" db:"image"`
	Price     float64   `json:"price" db:"price"`
	InStock   *bool     `json:"in_stock,omitempty" db:"in_stock"`
	ItemCode  string    `json:"item_code,omitempty" db:"item_code"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CandidatesFromASINs builds bare candidates for freshly extracted identifiers.
func CandidatesFromASINs(asins []string) []ListingCandidate {
	now := time.Now()
	out := make([]ListingCandidate, 0, len(asins))
	for _, a := range asins {
		out = append(out, ListingCandidate{ASIN: a, UpdatedAt: now})
	}
	return out
}
