package models

import "time"

// OutcomeStatus is the terminal classification of one identifier in a run.
type OutcomeStatus string

const (
	StatusSuccess   OutcomeStatus = "success"
	StatusExists    OutcomeStatus = "exists"
	StatusForbidden OutcomeStatus = "forbidden"
	StatusError     OutcomeStatus = "error"
)

// ListingOutcome is produced exactly once per input identifier per run.
type ListingOutcome struct {
	ASIN           string        `json:"asin"`
	Status         OutcomeStatus `json:"status"`
	Message        string        `json:"message"`
	ForbiddenWords []string      `json:"forbidden_words,omitempty"`
	ItemCode       string        `json:"item_code,omitempty"`
}

// ListingPayload is the normalized listing request sent to the destination.
type ListingPayload struct {
	ASIN           string `json:"asin"`
	Price          int64  `json:"price"`
	ShippingMethod string `json:"shipping_method"`
	Title          string `json:"title"`
	Image          string `json:"image,omitempty"`
	CategoryCode   string `json:"category_code,omitempty"`
	Stock          int    `json:"stock"`
	CatalogID      string `json:"catalog_id,omitempty"`
}

// CreateResult is the listing service's answer for one submitted payload.
type CreateResult struct {
	ASIN     string `json:"asin"`
	OK       bool   `json:"ok"`
	Message  string `json:"message,omitempty"`
	Code     string `json:"code,omitempty"`
	ItemCode string `json:"item_code,omitempty"`
}

// OutcomeBuckets groups outcomes by status, keeping input order per bucket.
type OutcomeBuckets struct {
	Exists    []ListingOutcome `json:"exists"`
	Forbidden []ListingOutcome `json:"forbidden"`
	Error     []ListingOutcome `json:"error"`
	Success   []ListingOutcome `json:"success"`
}

// Total is the number of outcomes across all buckets.
func (b *OutcomeBuckets) Total() int {
	return len(b.Exists) + len(b.Forbidden) + len(b.Error) + len(b.Success)
}

// RunReport summarises one pipeline run. Buckets is nil when aggregation was
// never attempted.
type RunReport struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Outcomes   []ListingOutcome `json:"outcomes"`
	Buckets    *OutcomeBuckets  `json:"buckets"`
	Submitted  int              `json:"submitted"`
}
