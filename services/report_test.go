package services

import (
	"testing"

	"asin-lister/models"
)

func sampleOutcomes() []models.ListingOutcome {
	return []models.ListingOutcome{
		{ASIN: "A000000001", Status: models.StatusSuccess, ItemCode: "100"},
		{ASIN: "A000000002", Status: models.StatusForbidden},
		{ASIN: "A000000003", Status: models.StatusExists},
		{ASIN: "A000000004", Status: models.StatusError},
		{ASIN: "A000000005", Status: models.StatusSuccess, ItemCode: "101"},
		{ASIN: "A000000006", Status: models.StatusForbidden},
	}
}

func TestAggregateCompleteness(t *testing.T) {
	in := sampleOutcomes()
	b := Aggregate(in)
	if b.Total() != len(in) {
		t.Fatalf("Total: got %d, want %d", b.Total(), len(in))
	}

	seen := map[string]int{}
	for _, bucket := range [][]models.ListingOutcome{b.Exists, b.Forbidden, b.Error, b.Success} {
		for _, o := range bucket {
			seen[o.ASIN]++
		}
	}
	for _, o := range in {
		if seen[o.ASIN] != 1 {
			t.Errorf("%s appears in %d buckets, want 1", o.ASIN, seen[o.ASIN])
		}
	}
}

func TestAggregatePreservesOrder(t *testing.T) {
	b := Aggregate(sampleOutcomes())
	if len(b.Success) != 2 || b.Success[0].ASIN != "A000000001" || b.Success[1].ASIN != "A000000005" {
		t.Errorf("Success bucket order: got %+v", b.Success)
	}
	if len(b.Forbidden) != 2 || b.Forbidden[0].ASIN != "A000000002" || b.Forbidden[1].ASIN != "A000000006" {
		t.Errorf("Forbidden bucket order: got %+v", b.Forbidden)
	}
}

func TestAggregateUnknownStatusIsError(t *testing.T) {
	b := Aggregate([]models.ListingOutcome{{ASIN: "A000000009", Status: "weird"}})
	if len(b.Error) != 1 {
		t.Errorf("unknown status should land in Error, got %+v", b)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	b := Aggregate(nil)
	if b == nil {
		t.Fatal("Aggregate(nil) returned nil")
	}
	if b.Exists == nil || b.Forbidden == nil || b.Error == nil || b.Success == nil {
		t.Errorf("expected four empty non-nil buckets, got %+v", b)
	}
	if b.Total() != 0 {
		t.Errorf("Total: got %d, want 0", b.Total())
	}
}
