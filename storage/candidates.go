package storage

import (
	"context"
	"fmt"

	"asin-lister/models"
)

// ResolveCandidates returns one candidate per identifier, in the given order.
// Stored candidates are reused so their names and images survive; identifiers
// seen for the first time are saved as bare candidates. The returned slice is
// always complete, even when the store fails.
func ResolveCandidates(ctx context.Context, store ItemStore, asins []string) ([]models.ListingCandidate, error) {
	stored, loadErr := store.Load(ctx)
	known := make(map[string]models.ListingCandidate, len(stored))
	for _, c := range stored {
		known[c.ASIN] = c
	}

	out := make([]models.ListingCandidate, 0, len(asins))
	var fresh []models.ListingCandidate
	for _, asin := range asins {
		c, ok := known[asin]
		if !ok {
			c = models.CandidatesFromASINs([]string{asin})[0]
			fresh = append(fresh, c)
		}
		out = append(out, c)
	}

	if len(fresh) > 0 {
		if err := store.Save(ctx, fresh); err != nil {
			return out, fmt.Errorf("save %d new candidates: %w", len(fresh), err)
		}
	}
	if loadErr != nil {
		return out, fmt.Errorf("load candidates: %w", loadErr)
	}
	return out, nil
}
