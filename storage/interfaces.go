package storage

import (
	"context"
	"errors"

	"asin-lister/models"
)

// ErrNotFound is returned when nothing has been stored yet.
var ErrNotFound = errors.New("storage: none stored")

// ItemStore is the interface any candidate storage backend must satisfy.
type ItemStore interface {
	Load(ctx context.Context) ([]models.ListingCandidate, error)
	Save(ctx context.Context, items []models.ListingCandidate) error
	Delete(ctx context.Context, asins []string, keep []string) ([]string, error)
	Close() error
}

// OutcomeWriter is the interface for exporting run outcomes.
type OutcomeWriter interface {
	Write(outcomes []models.ListingOutcome) error
	Close() error
}
