package currency

import "context"

// RateRepository is the persistent exchange rate table
type RateRepository interface {
	FindAll(ctx context.Context) ([]Rate, error)
	// SeedIfEmpty stores rates only when the table holds no rows.
	// It reports whether the seed was written.
	SeedIfEmpty(ctx context.Context, rates []Rate) (bool, error)
}
