package document

import (
	"context"
	"time"

	"mediatheque/internal/domain/query"
)

type Repository interface {
	FindOne(ctx context.Context, f Filter) (*Document, error)
	FindMany(ctx context.Context, f Filter, p query.Page) ([]Document, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Insert(ctx context.Context, d *Document) (string, error)
	UpdateFields(ctx context.Context, id string, p Patch) error

	// SwapAvailable sets available to next only if it currently equals
	// expected, as a single conditional write. Returns false when the
	// document exists but did not match.
	SwapAvailable(ctx context.Context, id string, expected, next bool) (bool, error)

	// Claim flips available from true to false and stamps claimed_at with at.
	// Returns false when the document exists but is already out.
	Claim(ctx context.Context, id string, at time.Time) (bool, error)

	// ReleaseStaleClaim flips available back to true only when claimed_at is
	// unset or older than before, and clears it. A claim newer than before
	// belongs to a loan still being opened and is left alone.
	ReleaseStaleClaim(ctx context.Context, id string, before time.Time) (bool, error)

	Delete(ctx context.Context, id string) (bool, error)
}
