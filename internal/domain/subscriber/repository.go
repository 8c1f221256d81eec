package subscriber

import (
	"context"

	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
)

type Repository interface {
	FindOne(ctx context.Context, f Filter) (*Subscriber, error)
	FindMany(ctx context.Context, f Filter, p query.Page) ([]Subscriber, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Insert(ctx context.Context, s *Subscriber) (string, error)
	UpdateFields(ctx context.Context, id string, p Patch) error
	Delete(ctx context.Context, id string) (bool, error)

	// PushToArray appends snap to the named array.
	PushToArray(ctx context.Context, id string, field ArrayField, snap loan.Snapshot) error
	// PullFromArray removes every snapshot of the named array matched by m.
	// Pulling an absent entry is not an error.
	PullFromArray(ctx context.Context, id string, field ArrayField, m Matcher) error
}
