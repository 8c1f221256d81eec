package loan

import (
	"context"

	"mediatheque/internal/domain/query"
)

type Repository interface {
	FindOne(ctx context.Context, f Filter) (*Loan, error)
	FindMany(ctx context.Context, f Filter, p query.Page) ([]Loan, error)
	Count(ctx context.Context, f Filter) (int64, error)

	// Insert stores l; an empty l.ID is filled in and returned.
	Insert(ctx context.Context, l *Loan) (string, error)
	UpdateFields(ctx context.Context, id string, p Patch) error

	// CompareAndUpdate applies p only while the loan is still in status
	// expected. It reports false when the loan exists but moved on.
	CompareAndUpdate(ctx context.Context, id string, expected Status, p Patch) (bool, error)

	Delete(ctx context.Context, id string) (bool, error)
}
