package subscriber

import (
	"context"

	domain "mediatheque/internal/domain/subscriber"
)

type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Address   string
	Phone     string
}

// UpdateInput fields left nil keep their stored value.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Address   *string
	Phone     *string
}

// Circulation is the part of the consistency engine this use case needs.
type Circulation interface {
	DeleteSubscriber(ctx context.Context, subscriberID string) error
	ReconcileSubscriber(ctx context.Context, subscriberID string) (*domain.Subscriber, error)
}
