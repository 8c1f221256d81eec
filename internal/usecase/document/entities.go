package document

import (
	"context"
	"time"

	domain "mediatheque/internal/domain/document"
)

// CreateInput carries no availability: new documents are always available.
type CreateInput struct {
	Title           string
	Author          string
	Type            domain.Type
	ISBN            string
	Genre           string
	PublicationDate time.Time
}

type UpdateInput struct {
	Title           *string
	Author          *string
	Type            *domain.Type
	ISBN            *string
	Genre           *string
	PublicationDate *time.Time
}

type ListInput struct {
	Page      int
	PerPage   int
	Type      domain.Type
	Available *bool
}

type Circulation interface {
	DeleteDocument(ctx context.Context, documentID string) error
	ReconcileDocument(ctx context.Context, documentID string) (*domain.Document, error)
}
