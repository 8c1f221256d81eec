package loan

import (
	"context"
	"time"

	"mediatheque/internal/domain/apperr"
	domain "mediatheque/internal/domain/loan"
	"mediatheque/internal/usecase/circulation"
)

var ErrInvalidStatus = apperr.New(apperr.KindValidation, "INVALID_STATUS", "status must be active or returned")

type CreateInput struct {
	SubscriberID string
	DocumentID   string
	LoanDate     *time.Time
	DueDate      *time.Time
}

type ListInput struct {
	Page         int
	PerPage      int
	Status       domain.Status
	SubscriberID string
	DocumentID   string
}

// Circulation is satisfied by *circulation.Engine.
type Circulation interface {
	CreateLoan(ctx context.Context, in circulation.CreateLoanInput) (*domain.Loan, error)
	ReturnLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	ExtendLoan(ctx context.Context, loanID string, extension time.Duration) (*domain.Loan, error)
	DeleteLoan(ctx context.Context, loanID string) error
	DefaultExtension() time.Duration
}
