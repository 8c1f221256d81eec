package loan

import (
	"context"
	"errors"
	"time"

	"mediatheque/internal/domain/apperr"
	domain "mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	"mediatheque/internal/usecase/circulation"
)

type Usecase struct {
	repo domain.Repository
	circ Circulation
}

func NewUsecase(r domain.Repository, c Circulation) *Usecase { return &Usecase{repo: r, circ: c} }

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*domain.Loan, error) {
	return u.circ.CreateLoan(ctx, circulation.CreateLoanInput(in))
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*domain.Loan, error) {
	l, err := u.repo.FindOne(ctx, domain.Filter{ID: loanID})
	if errors.Is(err, apperr.ErrRecordNotFound) {
		return nil, apperr.Wrap(domain.ErrNotFound, err)
	}
	return l, err
}

func (u *Usecase) List(ctx context.Context, in ListInput) ([]domain.Loan, int64, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	f := domain.Filter{Status: in.Status, SubscriberID: in.SubscriberID, DocumentID: in.DocumentID}
	total, err := u.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	p := query.FromPageNumber(in.Page, in.PerPage).
		WithSort(query.Sort{Field: domain.SortLoanDate, Desc: true})
	items, err := u.repo.FindMany(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (u *Usecase) Return(ctx context.Context, loanID string) (*domain.Loan, error) {
	return u.circ.ReturnLoan(ctx, loanID)
}

// Extend adds days to the due date; nil days means the configured default.
func (u *Usecase) Extend(ctx context.Context, loanID string, days *int) (*domain.Loan, error) {
	ext := u.circ.DefaultExtension()
	if days != nil {
		ext = time.Duration(*days) * 24 * time.Hour
	}
	return u.circ.ExtendLoan(ctx, loanID, ext)
}

func (u *Usecase) Delete(ctx context.Context, loanID string) error {
	return u.circ.DeleteLoan(ctx, loanID)
}
