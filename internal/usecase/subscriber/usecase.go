package subscriber

import (
	"context"
	"errors"
	"strings"
	"time"

	"mediatheque/internal/domain/apperr"
	"mediatheque/internal/domain/query"
	domain "mediatheque/internal/domain/subscriber"
)

type Usecase struct {
	repo domain.Repository
	circ Circulation
	now  func() time.Time
}

func NewUsecase(r domain.Repository, c Circulation) *Usecase {
	return &Usecase{repo: r, circ: c, now: time.Now}
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (u *Usecase) emailTaken(ctx context.Context, email, excludeID string) error {
	n, err := u.repo.Count(ctx, domain.Filter{Email: email, ExcludeID: excludeID})
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrEmailTaken
	}
	return nil
}

func mapWriteErr(err error) error {
	switch {
	case errors.Is(err, apperr.ErrDuplicateKey):
		return apperr.Wrap(domain.ErrEmailTaken, err)
	case errors.Is(err, apperr.ErrRecordNotFound):
		return apperr.Wrap(domain.ErrNotFound, err)
	}
	return err
}

// Create registers a subscriber. inscription_date is set here and never
// changes; both loan arrays start empty.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*domain.Subscriber, error) {
	email := normalizeEmail(in.Email)
	if err := u.emailTaken(ctx, email, ""); err != nil {
		return nil, err
	}
	s := &domain.Subscriber{
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Email:           email,
		Address:         strings.TrimSpace(in.Address),
		Phone:           strings.TrimSpace(in.Phone),
		InscriptionDate: u.now().UTC(),
	}
	s.Normalize()
	// unique index still wins a race with the pre-check
	if _, err := u.repo.Insert(ctx, s); err != nil {
		return nil, mapWriteErr(err)
	}
	return s, nil
}

func (u *Usecase) Get(ctx context.Context, subscriberID string) (*domain.Subscriber, error) {
	s, err := u.repo.FindOne(ctx, domain.Filter{ID: subscriberID})
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return s, nil
}

func (u *Usecase) List(ctx context.Context, page, perPage int) ([]domain.Subscriber, int64, error) {
	total, err := u.repo.Count(ctx, domain.Filter{})
	if err != nil {
		return nil, 0, err
	}
	p := query.FromPageNumber(page, perPage).WithSort(query.Sort{Field: domain.SortLastName})
	items, err := u.repo.FindMany(ctx, domain.Filter{}, p)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (u *Usecase) Update(ctx context.Context, subscriberID string, in UpdateInput) (*domain.Subscriber, error) {
	if _, err := u.Get(ctx, subscriberID); err != nil {
		return nil, err
	}
	p := domain.Patch{
		FirstName: trimmed(in.FirstName),
		LastName:  trimmed(in.LastName),
		Address:   trimmed(in.Address),
		Phone:     trimmed(in.Phone),
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := u.emailTaken(ctx, email, subscriberID); err != nil {
			return nil, err
		}
		p.Email = &email
	}
	if err := u.repo.UpdateFields(ctx, subscriberID, p); err != nil {
		return nil, mapWriteErr(err)
	}
	return u.Get(ctx, subscriberID)
}

func (u *Usecase) Delete(ctx context.Context, subscriberID string) error {
	return u.circ.DeleteSubscriber(ctx, subscriberID)
}

func (u *Usecase) Reconcile(ctx context.Context, subscriberID string) (*domain.Subscriber, error) {
	return u.circ.ReconcileSubscriber(ctx, subscriberID)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
