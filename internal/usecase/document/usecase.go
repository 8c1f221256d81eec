package document

import (
	"context"
	"errors"
	"strings"

	"mediatheque/internal/domain/apperr"
	domain "mediatheque/internal/domain/document"
	"mediatheque/internal/domain/query"
)

type Usecase struct {
	repo domain.Repository
	circ Circulation
}

func NewUsecase(r domain.Repository, c Circulation) *Usecase { return &Usecase{repo: r, circ: c} }

func (u *Usecase) isbnTaken(ctx context.Context, isbn, excludeID string) error {
	if isbn == "" {
		return nil
	}
	n, err := u.repo.Count(ctx, domain.Filter{ISBN: isbn, ExcludeID: excludeID})
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrISBNTaken
	}
	return nil
}

func mapWriteErr(err error) error {
	switch {
	case errors.Is(err, apperr.ErrDuplicateKey):
		return apperr.Wrap(domain.ErrISBNTaken, err)
	case errors.Is(err, apperr.ErrRecordNotFound):
		return apperr.Wrap(domain.ErrNotFound, err)
	}
	return err
}

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*domain.Document, error) {
	isbn := strings.TrimSpace(in.ISBN)
	if err := u.isbnTaken(ctx, isbn, ""); err != nil {
		return nil, err
	}
	d := &domain.Document{
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		Type:            in.Type,
		ISBN:            isbn,
		Genre:           strings.TrimSpace(in.Genre),
		PublicationDate: in.PublicationDate.UTC(),
		Available:       true,
	}
	if _, err := u.repo.Insert(ctx, d); err != nil {
		return nil, mapWriteErr(err)
	}
	return d, nil
}

func (u *Usecase) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	d, err := u.repo.FindOne(ctx, domain.Filter{ID: documentID})
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return d, nil
}

func (u *Usecase) List(ctx context.Context, in ListInput) ([]domain.Document, int64, error) {
	f := domain.Filter{Type: in.Type, Available: in.Available}
	total, err := u.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	p := query.FromPageNumber(in.Page, in.PerPage).WithSort(query.Sort{Field: domain.SortTitle})
	items, err := u.repo.FindMany(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update edits descriptive fields. Availability is not client-settable.
func (u *Usecase) Update(ctx context.Context, documentID string, in UpdateInput) (*domain.Document, error) {
	if _, err := u.Get(ctx, documentID); err != nil {
		return nil, err
	}
	p := domain.Patch{
		Title:           trimmed(in.Title),
		Author:          trimmed(in.Author),
		Type:            in.Type,
		Genre:           trimmed(in.Genre),
		PublicationDate: in.PublicationDate,
	}
	if in.ISBN != nil {
		isbn := strings.TrimSpace(*in.ISBN)
		if err := u.isbnTaken(ctx, isbn, documentID); err != nil {
			return nil, err
		}
		p.ISBN = &isbn
	}
	if err := u.repo.UpdateFields(ctx, documentID, p); err != nil {
		return nil, mapWriteErr(err)
	}
	return u.Get(ctx, documentID)
}

func (u *Usecase) Delete(ctx context.Context, documentID string) error {
	return u.circ.DeleteDocument(ctx, documentID)
}

func (u *Usecase) Reconcile(ctx context.Context, documentID string) (*domain.Document, error) {
	return u.circ.ReconcileDocument(ctx, documentID)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
