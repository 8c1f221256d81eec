package loanmock

import (
	"context"

	domain "mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// A nil Fn delegates to Base when set; otherwise reads return
// context.Canceled and writes succeed.
type Repo struct {
	Base domain.Repository

	FindOneFn          func(ctx context.Context, f domain.Filter) (*domain.Loan, error)
	FindManyFn         func(ctx context.Context, f domain.Filter, p query.Page) ([]domain.Loan, error)
	CountFn            func(ctx context.Context, f domain.Filter) (int64, error)
	InsertFn           func(ctx context.Context, l *domain.Loan) (string, error)
	UpdateFieldsFn     func(ctx context.Context, id string, p domain.Patch) error
	CompareAndUpdateFn func(ctx context.Context, id string, expected domain.Status, p domain.Patch) (bool, error)
	DeleteFn           func(ctx context.Context, id string) (bool, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) FindOne(ctx context.Context, f domain.Filter) (*domain.Loan, error) {
	if m.FindOneFn != nil {
		return m.FindOneFn(ctx, f)
	}
	if m.Base != nil {
		return m.Base.FindOne(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) FindMany(ctx context.Context, f domain.Filter, p query.Page) ([]domain.Loan, error) {
	if m.FindManyFn != nil {
		return m.FindManyFn(ctx, f, p)
	}
	if m.Base != nil {
		return m.Base.FindMany(ctx, f, p)
	}
	return nil, context.Canceled
}

func (m *Repo) Count(ctx context.Context, f domain.Filter) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, f)
	}
	if m.Base != nil {
		return m.Base.Count(ctx, f)
	}
	return 0, context.Canceled
}

func (m *Repo) Insert(ctx context.Context, l *domain.Loan) (string, error) {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, l)
	}
	if m.Base != nil {
		return m.Base.Insert(ctx, l)
	}
	return l.ID, nil
}

func (m *Repo) UpdateFields(ctx context.Context, id string, p domain.Patch) error {
	if m.UpdateFieldsFn != nil {
		return m.UpdateFieldsFn(ctx, id, p)
	}
	if m.Base != nil {
		return m.Base.UpdateFields(ctx, id, p)
	}
	return nil
}

func (m *Repo) CompareAndUpdate(ctx context.Context, id string, expected domain.Status, p domain.Patch) (bool, error) {
	if m.CompareAndUpdateFn != nil {
		return m.CompareAndUpdateFn(ctx, id, expected, p)
	}
	if m.Base != nil {
		return m.Base.CompareAndUpdate(ctx, id, expected, p)
	}
	return true, nil
}

func (m *Repo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if m.Base != nil {
		return m.Base.Delete(ctx, id)
	}
	return true, nil
}
