package subscribermock

import (
	"context"

	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	domain "mediatheque/internal/domain/subscriber"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// A nil Fn delegates to Base when set; otherwise reads return
// context.Canceled and writes succeed.
type Repo struct {
	Base domain.Repository

	FindOneFn       func(ctx context.Context, f domain.Filter) (*domain.Subscriber, error)
	FindManyFn      func(ctx context.Context, f domain.Filter, p query.Page) ([]domain.Subscriber, error)
	CountFn         func(ctx context.Context, f domain.Filter) (int64, error)
	InsertFn        func(ctx context.Context, s *domain.Subscriber) (string, error)
	UpdateFieldsFn  func(ctx context.Context, id string, p domain.Patch) error
	DeleteFn        func(ctx context.Context, id string) (bool, error)
	PushToArrayFn   func(ctx context.Context, id string, field domain.ArrayField, snap loan.Snapshot) error
	PullFromArrayFn func(ctx context.Context, id string, field domain.ArrayField, m domain.Matcher) error
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) FindOne(ctx context.Context, f domain.Filter) (*domain.Subscriber, error) {
	if m.FindOneFn != nil {
		return m.FindOneFn(ctx, f)
	}
	if m.Base != nil {
		return m.Base.FindOne(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) FindMany(ctx context.Context, f domain.Filter, p query.Page) ([]domain.Subscriber, error) {
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

func (m *Repo) Insert(ctx context.Context, s *domain.Subscriber) (string, error) {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, s)
	}
	if m.Base != nil {
		return m.Base.Insert(ctx, s)
	}
	return s.ID, nil
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

func (m *Repo) Delete(ctx context.Context, id string) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if m.Base != nil {
		return m.Base.Delete(ctx, id)
	}
	return true, nil
}

func (m *Repo) PushToArray(ctx context.Context, id string, field domain.ArrayField, snap loan.Snapshot) error {
	if m.PushToArrayFn != nil {
		return m.PushToArrayFn(ctx, id, field, snap)
	}
	if m.Base != nil {
		return m.Base.PushToArray(ctx, id, field, snap)
	}
	return nil
}

func (m *Repo) PullFromArray(ctx context.Context, id string, field domain.ArrayField, matcher domain.Matcher) error {
	if m.PullFromArrayFn != nil {
		return m.PullFromArrayFn(ctx, id, field, matcher)
	}
	if m.Base != nil {
		return m.Base.PullFromArray(ctx, id, field, matcher)
	}
	return nil
}
