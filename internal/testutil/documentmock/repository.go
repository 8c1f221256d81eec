package documentmock

import (
	"context"
	"time"

	domain "mediatheque/internal/domain/document"
	"mediatheque/internal/domain/query"
)

// Repo is a function-backed mock that satisfies domain.Repository.
// A nil Fn delegates to Base when set; otherwise reads return
// context.Canceled and writes succeed.
type Repo struct {
	Base domain.Repository

	FindOneFn           func(ctx context.Context, f domain.Filter) (*domain.Document, error)
	FindManyFn          func(ctx context.Context, f domain.Filter, p query.Page) ([]domain.Document, error)
	CountFn             func(ctx context.Context, f domain.Filter) (int64, error)
	InsertFn            func(ctx context.Context, d *domain.Document) (string, error)
	UpdateFieldsFn      func(ctx context.Context, id string, p domain.Patch) error
	SwapAvailableFn     func(ctx context.Context, id string, expected, next bool) (bool, error)
	ClaimFn             func(ctx context.Context, id string, at time.Time) (bool, error)
	ReleaseStaleClaimFn func(ctx context.Context, id string, before time.Time) (bool, error)
	DeleteFn            func(ctx context.Context, id string) (bool, error)
}

var _ domain.Repository = (*Repo)(nil)

func (m *Repo) FindOne(ctx context.Context, f domain.Filter) (*domain.Document, error) {
	if m.FindOneFn != nil {
		return m.FindOneFn(ctx, f)
	}
	if m.Base != nil {
		return m.Base.FindOne(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) FindMany(ctx context.Context, f domain.Filter, p query.Page) ([]domain.Document, error) {
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

func (m *Repo) Insert(ctx context.Context, d *domain.Document) (string, error) {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, d)
	}
	if m.Base != nil {
		return m.Base.Insert(ctx, d)
	}
	return d.ID, nil
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

func (m *Repo) SwapAvailable(ctx context.Context, id string, expected, next bool) (bool, error) {
	if m.SwapAvailableFn != nil {
		return m.SwapAvailableFn(ctx, id, expected, next)
	}
	if m.Base != nil {
		return m.Base.SwapAvailable(ctx, id, expected, next)
	}
	return true, nil
}

func (m *Repo) Claim(ctx context.Context, id string, at time.Time) (bool, error) {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, id, at)
	}
	if m.Base != nil {
		return m.Base.Claim(ctx, id, at)
	}
	return true, nil
}

func (m *Repo) ReleaseStaleClaim(ctx context.Context, id string, before time.Time) (bool, error) {
	if m.ReleaseStaleClaimFn != nil {
		return m.ReleaseStaleClaimFn(ctx, id, before)
	}
	if m.Base != nil {
		return m.Base.ReleaseStaleClaim(ctx, id, before)
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
