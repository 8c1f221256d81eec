package loanmock

import (
	"context"
	"errors"
	"testing"

	domain "mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
)

func TestRepo_Insert(t *testing.T) {
	ctx := context.Background()
	l := &domain.Loan{ID: "LN-1"}

	// Uses provided func
	called := false
	wantErr := errors.New("boom")
	m := &Repo{
		InsertFn: func(gotCtx context.Context, got *domain.Loan) (string, error) {
			called = true
			if gotCtx != ctx {
				t.Fatalf("Insert ctx mismatch")
			}
			if got != l {
				t.Fatalf("Insert arg mismatch")
			}
			return "", wantErr
		},
	}
	if _, err := m.Insert(ctx, l); !errors.Is(err, wantErr) {
		t.Fatalf("Insert: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("InsertFn not called")
	}

	// Default (nil func) → echoes the id
	m = &Repo{}
	if got, err := m.Insert(ctx, l); err != nil || got != "LN-1" {
		t.Fatalf("Insert default: got %q, %v", got, err)
	}
}

func TestRepo_FindOne(t *testing.T) {
	ctx := context.Background()
	want := &domain.Loan{ID: "LN-2"}

	m := &Repo{
		FindOneFn: func(_ context.Context, f domain.Filter) (*domain.Loan, error) {
			if f.ID != "LN-2" {
				t.Fatalf("FindOne filter mismatch: %+v", f)
			}
			return want, nil
		},
	}
	got, err := m.FindOne(ctx, domain.Filter{ID: "LN-2"})
	if err != nil || got != want {
		t.Fatalf("FindOne: got %+v, %v", got, err)
	}

	// Default (nil func) → context.Canceled
	m = &Repo{}
	got, err = m.FindOne(ctx, domain.Filter{ID: "LN-2"})
	if err != context.Canceled || got != nil {
		t.Fatalf("FindOne default: got %+v, %v", got, err)
	}
}

func TestRepo_DelegatesToBase(t *testing.T) {
	ctx := context.Background()
	base := &Repo{
		CountFn: func(context.Context, domain.Filter) (int64, error) { return 3, nil },
	}
	m := &Repo{
		Base: base,
		CompareAndUpdateFn: func(context.Context, string, domain.Status, domain.Patch) (bool, error) {
			return false, nil
		},
	}

	if n, err := m.Count(ctx, domain.Filter{}); err != nil || n != 3 {
		t.Fatalf("Count via base: got %d, %v", n, err)
	}
	if ok, _ := m.CompareAndUpdate(ctx, "x", domain.StatusActive, domain.Patch{}); ok {
		t.Fatalf("override must win over base")
	}
	if _, err := m.FindMany(ctx, domain.Filter{}, query.Page{}); err != context.Canceled {
		t.Fatalf("FindMany via empty base: got %v", err)
	}
	if ok, err := m.Delete(ctx, "x"); err != nil || !ok {
		t.Fatalf("Delete via base default: got %v, %v", ok, err)
	}
	if err := m.UpdateFields(ctx, "x", domain.Patch{}); err != nil {
		t.Fatalf("UpdateFields via base default: %v", err)
	}
}
