package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediatheque/internal/domain/apperr"
	domain "mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	"mediatheque/internal/testutil/loanmock"
	"mediatheque/internal/usecase/circulation"
)

type fakeCirc struct {
	created   circulation.CreateLoanInput
	extension time.Duration
	returned  string
	deleted   string
}

func (f *fakeCirc) CreateLoan(_ context.Context, in circulation.CreateLoanInput) (*domain.Loan, error) {
	f.created = in
	return &domain.Loan{ID: "l", SubscriberID: in.SubscriberID, DocumentID: in.DocumentID}, nil
}

func (f *fakeCirc) ReturnLoan(_ context.Context, id string) (*domain.Loan, error) {
	f.returned = id
	return &domain.Loan{ID: id, Status: domain.StatusReturned}, nil
}

func (f *fakeCirc) ExtendLoan(_ context.Context, id string, ext time.Duration) (*domain.Loan, error) {
	f.extension = ext
	return &domain.Loan{ID: id}, nil
}

func (f *fakeCirc) DeleteLoan(_ context.Context, id string) error {
	f.deleted = id
	return nil
}

func (f *fakeCirc) DefaultExtension() time.Duration { return 7 * 24 * time.Hour }

func TestCreate_PassesThrough(t *testing.T) {
	circ := &fakeCirc{}
	uc := NewUsecase(&loanmock.Repo{}, circ)
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	l, err := uc.Create(context.Background(), CreateInput{SubscriberID: "s", DocumentID: "d", DueDate: &due})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.SubscriberID != "s" || circ.created.DueDate == nil || !circ.created.DueDate.Equal(due) {
		t.Fatalf("input not forwarded: %+v", circ.created)
	}
}

func TestExtend(t *testing.T) {
	tests := []struct {
		name string
		days *int
		want time.Duration
	}{
		{"default", nil, 7 * 24 * time.Hour},
		{"explicit", intptr(3), 3 * 24 * time.Hour},
		{"non-positive is forwarded for the engine to reject", intptr(0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			circ := &fakeCirc{extension: -1}
			uc := NewUsecase(&loanmock.Repo{}, circ)
			if _, err := uc.Extend(context.Background(), "l", tt.days); err != nil {
				t.Fatalf("Extend: %v", err)
			}
			if circ.extension != tt.want {
				t.Fatalf("extension = %v, want %v", circ.extension, tt.want)
			}
		})
	}
}

func intptr(i int) *int { return &i }

func TestGet_NotFound(t *testing.T) {
	uc := NewUsecase(&loanmock.Repo{
		FindOneFn: func(context.Context, domain.Filter) (*domain.Loan, error) {
			return nil, apperr.ErrRecordNotFound
		},
	}, &fakeCirc{})
	if _, err := uc.Get(context.Background(), "l"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	var gotFilter domain.Filter
	var gotPage query.Page
	uc := NewUsecase(&loanmock.Repo{
		CountFn: func(context.Context, domain.Filter) (int64, error) { return 2, nil },
		FindManyFn: func(_ context.Context, f domain.Filter, p query.Page) ([]domain.Loan, error) {
			gotFilter, gotPage = f, p
			return []domain.Loan{{ID: "a"}, {ID: "b"}}, nil
		},
	}, &fakeCirc{})

	items, total, err := uc.List(context.Background(), ListInput{Page: 1, PerPage: 5, Status: domain.StatusActive, SubscriberID: "s"})
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("List: %d %d %v", total, len(items), err)
	}
	if gotFilter.Status != domain.StatusActive || gotFilter.SubscriberID != "s" {
		t.Fatalf("filter = %+v", gotFilter)
	}
	if len(gotPage.Sort) != 1 || gotPage.Sort[0].Field != domain.SortLoanDate || !gotPage.Sort[0].Desc {
		t.Fatalf("sort = %+v", gotPage.Sort)
	}

	if _, _, err := uc.List(context.Background(), ListInput{Status: "lost"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
}

func TestReturnAndDelete_Delegate(t *testing.T) {
	circ := &fakeCirc{}
	uc := NewUsecase(&loanmock.Repo{}, circ)
	if _, err := uc.Return(context.Background(), "r"); err != nil || circ.returned != "r" {
		t.Fatalf("Return: %v", err)
	}
	if err := uc.Delete(context.Background(), "d"); err != nil || circ.deleted != "d" {
		t.Fatalf("Delete: %v", err)
	}
}

var _ Circulation = (*circulation.Engine)(nil)
