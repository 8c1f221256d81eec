package circulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"mediatheque/internal/domain/apperr"
	"mediatheque/internal/domain/document"
	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	"mediatheque/internal/domain/store"
	"mediatheque/internal/domain/subscriber"
	"mediatheque/internal/testutil/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	engine *Engine
	repos  store.Repos
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newEngine(t *testing.T, repos store.Repos) *Engine {
	t.Helper()
	e, err := NewEngine(repos,
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return fixedNow }),
		WithRetry(WithMaxAttempts(3), WithBaseDelay(0)),
	)
	require.NoError(t, err)
	return e
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := storetest.NewSQLite(t)
	return &fixture{engine: newEngine(t, repos), repos: repos}
}

func (f *fixture) addSubscriber(t *testing.T, email string) string {
	t.Helper()
	sid, err := f.repos.Subscribers.Insert(context.Background(), &subscriber.Subscriber{
		FirstName: "Jean", LastName: "Valjean", Email: email,
		Address: "1 rue Plumet", Phone: "0601020304", InscriptionDate: fixedNow,
	})
	require.NoError(t, err)
	return sid
}

func (f *fixture) addDocument(t *testing.T, title string) string {
	t.Helper()
	did, err := f.repos.Documents.Insert(context.Background(), &document.Document{
		Title: title, Author: "Hugo", Type: document.TypeBook, Genre: "novel",
		PublicationDate: time.Date(1862, 4, 3, 0, 0, 0, 0, time.UTC), Available: true,
	})
	require.NoError(t, err)
	return did
}

func (f *fixture) document(t *testing.T, did string) *document.Document {
	t.Helper()
	d, err := f.repos.Documents.FindOne(context.Background(), document.Filter{ID: did})
	require.NoError(t, err)
	return d
}

func (f *fixture) subscriber(t *testing.T, sid string) *subscriber.Subscriber {
	t.Helper()
	s, err := f.repos.Subscribers.FindOne(context.Background(), subscriber.Filter{ID: sid})
	require.NoError(t, err)
	return s
}

// assertAvailabilityInvariant checks available == false iff an active loan
// references the document, and that at most one such loan exists.
func (f *fixture) assertAvailabilityInvariant(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	docs, err := f.repos.Documents.FindMany(ctx, document.Filter{}, query.Page{})
	require.NoError(t, err)
	for _, d := range docs {
		n, err := f.repos.Loans.Count(ctx, loan.Filter{DocumentID: d.ID, Status: loan.StatusActive})
		require.NoError(t, err)
		assert.LessOrEqual(t, n, int64(1), "document %s has %d active loans", d.ID, n)
		assert.Equal(t, n == 0, d.Available, "document %s available=%v with %d active loans", d.ID, d.Available, n)
	}
}

func TestCreateLoan_ScenarioA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "a@example.com")
	did := f.addDocument(t, "Les Misérables")

	l, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: did})
	require.NoError(t, err)

	assert.Equal(t, loan.StatusActive, l.Status)
	assert.True(t, l.LoanDate.Equal(fixedNow))
	assert.True(t, l.DueDate.Equal(fixedNow.Add(14*24*time.Hour)))
	assert.False(t, f.document(t, did).Available)

	s := f.subscriber(t, sid)
	require.Len(t, s.CurrentLoans, 1)
	assert.Equal(t, l.ID, s.CurrentLoans[0].LoanID)
	assert.Equal(t, did, s.CurrentLoans[0].DocumentID)
	f.assertAvailabilityInvariant(t)
}

func TestCreateLoan_ScenarioB_DocumentUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s1 := f.addSubscriber(t, "b1@example.com")
	s2 := f.addSubscriber(t, "b2@example.com")
	did := f.addDocument(t, "Notre-Dame")

	_, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: s1, DocumentID: did})
	require.NoError(t, err)

	_, err = f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: s2, DocumentID: did})
	require.ErrorIs(t, err, document.ErrUnavailable)
	assert.Equal(t, apperr.KindStateViolation, apperr.KindOf(err))

	assert.Empty(t, f.subscriber(t, s2).CurrentLoans)
	n, err := f.repos.Loans.Count(ctx, loan.Filter{DocumentID: did})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	f.assertAvailabilityInvariant(t)
}

func TestCreateLoan_DateWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "dates@example.com")

	explicitLoan := fixedNow.Add(-48 * time.Hour)
	explicitDue := fixedNow.Add(72 * time.Hour)

	tests := []struct {
		name     string
		in       CreateLoanInput
		wantLoan time.Time
		wantDue  time.Time
	}{
		{"defaults", CreateLoanInput{}, fixedNow, fixedNow.Add(14 * 24 * time.Hour)},
		{"loan date only", CreateLoanInput{LoanDate: &explicitLoan}, explicitLoan, explicitLoan.Add(14 * 24 * time.Hour)},
		{"due date only", CreateLoanInput{DueDate: &explicitDue}, fixedNow, explicitDue},
		{"both", CreateLoanInput{LoanDate: &explicitLoan, DueDate: &explicitDue}, explicitLoan, explicitDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.SubscriberID = sid
			in.DocumentID = f.addDocument(t, tt.name)

			l, err := f.engine.CreateLoan(ctx, in)
			require.NoError(t, err)
			assert.True(t, l.LoanDate.Equal(tt.wantLoan), "loan_date=%v", l.LoanDate)
			assert.True(t, l.DueDate.Equal(tt.wantDue), "due_date=%v", l.DueDate)
		})
	}
}

func TestCreateLoan_InvalidDateRange_NoWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "boundary@example.com")
	did := f.addDocument(t, "Boundary")

	loanDate := fixedNow.Add(24 * time.Hour)
	dueDate := fixedNow
	_, err := f.engine.CreateLoan(ctx, CreateLoanInput{
		SubscriberID: sid, DocumentID: did, LoanDate: &loanDate, DueDate: &dueDate,
	})
	require.ErrorIs(t, err, loan.ErrInvalidDateRange)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.True(t, f.document(t, did).Available)
	assert.Empty(t, f.subscriber(t, sid).CurrentLoans)
	n, err := f.repos.Loans.Count(ctx, loan.Filter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateLoan_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "nf@example.com")
	did := f.addDocument(t, "NF")

	_, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: "ffffffffffffffffffffffffffffffff", DocumentID: did})
	assert.ErrorIs(t, err, subscriber.ErrNotFound)

	_, err = f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: "ffffffffffffffffffffffffffffffff"})
	assert.ErrorIs(t, err, document.ErrNotFound)

	_, err = f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: "", DocumentID: did})
	assert.ErrorIs(t, err, subscriber.ErrNotFound)

	assert.True(t, f.document(t, did).Available)
}

func TestReturnLoan_RoundTripAndIdempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "rt@example.com")
	did := f.addDocument(t, "Round trip")

	l, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: did})
	require.NoError(t, err)

	returned, err := f.engine.ReturnLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.True(t, returned.ReturnDate.Equal(fixedNow))

	assert.True(t, f.document(t, did).Available)
	s := f.subscriber(t, sid)
	assert.Empty(t, s.CurrentLoans)
	require.Len(t, s.LoanHistory, 1)
	assert.Equal(t, l.ID, s.LoanHistory[0].LoanID)
	assert.Equal(t, loan.StatusReturned, s.LoanHistory[0].Status)
	f.assertAvailabilityInvariant(t)

	// second call: LoanNotActive and nothing moves
	_, err = f.engine.ReturnLoan(ctx, l.ID)
	require.ErrorIs(t, err, loan.ErrNotActive)
	s = f.subscriber(t, sid)
	assert.Empty(t, s.CurrentLoans)
	assert.Len(t, s.LoanHistory, 1)
	assert.True(t, f.document(t, did).Available)
}

func TestReturnLoan_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ReturnLoan(context.Background(), "ffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, loan.ErrNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestExtendLoan_ScenarioC(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "c@example.com")
	did := f.addDocument(t, "Extend")

	l, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: did})
	require.NoError(t, err)

	extended, err := f.engine.ExtendLoan(ctx, l.ID, f.engine.DefaultExtension())
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, extended.DueDate.Sub(l.DueDate))

	stored, err := f.repos.Loans.FindOne(ctx, loan.Filter{ID: l.ID})
	require.NoError(t, err)
	assert.True(t, stored.DueDate.Equal(extended.DueDate))

	_, err = f.engine.ReturnLoan(ctx, l.ID)
	require.NoError(t, err)

	_, err = f.engine.ExtendLoan(ctx, l.ID, time.Hour)
	assert.ErrorIs(t, err, loan.ErrNotActive)
}

func TestExtendLoan_InvalidExtension(t *testing.T) {
	f := newFixture(t)
	for _, ext := range []time.Duration{0, -time.Hour} {
		_, err := f.engine.ExtendLoan(context.Background(), "ffffffffffffffffffffffffffffffff", ext)
		assert.ErrorIs(t, err, loan.ErrInvalidExtension)
	}
}

func TestDeleteDocument_ScenarioD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "d@example.com")
	did := f.addDocument(t, "Guarded")

	l, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: did})
	require.NoError(t, err)

	ok, err := f.engine.CanDeleteDocument(ctx, did)
	require.NoError(t, err)
	assert.False(t, ok)

	err = f.engine.DeleteDocument(ctx, did)
	require.ErrorIs(t, err, document.ErrHasActiveLoan)
	assert.Equal(t, apperr.KindStateViolation, apperr.KindOf(err))

	_, err = f.engine.ReturnLoan(ctx, l.ID)
	require.NoError(t, err)
	require.NoError(t, f.engine.DeleteDocument(ctx, did))

	_, err = f.repos.Documents.FindOne(ctx, document.Filter{ID: did})
	assert.ErrorIs(t, err, apperr.ErrRecordNotFound)

	assert.ErrorIs(t, f.engine.DeleteDocument(ctx, did), document.ErrNotFound)
}

func TestDeleteSubscriber_ScenarioE(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "e@example.com")
	did := f.addDocument(t, "Borrowed")

	l, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: did})
	require.NoError(t, err)

	require.ErrorIs(t, f.engine.DeleteSubscriber(ctx, sid), subscriber.ErrHasCurrentLoans)

	_, err = f.engine.ReturnLoan(ctx, l.ID)
	require.NoError(t, err)
	require.NoError(t, f.engine.DeleteSubscriber(ctx, sid))
	assert.ErrorIs(t, f.engine.DeleteSubscriber(ctx, sid), subscriber.ErrNotFound)
}

func TestCanDeleteSubscriber_IgnoresStaleProjection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "stale@example.com")

	// a leftover snapshot with no active loan behind it does not block deletion
	require.NoError(t, f.repos.Subscribers.PushToArray(ctx, sid, subscriber.FieldCurrentLoans,
		loan.Snapshot{LoanID: "ghost", DocumentID: "ghost", Status: loan.StatusActive}))

	ok, err := f.engine.CanDeleteSubscriber(ctx, sid)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "del@example.com")
	did := f.addDocument(t, "Deletable")

	l, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: did})
	require.NoError(t, err)

	require.ErrorIs(t, f.engine.DeleteLoan(ctx, l.ID), loan.ErrStillActive)

	_, err = f.engine.ReturnLoan(ctx, l.ID)
	require.NoError(t, err)
	require.NoError(t, f.engine.DeleteLoan(ctx, l.ID))
	assert.ErrorIs(t, f.engine.DeleteLoan(ctx, l.ID), loan.ErrNotFound)
}

func TestCreateLoan_RacingPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	did := f.addDocument(t, "Contended")
	subs := []string{f.addSubscriber(t, "r1@example.com"), f.addSubscriber(t, "r2@example.com")}

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, len(subs))
	)
	for i, sid := range subs {
		wg.Add(1)
		go func(i int, sid string) {
			defer wg.Done()
			<-start
			_, errs[i] = f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: did})
		}(i, sid)
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, document.ErrUnavailable):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	f.assertAvailabilityInvariant(t)
}

func TestCreateLoan_SequenceKeepsInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.addSubscriber(t, "seq@example.com")
	docs := []string{f.addDocument(t, "one"), f.addDocument(t, "two"), f.addDocument(t, "three")}

	var loans []*loan.Loan
	for _, did := range docs {
		l, err := f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: did})
		require.NoError(t, err)
		loans = append(loans, l)
		f.assertAvailabilityInvariant(t)
	}
	_, err := f.engine.ReturnLoan(ctx, loans[1].ID)
	require.NoError(t, err)
	f.assertAvailabilityInvariant(t)

	// the returned document can be lent again
	_, err = f.engine.CreateLoan(ctx, CreateLoanInput{SubscriberID: sid, DocumentID: docs[1]})
	require.NoError(t, err)
	f.assertAvailabilityInvariant(t)

	s := f.subscriber(t, sid)
	assert.Len(t, s.CurrentLoans, 3)
	assert.Len(t, s.LoanHistory, 1)
}

func TestNewEngine_RejectsBadOptions(t *testing.T) {
	repos := store.Repos{}
	_, err := NewEngine(repos, WithLoanPeriod(0))
	assert.Error(t, err)
	_, err = NewEngine(repos, WithExtension(-time.Hour))
	assert.Error(t, err)
	_, err = NewEngine(repos, WithRetry(WithMaxAttempts(0)))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestNewEngine_CustomPolicy(t *testing.T) {
	repos := storetest.NewSQLite(t)
	e, err := NewEngine(repos,
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return fixedNow }),
		WithLoanPeriod(21*24*time.Hour),
		WithExtension(3*24*time.Hour),
	)
	require.NoError(t, err)
	f := &fixture{engine: e, repos: repos}

	l, err := e.CreateLoan(context.Background(), CreateLoanInput{
		SubscriberID: f.addSubscriber(t, "policy@example.com"),
		DocumentID:   f.addDocument(t, "Policy"),
	})
	require.NoError(t, err)
	assert.True(t, l.DueDate.Equal(fixedNow.Add(21*24*time.Hour)))
	assert.Equal(t, 3*24*time.Hour, e.DefaultExtension())
}
