// Package circulation keeps loans, document availability and subscriber
// loan arrays consistent without cross-collection transactions.
package circulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mediatheque/internal/domain/apperr"
	"mediatheque/internal/domain/document"
	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/store"
	"mediatheque/internal/domain/subscriber"
	"mediatheque/pkg/id"
)

const (
	DefaultLoanPeriod = 14 * 24 * time.Hour
	DefaultExtension  = 7 * 24 * time.Hour
	// DefaultClaimGrace must outlive the slowest CreateLoan, request timeout
	// and compensation retries included.
	DefaultClaimGrace = 2 * time.Minute
)

// Engine owns every write that touches more than one of the loan, document
// and subscriber records.
type Engine struct {
	repos      store.Repos
	log        *slog.Logger
	now        func() time.Time
	period     time.Duration
	extension  time.Duration
	claimGrace time.Duration
	retry      retryConfig
}

// Option configures an Engine; NewEngine fails on the first error.
type Option func(*Engine) error

// WithLogger replaces slog.Default; nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) error {
		if l != nil {
			e.log = l
		}
		return nil
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		if now != nil {
			e.now = now
		}
		return nil
	}
}

// WithLoanPeriod sets the due date offset used when CreateLoan gets none.
func WithLoanPeriod(d time.Duration) Option {
	return func(e *Engine) error {
		if d <= 0 {
			return errors.New("loan period must be positive")
		}
		e.period = d
		return nil
	}
}

func WithExtension(d time.Duration) Option {
	return func(e *Engine) error {
		if d <= 0 {
			return errors.New("extension must be positive")
		}
		e.extension = d
		return nil
	}
}

// WithClaimGrace sets how long a document claimed by CreateLoan is treated
// as in flight. ReconcileDocument never releases a claim younger than this.
func WithClaimGrace(d time.Duration) Option {
	return func(e *Engine) error {
		if d <= 0 {
			return errors.New("claim grace must be positive")
		}
		e.claimGrace = d
		return nil
	}
}

// WithRetry tunes the bounded retry used by reverse actions and projections.
func WithRetry(opts ...RetryOption) Option {
	return func(e *Engine) error {
		for _, o := range opts {
			if err := o(&e.retry); err != nil {
				return err
			}
		}
		return nil
	}
}

// NewEngine returns an Engine over repos with the defaults overridden by opts.
func NewEngine(repos store.Repos, opts ...Option) (*Engine, error) {
	e := &Engine{
		repos:      repos,
		log:        slog.Default(),
		now:        time.Now,
		period:     DefaultLoanPeriod,
		extension:  DefaultExtension,
		claimGrace: DefaultClaimGrace,
		retry:      defaultRetryConfig(),
	}
	for _, o := range opts {
		if err := o(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// DefaultExtension is what ExtendLoan callers use when the client sends none.
func (e *Engine) DefaultExtension() time.Duration { return e.extension }

func (e *Engine) clock() time.Time { return e.now().UTC() }

// claimCutoff is the instant before which a claim is no longer in flight.
func (e *Engine) claimCutoff() time.Time { return e.clock().Add(-e.claimGrace) }

// mapNotFound converts the repository's RecordNotFound into the entity's own
// sentinel, leaving other errors untouched.
func mapNotFound(err error, sentinel *apperr.Error) error {
	if errors.Is(err, apperr.ErrRecordNotFound) {
		return apperr.Wrap(sentinel, err)
	}
	return err
}

func (e *Engine) getSubscriber(ctx context.Context, subscriberID string) (*subscriber.Subscriber, error) {
	if subscriberID == "" {
		return nil, subscriber.ErrNotFound
	}
	s, err := e.repos.Subscribers.FindOne(ctx, subscriber.Filter{ID: subscriberID})
	return s, mapNotFound(err, subscriber.ErrNotFound)
}

func (e *Engine) getDocument(ctx context.Context, documentID string) (*document.Document, error) {
	if documentID == "" {
		return nil, document.ErrNotFound
	}
	d, err := e.repos.Documents.FindOne(ctx, document.Filter{ID: documentID})
	return d, mapNotFound(err, document.ErrNotFound)
}

func (e *Engine) getLoan(ctx context.Context, loanID string) (*loan.Loan, error) {
	if loanID == "" {
		return nil, loan.ErrNotFound
	}
	l, err := e.repos.Loans.FindOne(ctx, loan.Filter{ID: loanID})
	return l, mapNotFound(err, loan.ErrNotFound)
}

type CreateLoanInput struct {
	SubscriberID string
	DocumentID   string
	LoanDate     *time.Time
	DueDate      *time.Time
}

// loanWindow resolves the loan and due dates: due defaults to loan date plus
// the loan period, loan date defaults to now.
func (e *Engine) loanWindow(in CreateLoanInput) (time.Time, time.Time, error) {
	loanDate := e.clock()
	if in.LoanDate != nil {
		loanDate = in.LoanDate.UTC()
	}
	dueDate := loanDate.Add(e.period)
	if in.DueDate != nil {
		dueDate = in.DueDate.UTC()
	}
	if loanDate.After(dueDate) {
		return time.Time{}, time.Time{}, loan.ErrInvalidDateRange
	}
	return loanDate, dueDate, nil
}

// CreateLoan lends a document to a subscriber. The document is claimed with
// a conditional write, so of two concurrent calls for one document exactly
// one succeeds. The claim is timestamped so that reconciliation can tell it
// apart from an orphan while the loan record does not exist yet.
func (e *Engine) CreateLoan(ctx context.Context, in CreateLoanInput) (*loan.Loan, error) {
	loanDate, dueDate, err := e.loanWindow(in)
	if err != nil {
		return nil, err
	}
	sub, err := e.getSubscriber(ctx, in.SubscriberID)
	if err != nil {
		return nil, err
	}
	doc, err := e.getDocument(ctx, in.DocumentID)
	if err != nil {
		return nil, err
	}
	if !doc.Available {
		return nil, document.ErrUnavailable
	}

	l := &loan.Loan{
		ID:           id.NewID32(),
		SubscriberID: sub.ID,
		DocumentID:   doc.ID,
		LoanDate:     loanDate,
		DueDate:      dueDate,
		Status:       loan.StatusActive,
	}
	snap := l.Snapshot()

	err = e.runSaga(ctx, "create_loan", []step{
		{
			name: "claim_document",
			do: func(ctx context.Context) error {
				ok, err := e.repos.Documents.Claim(ctx, doc.ID, e.clock())
				if err != nil {
					return mapNotFound(err, document.ErrNotFound)
				}
				if !ok {
					return document.ErrUnavailable
				}
				return nil
			},
			undo: func(ctx context.Context) error {
				_, err := e.repos.Documents.SwapAvailable(ctx, doc.ID, false, true)
				if errors.Is(err, apperr.ErrRecordNotFound) {
					return nil
				}
				return err
			},
		},
		{
			name: "append_current_loan",
			do: func(ctx context.Context) error {
				err := e.repos.Subscribers.PushToArray(ctx, sub.ID, subscriber.FieldCurrentLoans, snap)
				return mapNotFound(err, subscriber.ErrNotFound)
			},
			undo: func(ctx context.Context) error {
				err := e.repos.Subscribers.PullFromArray(ctx, sub.ID, subscriber.FieldCurrentLoans,
					subscriber.Matcher{LoanID: l.ID})
				if errors.Is(err, apperr.ErrRecordNotFound) {
					return nil
				}
				return err
			},
		},
		{
			name: "insert_loan",
			do: func(ctx context.Context) error {
				_, err := e.repos.Loans.Insert(ctx, l)
				return err
			},
		},
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("circulation: loan created",
		slog.String("loan_id", l.ID),
		slog.String("subscriber_id", l.SubscriberID),
		slog.String("document_id", l.DocumentID),
	)
	return l, nil
}

// ReturnLoan closes an active loan. The loan record is authoritative and is
// written first; availability and subscriber arrays are repaired after it
// under retry.
func (e *Engine) ReturnLoan(ctx context.Context, loanID string) (*loan.Loan, error) {
	l, err := e.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !l.IsActive() {
		return nil, loan.ErrNotActive
	}

	returnedAt := e.clock()
	status := loan.StatusReturned
	ok, err := e.repos.Loans.CompareAndUpdate(ctx, l.ID, loan.StatusActive,
		loan.Patch{Status: &status, ReturnDate: &returnedAt})
	if err != nil {
		return nil, mapNotFound(err, loan.ErrNotFound)
	}
	if !ok {
		return nil, loan.ErrNotActive
	}
	l.Status = loan.StatusReturned
	l.ReturnDate = &returnedAt

	if err := e.projectReturn(context.WithoutCancel(ctx), l); err != nil {
		e.log.Error("circulation: return projection failed",
			slog.String("loan_id", l.ID),
			slog.Any("err", err),
		)
		return nil, apperr.Wrap(ErrReconciliationRequired, err)
	}

	e.log.Info("circulation: loan returned", slog.String("loan_id", l.ID))
	return l, nil
}

func (e *Engine) projectReturn(ctx context.Context, l *loan.Loan) error {
	releaseErr := retry(ctx, e.retry, func(ctx context.Context) error {
		_, err := e.repos.Documents.SwapAvailable(ctx, l.DocumentID, false, true)
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil
		}
		return err
	})

	pullErr := retry(ctx, e.retry, func(ctx context.Context) error {
		err := e.repos.Subscribers.PullFromArray(ctx, l.SubscriberID, subscriber.FieldCurrentLoans,
			subscriber.Matcher{DocumentID: l.DocumentID})
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil
		}
		return err
	})

	historyErr := retry(ctx, e.retry, func(ctx context.Context) error {
		sub, err := e.repos.Subscribers.FindOne(ctx, subscriber.Filter{ID: l.SubscriberID})
		if errors.Is(err, apperr.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, h := range sub.LoanHistory {
			if h.LoanID == l.ID {
				return nil
			}
		}
		return e.repos.Subscribers.PushToArray(ctx, l.SubscriberID, subscriber.FieldLoanHistory, l.Snapshot())
	})

	return errors.Join(releaseErr, pullErr, historyErr)
}

// ExtendLoan moves the due date of an active loan by extension.
func (e *Engine) ExtendLoan(ctx context.Context, loanID string, extension time.Duration) (*loan.Loan, error) {
	if extension <= 0 {
		return nil, loan.ErrInvalidExtension
	}
	l, err := e.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !l.IsActive() {
		return nil, loan.ErrNotActive
	}

	due := l.DueDate.Add(extension)
	ok, err := e.repos.Loans.CompareAndUpdate(ctx, l.ID, loan.StatusActive, loan.Patch{DueDate: &due})
	if err != nil {
		return nil, mapNotFound(err, loan.ErrNotFound)
	}
	if !ok {
		return nil, loan.ErrNotActive
	}
	l.DueDate = due
	return l, nil
}

// DeleteLoan removes a returned loan. Active loans must be returned first.
func (e *Engine) DeleteLoan(ctx context.Context, loanID string) error {
	l, err := e.getLoan(ctx, loanID)
	if err != nil {
		return err
	}
	if l.IsActive() {
		return loan.ErrStillActive
	}
	deleted, err := e.repos.Loans.Delete(ctx, l.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return loan.ErrNotFound
	}
	return nil
}

// CanDeleteDocument reports whether no active loan references the document.
func (e *Engine) CanDeleteDocument(ctx context.Context, documentID string) (bool, error) {
	n, err := e.repos.Loans.Count(ctx, loan.Filter{DocumentID: documentID, Status: loan.StatusActive})
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// CanDeleteSubscriber asks the loan collection, not current_loans, which is
// only a projection.
func (e *Engine) CanDeleteSubscriber(ctx context.Context, subscriberID string) (bool, error) {
	n, err := e.repos.Loans.Count(ctx, loan.Filter{SubscriberID: subscriberID, Status: loan.StatusActive})
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// DeleteDocument removes a document that no active loan references.
func (e *Engine) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := e.getDocument(ctx, documentID); err != nil {
		return err
	}
	ok, err := e.CanDeleteDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if !ok {
		return document.ErrHasActiveLoan
	}
	deleted, err := e.repos.Documents.Delete(ctx, documentID)
	if err != nil {
		return err
	}
	if !deleted {
		return document.ErrNotFound
	}
	return nil
}

// DeleteSubscriber removes a subscriber that holds no active loan.
func (e *Engine) DeleteSubscriber(ctx context.Context, subscriberID string) error {
	if _, err := e.getSubscriber(ctx, subscriberID); err != nil {
		return err
	}
	ok, err := e.CanDeleteSubscriber(ctx, subscriberID)
	if err != nil {
		return err
	}
	if !ok {
		return subscriber.ErrHasCurrentLoans
	}
	deleted, err := e.repos.Subscribers.Delete(ctx, subscriberID)
	if err != nil {
		return err
	}
	if !deleted {
		return subscriber.ErrNotFound
	}
	return nil
}
