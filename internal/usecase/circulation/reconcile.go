package circulation

import (
	"context"
	"errors"
	"log/slog"

	"mediatheque/internal/domain/apperr"
	"mediatheque/internal/domain/document"
	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	"mediatheque/internal/domain/subscriber"
)

// ReconcileSubscriber repairs current_loans and loan_history against the
// loan collection. Only the entries that disagree are pushed or pulled, so
// a CreateLoan or ReturnLoan running at the same time keeps its own writes.
// Running it twice yields the same arrays.
func (e *Engine) ReconcileSubscriber(ctx context.Context, subscriberID string) (*subscriber.Subscriber, error) {
	sub, err := e.getSubscriber(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	loans, err := e.repos.Loans.FindMany(ctx, loan.Filter{SubscriberID: sub.ID},
		query.Page{}.WithSort(query.Sort{Field: loan.SortLoanDate}))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]loan.Loan, len(loans))
	for _, l := range loans {
		byID[l.ID] = l
	}

	repaired := 0
	for _, l := range loans {
		field := subscriber.FieldLoanHistory
		held := sub.LoanHistory
		if l.IsActive() {
			field, held = subscriber.FieldCurrentLoans, sub.CurrentLoans
		}
		if holdsExactly(held, l.Snapshot()) {
			continue
		}
		if err := e.replaceSnapshot(ctx, sub.ID, field, l); err != nil {
			return nil, err
		}
		repaired++
	}

	for _, snap := range sub.CurrentLoans {
		l, ok := byID[snap.LoanID]
		if ok && l.IsActive() {
			continue
		}
		if !ok {
			pending, err := e.loanPending(ctx, snap)
			if err != nil {
				return nil, err
			}
			if pending {
				continue
			}
		}
		if err := e.pull(ctx, sub.ID, subscriber.FieldCurrentLoans, snap.LoanID); err != nil {
			return nil, err
		}
		repaired++
	}

	for _, snap := range sub.LoanHistory {
		if l, ok := byID[snap.LoanID]; ok && !l.IsActive() {
			continue
		}
		if err := e.pull(ctx, sub.ID, subscriber.FieldLoanHistory, snap.LoanID); err != nil {
			return nil, err
		}
		repaired++
	}

	if repaired == 0 {
		return sub, nil
	}
	e.log.Warn("circulation: subscriber projection repaired",
		slog.String("subscriber_id", sub.ID),
		slog.Int("entries", repaired),
	)
	return e.getSubscriber(ctx, sub.ID)
}

// holdsExactly reports whether want appears once in arr, unchanged.
func holdsExactly(arr []loan.Snapshot, want loan.Snapshot) bool {
	n := 0
	match := false
	for _, s := range arr {
		if s.LoanID != want.LoanID {
			continue
		}
		n++
		match = sameSnapshot(s, want)
	}
	return n == 1 && match
}

func sameSnapshot(a, b loan.Snapshot) bool {
	if a.DocumentID != b.DocumentID || a.Status != b.Status ||
		!a.LoanDate.Equal(b.LoanDate) || !a.DueDate.Equal(b.DueDate) {
		return false
	}
	if a.ReturnDate == nil || b.ReturnDate == nil {
		return a.ReturnDate == nil && b.ReturnDate == nil
	}
	return a.ReturnDate.Equal(*b.ReturnDate)
}

// replaceSnapshot swaps whatever field holds for l with a fresh snapshot.
// A loan pushed into current_loans is read again afterwards: if it was
// returned meanwhile, ReturnLoan's pull may have run before our push.
func (e *Engine) replaceSnapshot(ctx context.Context, subscriberID string, field subscriber.ArrayField, l loan.Loan) error {
	if err := e.pull(ctx, subscriberID, field, l.ID); err != nil {
		return err
	}
	err := e.repos.Subscribers.PushToArray(ctx, subscriberID, field, l.Snapshot())
	if err != nil {
		return mapNotFound(err, subscriber.ErrNotFound)
	}
	if field != subscriber.FieldCurrentLoans {
		return nil
	}
	latest, err := e.repos.Loans.FindOne(ctx, loan.Filter{ID: l.ID})
	switch {
	case errors.Is(err, apperr.ErrRecordNotFound):
	case err != nil:
		return err
	case latest.IsActive():
		return nil
	}
	return e.pull(ctx, subscriberID, field, l.ID)
}

func (e *Engine) pull(ctx context.Context, subscriberID string, field subscriber.ArrayField, loanID string) error {
	err := e.repos.Subscribers.PullFromArray(ctx, subscriberID, field, subscriber.Matcher{LoanID: loanID})
	return mapNotFound(err, subscriber.ErrNotFound)
}

// loanPending reports whether a current_loans entry without a loan record
// belongs to a CreateLoan that has claimed its document but not yet inserted
// the loan.
func (e *Engine) loanPending(ctx context.Context, snap loan.Snapshot) (bool, error) {
	doc, err := e.repos.Documents.FindOne(ctx, document.Filter{ID: snap.DocumentID})
	if errors.Is(err, apperr.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !doc.Available && doc.ClaimedAt != nil && !doc.ClaimedAt.Before(e.claimCutoff()), nil
}

// ReconcileDocument sets available to whether no active loan references the
// document. Both repairs are conditional writes: a document claimed by a
// CreateLoan younger than the claim grace is left unavailable, and one that
// changed state since it was read is not overwritten.
func (e *Engine) ReconcileDocument(ctx context.Context, documentID string) (*document.Document, error) {
	doc, err := e.getDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	free, err := e.CanDeleteDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if doc.Available == free {
		return doc, nil
	}

	var changed bool
	if free {
		changed, err = e.repos.Documents.ReleaseStaleClaim(ctx, doc.ID, e.claimCutoff())
	} else {
		changed, err = e.repos.Documents.SwapAvailable(ctx, doc.ID, true, false)
	}
	if err != nil {
		return nil, mapNotFound(err, document.ErrNotFound)
	}
	if !changed {
		e.log.Info("circulation: document left as is",
			slog.String("document_id", doc.ID),
			slog.Bool("available", doc.Available),
		)
		return e.getDocument(ctx, doc.ID)
	}
	e.log.Warn("circulation: document availability repaired",
		slog.String("document_id", doc.ID),
		slog.Bool("available", free),
	)
	return e.getDocument(ctx, doc.ID)
}
