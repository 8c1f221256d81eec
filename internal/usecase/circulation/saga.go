package circulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mediatheque/internal/domain/apperr"
)

// ErrReconciliationRequired is terminal: a reverse action or projection
// repair failed after all retries and records may disagree until one of the
// Reconcile operations runs.
var ErrReconciliationRequired = apperr.New(apperr.KindInternal, "RECONCILIATION_REQUIRED",
	"records may be inconsistent; reconciliation required")

// step is one forward action of a saga with its reverse action. undo must be
// idempotent; it may be nil for the last step.
type step struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// runSaga executes steps in order. When step k fails, the reverse actions of
// steps k-1..0 run in reverse order on a context detached from the caller's
// cancellation, each under bounded retry.
func (e *Engine) runSaga(ctx context.Context, saga string, steps []step) error {
	for i, s := range steps {
		err := s.do(ctx)
		if err == nil {
			continue
		}
		if i == 0 {
			return err
		}
		if compErr := e.compensate(ctx, saga, s.name, err, steps[:i]); compErr != nil {
			return apperr.Wrap(ErrReconciliationRequired, errors.Join(err, compErr))
		}
		return err
	}
	return nil
}

func (e *Engine) compensate(ctx context.Context, saga, failedStep string, cause error, done []step) error {
	cctx := context.WithoutCancel(ctx)
	var failed []error
	for i := len(done) - 1; i >= 0; i-- {
		s := done[i]
		if s.undo == nil {
			continue
		}
		e.log.Warn("circulation: compensating",
			slog.String("saga", saga),
			slog.String("failed_step", failedStep),
			slog.String("undo", s.name),
			slog.Any("cause", cause),
		)
		if err := retry(cctx, e.retry, s.undo); err != nil {
			e.log.Error("circulation: compensation failed",
				slog.String("saga", saga),
				slog.String("undo", s.name),
				slog.Any("err", err),
			)
			failed = append(failed, fmt.Errorf("undo %s: %w", s.name, err))
		}
	}
	return errors.Join(failed...)
}
