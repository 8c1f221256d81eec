package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap_KeepsIdentityAndCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := fmt.Errorf("insert loan: %w", Wrap(ErrDuplicateKey, cause))

	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("wrapped sentinel must match errors.Is")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause must stay reachable")
	}
	if KindOf(err) != KindDuplicateKey {
		t.Fatalf("kind = %s", KindOf(err))
	}
	if CodeOf(err) != "DUPLICATE_KEY" {
		t.Fatalf("code = %s", CodeOf(err))
	}
}

func TestKindOf_Untagged(t *testing.T) {
	err := errors.New("boom")
	if KindOf(err) != KindInternal {
		t.Fatalf("untagged error must be internal, got %s", KindOf(err))
	}
	if MessageOf(err) != "internal error" {
		t.Fatalf("message leaked: %q", MessageOf(err))
	}
}

func TestIs_DistinctCodes(t *testing.T) {
	a := New(KindNotFound, "A_NOT_FOUND", "a")
	b := New(KindNotFound, "B_NOT_FOUND", "b")
	if errors.Is(a, b) {
		t.Fatalf("different codes must not match")
	}
}
