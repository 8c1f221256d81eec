package subscriber

import (
	"time"

	"mediatheque/internal/domain/apperr"
	"mediatheque/internal/domain/loan"
)

var (
	ErrNotFound        = apperr.New(apperr.KindNotFound, "SUBSCRIBER_NOT_FOUND", "subscriber not found")
	ErrHasCurrentLoans = apperr.New(apperr.KindStateViolation, "SUBSCRIBER_HAS_CURRENT_LOANS", "cannot delete subscriber with active loans")
	ErrEmailTaken      = apperr.New(apperr.KindDuplicateKey, "EMAIL_TAKEN", "email already registered")
)

type Subscriber struct {
	ID              string          `json:"id" bson:"_id"`
	FirstName       string          `json:"first_name" bson:"first_name"`
	LastName        string          `json:"last_name" bson:"last_name"`
	Email           string          `json:"email" bson:"email"`
	Address         string          `json:"address" bson:"address"`
	Phone           string          `json:"phone" bson:"phone"`
	InscriptionDate time.Time       `json:"inscription_date" bson:"inscription_date"`
	CurrentLoans    []loan.Snapshot `json:"current_loans" bson:"current_loans"`
	LoanHistory     []loan.Snapshot `json:"loan_history" bson:"loan_history"`
}

// Normalize replaces nil arrays so they encode as [] rather than null.
func (s *Subscriber) Normalize() {
	if s.CurrentLoans == nil {
		s.CurrentLoans = []loan.Snapshot{}
	}
	if s.LoanHistory == nil {
		s.LoanHistory = []loan.Snapshot{}
	}
}

// ArrayField names one of the snapshot arrays.
type ArrayField string

const (
	FieldCurrentLoans ArrayField = "current_loans"
	FieldLoanHistory  ArrayField = "loan_history"
)

func (f ArrayField) Valid() bool { return f == FieldCurrentLoans || f == FieldLoanHistory }

// Matcher selects snapshots for PullFromArray. Set fields must all match;
// a zero Matcher matches nothing.
type Matcher struct {
	LoanID     string
	DocumentID string
}

func (m Matcher) Matches(s loan.Snapshot) bool {
	if m.LoanID == "" && m.DocumentID == "" {
		return false
	}
	if m.LoanID != "" && s.LoanID != m.LoanID {
		return false
	}
	if m.DocumentID != "" && s.DocumentID != m.DocumentID {
		return false
	}
	return true
}

type Filter struct {
	ID        string
	Email     string
	ExcludeID string
}

type Patch struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Address      *string
	Phone        *string
	CurrentLoans *[]loan.Snapshot
	LoanHistory  *[]loan.Snapshot
}

const (
	SortLastName        = "last_name"
	SortInscriptionDate = "inscription_date"
)
