package loan

import (
	"time"

	"mediatheque/internal/domain/apperr"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusReturned }

var (
	ErrNotFound         = apperr.New(apperr.KindNotFound, "LOAN_NOT_FOUND", "loan not found")
	ErrNotActive        = apperr.New(apperr.KindStateViolation, "LOAN_NOT_ACTIVE", "loan is not active")
	ErrStillActive      = apperr.New(apperr.KindStateViolation, "LOAN_STILL_ACTIVE", "cannot delete an active loan")
	ErrInvalidDateRange = apperr.New(apperr.KindValidation, "INVALID_DATE_RANGE", "loan_date must not be after due_date")
	ErrInvalidExtension = apperr.New(apperr.KindValidation, "INVALID_EXTENSION", "extension must be positive")
)

// Loan is the authoritative record of a borrowing event.
type Loan struct {
	ID           string     `json:"id" bson:"_id"`
	SubscriberID string     `json:"subscriber_id" bson:"subscriber_id"`
	DocumentID   string     `json:"document_id" bson:"document_id"`
	LoanDate     time.Time  `json:"loan_date" bson:"loan_date"`
	DueDate      time.Time  `json:"due_date" bson:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty" bson:"return_date,omitempty"`
	Status       Status     `json:"status" bson:"status"`
}

func (l Loan) IsActive() bool { return l.Status == StatusActive }

// Snapshot is the copy of a loan embedded in a subscriber's current_loans
// and loan_history arrays. It is a projection, never a source of truth.
type Snapshot struct {
	LoanID     string     `json:"loan_id" bson:"loan_id"`
	DocumentID string     `json:"document_id" bson:"document_id"`
	LoanDate   time.Time  `json:"loan_date" bson:"loan_date"`
	DueDate    time.Time  `json:"due_date" bson:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty" bson:"return_date,omitempty"`
	Status     Status     `json:"status" bson:"status"`
}

func (l Loan) Snapshot() Snapshot {
	return Snapshot{
		LoanID:     l.ID,
		DocumentID: l.DocumentID,
		LoanDate:   l.LoanDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     l.Status,
	}
}

// Filter narrows loan lookups; zero fields are ignored.
type Filter struct {
	ID           string
	SubscriberID string
	DocumentID   string
	Status       Status
}

// Patch lists the fields UpdateFields may set; nil fields are left alone.
type Patch struct {
	DueDate    *time.Time
	ReturnDate *time.Time
	Status     *Status
}

func (p Patch) Empty() bool { return p.DueDate == nil && p.ReturnDate == nil && p.Status == nil }

// Sortable fields accepted by FindMany.
const (
	SortLoanDate = "loan_date"
	SortDueDate  = "due_date"
)
