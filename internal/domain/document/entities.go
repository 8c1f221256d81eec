package document

import (
	"time"

	"mediatheque/internal/domain/apperr"
)

type Type string

const (
	TypeBook     Type = "book"
	TypeMagazine Type = "magazine"
	TypeDVD      Type = "dvd"
)

func (t Type) Valid() bool {
	switch t {
	case TypeBook, TypeMagazine, TypeDVD:
		return true
	}
	return false
}

var (
	ErrNotFound      = apperr.New(apperr.KindNotFound, "DOCUMENT_NOT_FOUND", "document not found")
	ErrUnavailable   = apperr.New(apperr.KindStateViolation, "DOCUMENT_UNAVAILABLE", "document is not available")
	ErrHasActiveLoan = apperr.New(apperr.KindStateViolation, "DOCUMENT_HAS_ACTIVE_LOAN", "cannot delete document that is currently loaned")
	ErrISBNTaken     = apperr.New(apperr.KindDuplicateKey, "ISBN_TAKEN", "ISBN already exists")
)

// Document is a lendable item. Available is owned by the circulation engine
// and is always true on creation. ClaimedAt is set while a loan is being
// opened against the document and is nil when it was never claimed that way.
type Document struct {
	ID              string     `json:"id" bson:"_id"`
	Title           string     `json:"title" bson:"title"`
	Author          string     `json:"author" bson:"author"`
	Type            Type       `json:"type" bson:"type"`
	ISBN            string     `json:"isbn,omitempty" bson:"isbn,omitempty"`
	Genre           string     `json:"genre" bson:"genre"`
	PublicationDate time.Time  `json:"publication_date" bson:"publication_date"`
	Available       bool       `json:"available" bson:"available"`
	ClaimedAt       *time.Time `json:"-" bson:"claimed_at,omitempty"`
}

type Filter struct {
	ID        string
	ISBN      string
	ExcludeID string
	Type      Type
	Available *bool
}

// Patch fields left nil are untouched. A non-nil empty ISBN clears it.
type Patch struct {
	Title           *string
	Author          *string
	Type            *Type
	ISBN            *string
	Genre           *string
	PublicationDate *time.Time
	Available       *bool
}

const (
	SortTitle           = "title"
	SortPublicationDate = "publication_date"
)
