package sqlstore

import (
	"time"

	"mediatheque/internal/domain/document"
	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/subscriber"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Row models are kept apart from the domain entities so that column types,
// NULL handling and indexes stay a storage concern.

type subscriberRow struct {
	ID              string                             `gorm:"primaryKey;size:32;column:id"`
	FirstName       string                             `gorm:"size:100;not null;column:first_name"`
	LastName        string                             `gorm:"size:100;not null;column:last_name;index:idx_subscribers_last_name"`
	Email           string                             `gorm:"size:255;not null;column:email;uniqueIndex:uq_subscribers_email"`
	Address         string                             `gorm:"size:255;column:address"`
	Phone           string                             `gorm:"size:32;column:phone"`
	InscriptionDate time.Time                          `gorm:"column:inscription_date"`
	CurrentLoans    datatypes.JSONSlice[loan.Snapshot] `gorm:"column:current_loans"`
	LoanHistory     datatypes.JSONSlice[loan.Snapshot] `gorm:"column:loan_history"`
}

func (subscriberRow) TableName() string { return "subscribers" }

type documentRow struct {
	ID              string     `gorm:"primaryKey;size:32;column:id"`
	Title           string     `gorm:"size:255;not null;column:title"`
	Author          string     `gorm:"size:255;not null;column:author"`
	Type            string     `gorm:"size:16;not null;column:type;index:idx_documents_type"`
	ISBN            *string    `gorm:"size:32;column:isbn;uniqueIndex:uq_documents_isbn"` // NULL when absent
	Genre           string     `gorm:"size:100;column:genre"`
	PublicationDate time.Time  `gorm:"column:publication_date"`
	Available       bool       `gorm:"not null;column:available"`
	ClaimedAt       *time.Time `gorm:"column:claimed_at"`
}

func (documentRow) TableName() string { return "documents" }

type loanRow struct {
	ID           string     `gorm:"primaryKey;size:32;column:id"`
	SubscriberID string     `gorm:"size:32;not null;column:subscriber_id;index:idx_loans_subscriber_document,priority:1"`
	DocumentID   string     `gorm:"size:32;not null;column:document_id;index:idx_loans_subscriber_document,priority:2;index:idx_loans_document_status,priority:1"`
	LoanDate     time.Time  `gorm:"column:loan_date"`
	DueDate      time.Time  `gorm:"column:due_date"`
	ReturnDate   *time.Time `gorm:"column:return_date"`
	Status       string     `gorm:"size:16;not null;column:status;index:idx_loans_document_status,priority:2"`
}

func (loanRow) TableName() string { return "loans" }

// Migrate creates or updates the three tables and their indexes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&subscriberRow{}, &documentRow{}, &loanRow{})
}

func snapshots(in []loan.Snapshot) datatypes.JSONSlice[loan.Snapshot] {
	if in == nil {
		return datatypes.JSONSlice[loan.Snapshot]{}
	}
	return datatypes.JSONSlice[loan.Snapshot](in)
}

func subscriberToRow(s *subscriber.Subscriber) *subscriberRow {
	return &subscriberRow{
		ID:              s.ID,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		Email:           s.Email,
		Address:         s.Address,
		Phone:           s.Phone,
		InscriptionDate: s.InscriptionDate.UTC(),
		CurrentLoans:    snapshots(s.CurrentLoans),
		LoanHistory:     snapshots(s.LoanHistory),
	}
}

func (r *subscriberRow) toDomain() subscriber.Subscriber {
	s := subscriber.Subscriber{
		ID:              r.ID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Address:         r.Address,
		Phone:           r.Phone,
		InscriptionDate: r.InscriptionDate.UTC(),
		CurrentLoans:    []loan.Snapshot(r.CurrentLoans),
		LoanHistory:     []loan.Snapshot(r.LoanHistory),
	}
	s.Normalize()
	return s
}

func optionalISBN(isbn string) *string {
	if isbn == "" {
		return nil
	}
	return &isbn
}

func documentToRow(d *document.Document) *documentRow {
	return &documentRow{
		ID:              d.ID,
		Title:           d.Title,
		Author:          d.Author,
		Type:            string(d.Type),
		ISBN:            optionalISBN(d.ISBN),
		Genre:           d.Genre,
		PublicationDate: d.PublicationDate.UTC(),
		Available:       d.Available,
		ClaimedAt:       utcPtr(d.ClaimedAt),
	}
}

func (r *documentRow) toDomain() document.Document {
	d := document.Document{
		ID:              r.ID,
		Title:           r.Title,
		Author:          r.Author,
		Type:            document.Type(r.Type),
		Genre:           r.Genre,
		PublicationDate: r.PublicationDate.UTC(),
		Available:       r.Available,
		ClaimedAt:       utcPtr(r.ClaimedAt),
	}
	if r.ISBN != nil {
		d.ISBN = *r.ISBN
	}
	return d
}

func loanToRow(l *loan.Loan) *loanRow {
	return &loanRow{
		ID:           l.ID,
		SubscriberID: l.SubscriberID,
		DocumentID:   l.DocumentID,
		LoanDate:     l.LoanDate.UTC(),
		DueDate:      l.DueDate.UTC(),
		ReturnDate:   utcPtr(l.ReturnDate),
		Status:       string(l.Status),
	}
}

func (r *loanRow) toDomain() loan.Loan {
	return loan.Loan{
		ID:           r.ID,
		SubscriberID: r.SubscriberID,
		DocumentID:   r.DocumentID,
		LoanDate:     r.LoanDate.UTC(),
		DueDate:      r.DueDate.UTC(),
		ReturnDate:   utcPtr(r.ReturnDate),
		Status:       loan.Status(r.Status),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
