package sqlstore

import (
	"mediatheque/internal/domain/store"

	"gorm.io/gorm"
)

// NewRepos binds the three repositories to db.
func NewRepos(db *gorm.DB) store.Repos {
	return store.Repos{
		Subscribers: NewSubscriberRepository(db),
		Documents:   NewDocumentRepository(db),
		Loans:       NewLoanRepository(db),
	}
}
