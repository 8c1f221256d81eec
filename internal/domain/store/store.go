package store

import (
	"mediatheque/internal/domain/document"
	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/subscriber"
)

// Repos bundles the three collections. There is no cross-collection
// transaction behind it: multi-record effects are orchestrated by the
// circulation engine.
type Repos struct {
	Subscribers subscriber.Repository
	Documents   document.Repository
	Loans       loan.Repository
}
