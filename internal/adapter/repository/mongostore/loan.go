package mongostore

import (
	"context"

	loanDomain "mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	"mediatheque/pkg/id"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var loanSortable = map[string]bool{
	loanDomain.SortLoanDate: true,
	loanDomain.SortDueDate:  true,
}

type LoanRepository struct{ col *mongo.Collection }

func NewLoanRepository(col *mongo.Collection) *LoanRepository { return &LoanRepository{col: col} }

var _ loanDomain.Repository = (*LoanRepository)(nil)

func loanFilter(f loanDomain.Filter) bson.M {
	m := bson.M{}
	if f.ID != "" {
		m["_id"] = f.ID
	}
	if f.SubscriberID != "" {
		m["subscriber_id"] = f.SubscriberID
	}
	if f.DocumentID != "" {
		m["document_id"] = f.DocumentID
	}
	if f.Status != "" {
		m["status"] = f.Status
	}
	return m
}

func loanSet(p loanDomain.Patch) bson.M {
	set := bson.M{}
	if p.DueDate != nil {
		set["due_date"] = p.DueDate.UTC()
	}
	if p.ReturnDate != nil {
		set["return_date"] = p.ReturnDate.UTC()
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	return set
}

func (r *LoanRepository) FindOne(ctx context.Context, f loanDomain.Filter) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	if err := r.col.FindOne(ctx, loanFilter(f)).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *LoanRepository) FindMany(ctx context.Context, f loanDomain.Filter, p query.Page) ([]loanDomain.Loan, error) {
	cur, err := r.col.Find(ctx, loanFilter(f), findOptions(p, loanSortable))
	if err != nil {
		return nil, translate(err)
	}
	out := []loanDomain.Loan{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *LoanRepository) Count(ctx context.Context, f loanDomain.Filter) (int64, error) {
	return countWhere(ctx, r.col, loanFilter(f))
}

func (r *LoanRepository) Insert(ctx context.Context, l *loanDomain.Loan) (string, error) {
	if l.ID == "" {
		l.ID = id.NewID32()
	}
	if _, err := r.col.InsertOne(ctx, l); err != nil {
		return "", translate(err)
	}
	return l.ID, nil
}

func (r *LoanRepository) UpdateFields(ctx context.Context, loanID string, p loanDomain.Patch) error {
	update := bson.M{}
	if set := loanSet(p); len(set) > 0 {
		update["$set"] = set
	}
	return updateByID(ctx, r.col, loanID, update)
}

func (r *LoanRepository) CompareAndUpdate(ctx context.Context, loanID string, expected loanDomain.Status, p loanDomain.Patch) (bool, error) {
	set := loanSet(p)
	if len(set) == 0 {
		return false, nil
	}
	return conditionalUpdate(ctx, r.col, loanID,
		bson.M{"_id": loanID, "status": expected},
		bson.M{"$set": set},
	)
}

func (r *LoanRepository) Delete(ctx context.Context, loanID string) (bool, error) {
	return deleteByID(ctx, r.col, loanID)
}
