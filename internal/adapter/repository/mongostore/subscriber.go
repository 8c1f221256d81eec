package mongostore

import (
	"context"
	"fmt"

	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	subscriberDomain "mediatheque/internal/domain/subscriber"
	"mediatheque/pkg/id"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var subscriberSortable = map[string]bool{
	subscriberDomain.SortLastName:        true,
	subscriberDomain.SortInscriptionDate: true,
}

type SubscriberRepository struct{ col *mongo.Collection }

func NewSubscriberRepository(col *mongo.Collection) *SubscriberRepository {
	return &SubscriberRepository{col: col}
}

var _ subscriberDomain.Repository = (*SubscriberRepository)(nil)

func subscriberFilter(f subscriberDomain.Filter) bson.M {
	m := bson.M{}
	idCond := bson.M{}
	if f.ID != "" {
		idCond["$eq"] = f.ID
	}
	if f.ExcludeID != "" {
		idCond["$ne"] = f.ExcludeID
	}
	if len(idCond) > 0 {
		m["_id"] = idCond
	}
	if f.Email != "" {
		m["email"] = f.Email
	}
	return m
}

func (r *SubscriberRepository) FindOne(ctx context.Context, f subscriberDomain.Filter) (*subscriberDomain.Subscriber, error) {
	var out subscriberDomain.Subscriber
	if err := r.col.FindOne(ctx, subscriberFilter(f)).Decode(&out); err != nil {
		return nil, translate(err)
	}
	out.Normalize()
	return &out, nil
}

func (r *SubscriberRepository) FindMany(ctx context.Context, f subscriberDomain.Filter, p query.Page) ([]subscriberDomain.Subscriber, error) {
	cur, err := r.col.Find(ctx, subscriberFilter(f), findOptions(p, subscriberSortable))
	if err != nil {
		return nil, translate(err)
	}
	out := []subscriberDomain.Subscriber{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

func (r *SubscriberRepository) Count(ctx context.Context, f subscriberDomain.Filter) (int64, error) {
	return countWhere(ctx, r.col, subscriberFilter(f))
}

func (r *SubscriberRepository) Insert(ctx context.Context, s *subscriberDomain.Subscriber) (string, error) {
	if s.ID == "" {
		s.ID = id.NewID32()
	}
	// $push on a null field fails, so arrays are always stored
	s.Normalize()
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return "", translate(err)
	}
	return s.ID, nil
}

func (r *SubscriberRepository) UpdateFields(ctx context.Context, subscriberID string, p subscriberDomain.Patch) error {
	set := bson.M{}
	if p.FirstName != nil {
		set["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		set["last_name"] = *p.LastName
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.CurrentLoans != nil {
		set["current_loans"] = nonNil(*p.CurrentLoans)
	}
	if p.LoanHistory != nil {
		set["loan_history"] = nonNil(*p.LoanHistory)
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	return updateByID(ctx, r.col, subscriberID, update)
}

func (r *SubscriberRepository) Delete(ctx context.Context, subscriberID string) (bool, error) {
	return deleteByID(ctx, r.col, subscriberID)
}

func (r *SubscriberRepository) PushToArray(ctx context.Context, subscriberID string, field subscriberDomain.ArrayField, snap loan.Snapshot) error {
	if !field.Valid() {
		return fmt.Errorf("mongostore: unknown array field %q", field)
	}
	return updateByID(ctx, r.col, subscriberID, bson.M{"$push": bson.M{string(field): snap}})
}

func (r *SubscriberRepository) PullFromArray(ctx context.Context, subscriberID string, field subscriberDomain.ArrayField, m subscriberDomain.Matcher) error {
	if !field.Valid() {
		return fmt.Errorf("mongostore: unknown array field %q", field)
	}
	cond := bson.M{}
	if m.LoanID != "" {
		cond["loan_id"] = m.LoanID
	}
	if m.DocumentID != "" {
		cond["document_id"] = m.DocumentID
	}
	if len(cond) == 0 {
		// zero matcher removes nothing
		return updateByID(ctx, r.col, subscriberID, nil)
	}
	return updateByID(ctx, r.col, subscriberID, bson.M{"$pull": bson.M{string(field): cond}})
}

func nonNil(in []loan.Snapshot) []loan.Snapshot {
	if in == nil {
		return []loan.Snapshot{}
	}
	return in
}
