package mongostore

import (
	"context"
	"errors"

	"mediatheque/internal/domain/apperr"
	"mediatheque/internal/domain/query"
	"mediatheque/internal/domain/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SubscribersCollection = "subscribers"
	DocumentsCollection   = "documents"
	LoansCollection       = "loans"
)

// NewRepos binds the three repositories to their collections in db.
func NewRepos(db *mongo.Database) store.Repos {
	return store.Repos{
		Subscribers: NewSubscriberRepository(db.Collection(SubscribersCollection)),
		Documents:   NewDocumentRepository(db.Collection(DocumentsCollection)),
		Loans:       NewLoanRepository(db.Collection(LoansCollection)),
	}
}

// EnsureIndexes creates the indexes the repositories rely on. Creating an
// index that already exists with the same options is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		SubscribersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		DocumentsCollection: {
			// sparse: documents without an ISBN do not collide
			{Keys: bson.D{{Key: "isbn", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		},
		LoansCollection: {
			{Keys: bson.D{{Key: "subscriber_id", Value: 1}, {Key: "document_id", Value: 1}}},
			{Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "status", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Wrap(apperr.ErrRecordNotFound, err)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Wrap(apperr.ErrDuplicateKey, err)
	}
	return err
}

func findOptions(p query.Page, sortable map[string]bool) *options.FindOptions {
	sort := bson.D{}
	for _, s := range p.Sort {
		if !sortable[s.Field] {
			continue
		}
		dir := 1
		if s.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: s.Field, Value: dir})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})

	opts := options.Find().SetSort(sort)
	if p.Skip > 0 {
		opts.SetSkip(p.Skip)
	}
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}
	return opts
}

func exists(ctx context.Context, c *mongo.Collection, id string) (bool, error) {
	n, err := c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// updateByID applies update to _id and turns an unmatched filter into
// ErrRecordNotFound.
func updateByID(ctx context.Context, c *mongo.Collection, id string, update bson.M) error {
	if len(update) == 0 {
		ok, err := exists(ctx, c, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrRecordNotFound
		}
		return nil
	}
	res, err := c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrRecordNotFound
	}
	return nil
}

// conditionalUpdate applies update only when filter (which includes _id)
// matches. A miss on an existing record reports false.
func conditionalUpdate(ctx context.Context, c *mongo.Collection, id string, filter, update bson.M) (bool, error) {
	res, err := c.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, translate(err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	ok, err := exists(ctx, c, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperr.ErrRecordNotFound
	}
	return false, nil
}

func deleteByID(ctx context.Context, c *mongo.Collection, id string) (bool, error) {
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, translate(err)
	}
	return res.DeletedCount > 0, nil
}

func countWhere(ctx context.Context, c *mongo.Collection, filter bson.M) (int64, error) {
	n, err := c.CountDocuments(ctx, filter)
	return n, translate(err)
}
