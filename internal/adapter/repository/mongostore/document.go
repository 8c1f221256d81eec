package mongostore

import (
	"context"
	"time"

	documentDomain "mediatheque/internal/domain/document"
	"mediatheque/internal/domain/query"
	"mediatheque/pkg/id"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var documentSortable = map[string]bool{
	documentDomain.SortTitle:           true,
	documentDomain.SortPublicationDate: true,
}

type DocumentRepository struct{ col *mongo.Collection }

func NewDocumentRepository(col *mongo.Collection) *DocumentRepository {
	return &DocumentRepository{col: col}
}

var _ documentDomain.Repository = (*DocumentRepository)(nil)

func documentFilter(f documentDomain.Filter) bson.M {
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
	if f.ISBN != "" {
		m["isbn"] = f.ISBN
	}
	if f.Type != "" {
		m["type"] = f.Type
	}
	if f.Available != nil {
		m["available"] = *f.Available
	}
	return m
}

func (r *DocumentRepository) FindOne(ctx context.Context, f documentDomain.Filter) (*documentDomain.Document, error) {
	var out documentDomain.Document
	if err := r.col.FindOne(ctx, documentFilter(f)).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *DocumentRepository) FindMany(ctx context.Context, f documentDomain.Filter, p query.Page) ([]documentDomain.Document, error) {
	cur, err := r.col.Find(ctx, documentFilter(f), findOptions(p, documentSortable))
	if err != nil {
		return nil, translate(err)
	}
	out := []documentDomain.Document{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *DocumentRepository) Count(ctx context.Context, f documentDomain.Filter) (int64, error) {
	return countWhere(ctx, r.col, documentFilter(f))
}

func (r *DocumentRepository) Insert(ctx context.Context, d *documentDomain.Document) (string, error) {
	if d.ID == "" {
		d.ID = id.NewID32()
	}
	if _, err := r.col.InsertOne(ctx, d); err != nil {
		return "", translate(err)
	}
	return d.ID, nil
}

func (r *DocumentRepository) UpdateFields(ctx context.Context, documentID string, p documentDomain.Patch) error {
	set := bson.M{}
	unset := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Author != nil {
		set["author"] = *p.Author
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	if p.ISBN != nil {
		// absent rather than "" so the sparse unique index ignores it
		if *p.ISBN == "" {
			unset["isbn"] = ""
		} else {
			set["isbn"] = *p.ISBN
		}
	}
	if p.Genre != nil {
		set["genre"] = *p.Genre
	}
	if p.PublicationDate != nil {
		set["publication_date"] = p.PublicationDate.UTC()
	}
	if p.Available != nil {
		set["available"] = *p.Available
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return updateByID(ctx, r.col, documentID, update)
}

func (r *DocumentRepository) SwapAvailable(ctx context.Context, documentID string, expected, next bool) (bool, error) {
	return conditionalUpdate(ctx, r.col, documentID,
		bson.M{"_id": documentID, "available": expected},
		bson.M{"$set": bson.M{"available": next}},
	)
}

func (r *DocumentRepository) Claim(ctx context.Context, documentID string, at time.Time) (bool, error) {
	return conditionalUpdate(ctx, r.col, documentID,
		bson.M{"_id": documentID, "available": true},
		bson.M{"$set": bson.M{"available": false, "claimed_at": at.UTC()}},
	)
}

func (r *DocumentRepository) ReleaseStaleClaim(ctx context.Context, documentID string, before time.Time) (bool, error) {
	return conditionalUpdate(ctx, r.col, documentID,
		bson.M{
			"_id":       documentID,
			"available": false,
			"$or": bson.A{
				bson.M{"claimed_at": nil},
				bson.M{"claimed_at": bson.M{"$lt": before.UTC()}},
			},
		},
		bson.M{"$set": bson.M{"available": true}, "$unset": bson.M{"claimed_at": ""}},
	)
}

func (r *DocumentRepository) Delete(ctx context.Context, documentID string) (bool, error) {
	return deleteByID(ctx, r.col, documentID)
}
