package sqlstore

import (
	"context"
	"time"

	"mediatheque/internal/domain/apperr"
	documentDomain "mediatheque/internal/domain/document"
	"mediatheque/internal/domain/query"
	"mediatheque/pkg/id"

	"gorm.io/gorm"
)

var documentSortable = map[string]bool{
	documentDomain.SortTitle:           true,
	documentDomain.SortPublicationDate: true,
}

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

var _ documentDomain.Repository = (*DocumentRepository)(nil)

func (r *DocumentRepository) scope(ctx context.Context, f documentDomain.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&documentRow{})
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.ISBN != "" {
		q = q.Where("isbn = ?", f.ISBN)
	}
	if f.ExcludeID != "" {
		q = q.Where("id <> ?", f.ExcludeID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", string(f.Type))
	}
	if f.Available != nil {
		q = q.Where("available = ?", *f.Available)
	}
	return q
}

func (r *DocumentRepository) FindOne(ctx context.Context, f documentDomain.Filter) (*documentDomain.Document, error) {
	var row documentRow
	if err := r.scope(ctx, f).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (r *DocumentRepository) FindMany(ctx context.Context, f documentDomain.Filter, p query.Page) ([]documentDomain.Document, error) {
	var rows []documentRow
	if err := paginate(r.scope(ctx, f), p, documentSortable).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]documentDomain.Document, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *DocumentRepository) Count(ctx context.Context, f documentDomain.Filter) (int64, error) {
	var n int64
	err := r.scope(ctx, f).Count(&n).Error
	return n, translate(err)
}

func (r *DocumentRepository) Insert(ctx context.Context, d *documentDomain.Document) (string, error) {
	if d.ID == "" {
		d.ID = id.NewID32()
	}
	if err := r.db.WithContext(ctx).Create(documentToRow(d)).Error; err != nil {
		return "", translate(err)
	}
	return d.ID, nil
}

func (r *DocumentRepository) UpdateFields(ctx context.Context, documentID string, p documentDomain.Patch) error {
	set := map[string]any{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Author != nil {
		set["author"] = *p.Author
	}
	if p.Type != nil {
		set["type"] = string(*p.Type)
	}
	if p.ISBN != nil {
		set["isbn"] = optionalISBN(*p.ISBN)
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
	if len(set) == 0 {
		ok, err := exists(ctx, r.db, &documentRow{}, documentID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrRecordNotFound
		}
		return nil
	}
	res := r.db.WithContext(ctx).Model(&documentRow{}).Where("id = ?", documentID).Updates(set)
	return afterUpdate(ctx, r.db, &documentRow{}, documentID, res)
}

func (r *DocumentRepository) SwapAvailable(ctx context.Context, documentID string, expected, next bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&documentRow{}).
		Where("id = ? AND available = ?", documentID, expected).
		Update("available", next)
	ok, err := r.conditional(ctx, documentID, res)
	if ok || err != nil {
		return ok, err
	}
	if expected != next {
		return false, nil
	}
	// expected == next against a matching row changes nothing on MySQL
	return r.availableIs(ctx, documentID, expected)
}

func (r *DocumentRepository) availableIs(ctx context.Context, documentID string, v bool) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&documentRow{}).
		Where("id = ? AND available = ?", documentID, v).
		Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

// conditional runs a guarded update and tells "no match" apart from "no row".
func (r *DocumentRepository) conditional(ctx context.Context, documentID string, res *gorm.DB) (bool, error) {
	if res.Error != nil {
		return false, translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	ok, err := exists(ctx, r.db, &documentRow{}, documentID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, apperr.ErrRecordNotFound
	}
	return false, nil
}

func (r *DocumentRepository) Claim(ctx context.Context, documentID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&documentRow{}).
		Where("id = ? AND available = ?", documentID, true).
		Updates(map[string]any{"available": false, "claimed_at": at.UTC()})
	return r.conditional(ctx, documentID, res)
}

func (r *DocumentRepository) ReleaseStaleClaim(ctx context.Context, documentID string, before time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&documentRow{}).
		Where("id = ? AND available = ? AND (claimed_at IS NULL OR claimed_at < ?)", documentID, false, before.UTC()).
		Updates(map[string]any{"available": true, "claimed_at": nil})
	return r.conditional(ctx, documentID, res)
}

func (r *DocumentRepository) Delete(ctx context.Context, documentID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", documentID).Delete(&documentRow{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}
