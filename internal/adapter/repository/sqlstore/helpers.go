package sqlstore

import (
	"context"
	"errors"

	"mediatheque/internal/domain/apperr"
	"mediatheque/internal/domain/query"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// translate maps gorm errors onto the repository sentinels. It relies on
// gorm.Config.TranslateError being set by the db package.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.ErrRecordNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.ErrDuplicateKey, err)
	}
	return err
}

// paginate applies the window; only whitelisted columns may be sorted on.
// Ties are broken by id so pages never overlap.
func paginate(q *gorm.DB, p query.Page, sortable map[string]bool) *gorm.DB {
	for _, s := range p.Sort {
		if !sortable[s.Field] {
			continue
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Field}, Desc: s.Desc})
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	if p.Skip > 0 {
		q = q.Offset(int(p.Skip))
	}
	if p.Limit > 0 {
		q = q.Limit(int(p.Limit))
	}
	return q
}

// exists reports whether a row with id is present in model's table.
func exists(ctx context.Context, db *gorm.DB, model any, id string) (bool, error) {
	var n int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// afterUpdate turns a zero-row update into not-found when the row is gone.
// MySQL reports only changed rows, so zero rows can also mean "same values".
func afterUpdate(ctx context.Context, db *gorm.DB, model any, id string, res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	ok, err := exists(ctx, db, model, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrRecordNotFound
	}
	return nil
}
