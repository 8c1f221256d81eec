package sqlstore

import (
	"context"
	"fmt"

	"mediatheque/internal/domain/apperr"
	"mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	subscriberDomain "mediatheque/internal/domain/subscriber"
	"mediatheque/pkg/id"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var subscriberSortable = map[string]bool{
	subscriberDomain.SortLastName:        true,
	subscriberDomain.SortInscriptionDate: true,
}

type SubscriberRepository struct{ db *gorm.DB }

func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

var _ subscriberDomain.Repository = (*SubscriberRepository)(nil)

func (r *SubscriberRepository) scope(ctx context.Context, f subscriberDomain.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&subscriberRow{})
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}
	if f.ExcludeID != "" {
		q = q.Where("id <> ?", f.ExcludeID)
	}
	return q
}

func (r *SubscriberRepository) FindOne(ctx context.Context, f subscriberDomain.Filter) (*subscriberDomain.Subscriber, error) {
	var row subscriberRow
	if err := r.scope(ctx, f).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (r *SubscriberRepository) FindMany(ctx context.Context, f subscriberDomain.Filter, p query.Page) ([]subscriberDomain.Subscriber, error) {
	var rows []subscriberRow
	if err := paginate(r.scope(ctx, f), p, subscriberSortable).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]subscriberDomain.Subscriber, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *SubscriberRepository) Count(ctx context.Context, f subscriberDomain.Filter) (int64, error) {
	var n int64
	err := r.scope(ctx, f).Count(&n).Error
	return n, translate(err)
}

func (r *SubscriberRepository) Insert(ctx context.Context, s *subscriberDomain.Subscriber) (string, error) {
	if s.ID == "" {
		s.ID = id.NewID32()
	}
	if err := r.db.WithContext(ctx).Create(subscriberToRow(s)).Error; err != nil {
		return "", translate(err)
	}
	return s.ID, nil
}

func (r *SubscriberRepository) UpdateFields(ctx context.Context, subscriberID string, p subscriberDomain.Patch) error {
	set := map[string]any{}
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
		set["current_loans"] = snapshots(*p.CurrentLoans)
	}
	if p.LoanHistory != nil {
		set["loan_history"] = snapshots(*p.LoanHistory)
	}
	if len(set) == 0 {
		return r.mustExist(ctx, subscriberID)
	}
	res := r.db.WithContext(ctx).Model(&subscriberRow{}).Where("id = ?", subscriberID).Updates(set)
	return afterUpdate(ctx, r.db, &subscriberRow{}, subscriberID, res)
}

func (r *SubscriberRepository) Delete(ctx context.Context, subscriberID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", subscriberID).Delete(&subscriberRow{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SubscriberRepository) PushToArray(ctx context.Context, subscriberID string, field subscriberDomain.ArrayField, snap loan.Snapshot) error {
	return r.mutateArray(ctx, subscriberID, field, func(in []loan.Snapshot) []loan.Snapshot {
		return append(in, snap)
	})
}

func (r *SubscriberRepository) PullFromArray(ctx context.Context, subscriberID string, field subscriberDomain.ArrayField, m subscriberDomain.Matcher) error {
	return r.mutateArray(ctx, subscriberID, field, func(in []loan.Snapshot) []loan.Snapshot {
		out := make([]loan.Snapshot, 0, len(in))
		for _, s := range in {
			if !m.Matches(s) {
				out = append(out, s)
			}
		}
		return out
	})
}

// mutateArray rewrites one JSON array column under a row lock so concurrent
// pushes on the same subscriber do not drop each other's entries.
func (r *SubscriberRepository) mutateArray(ctx context.Context, subscriberID string, field subscriberDomain.ArrayField, fn func([]loan.Snapshot) []loan.Snapshot) error {
	if !field.Valid() {
		return fmt.Errorf("sqlstore: unknown array field %q", field)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row subscriberRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", subscriberID).
			First(&row).Error
		if err != nil {
			return translate(err)
		}
		var current []loan.Snapshot
		if field == subscriberDomain.FieldCurrentLoans {
			current = row.CurrentLoans
		} else {
			current = row.LoanHistory
		}
		next := datatypes.JSONSlice[loan.Snapshot](fn(append([]loan.Snapshot(nil), current...)))
		if next == nil {
			next = datatypes.JSONSlice[loan.Snapshot]{}
		}
		return translate(tx.Model(&subscriberRow{}).
			Where("id = ?", subscriberID).
			Update(string(field), next).Error)
	})
}

func (r *SubscriberRepository) mustExist(ctx context.Context, subscriberID string) error {
	ok, err := exists(ctx, r.db, &subscriberRow{}, subscriberID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrRecordNotFound
	}
	return nil
}
