package sqlstore

import (
	"context"

	"mediatheque/internal/domain/apperr"
	loanDomain "mediatheque/internal/domain/loan"
	"mediatheque/internal/domain/query"
	"mediatheque/pkg/id"

	"gorm.io/gorm"
)

var loanSortable = map[string]bool{
	loanDomain.SortLoanDate: true,
	loanDomain.SortDueDate:  true,
}

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

var _ loanDomain.Repository = (*LoanRepository)(nil)

func (r *LoanRepository) scope(ctx context.Context, f loanDomain.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&loanRow{})
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.SubscriberID != "" {
		q = q.Where("subscriber_id = ?", f.SubscriberID)
	}
	if f.DocumentID != "" {
		q = q.Where("document_id = ?", f.DocumentID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	return q
}

func (r *LoanRepository) FindOne(ctx context.Context, f loanDomain.Filter) (*loanDomain.Loan, error) {
	var row loanRow
	if err := r.scope(ctx, f).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	out := row.toDomain()
	return &out, nil
}

func (r *LoanRepository) FindMany(ctx context.Context, f loanDomain.Filter, p query.Page) ([]loanDomain.Loan, error) {
	var rows []loanRow
	if err := paginate(r.scope(ctx, f), p, loanSortable).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]loanDomain.Loan, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *LoanRepository) Count(ctx context.Context, f loanDomain.Filter) (int64, error) {
	var n int64
	err := r.scope(ctx, f).Count(&n).Error
	return n, translate(err)
}

func (r *LoanRepository) Insert(ctx context.Context, l *loanDomain.Loan) (string, error) {
	if l.ID == "" {
		l.ID = id.NewID32()
	}
	if err := r.db.WithContext(ctx).Create(loanToRow(l)).Error; err != nil {
		return "", translate(err)
	}
	return l.ID, nil
}

func loanPatchColumns(p loanDomain.Patch) map[string]any {
	set := map[string]any{}
	if p.DueDate != nil {
		set["due_date"] = p.DueDate.UTC()
	}
	if p.ReturnDate != nil {
		set["return_date"] = p.ReturnDate.UTC()
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	return set
}

func (r *LoanRepository) UpdateFields(ctx context.Context, loanID string, p loanDomain.Patch) error {
	set := loanPatchColumns(p)
	if len(set) == 0 {
		ok, err := exists(ctx, r.db, &loanRow{}, loanID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrRecordNotFound
		}
		return nil
	}
	res := r.db.WithContext(ctx).Model(&loanRow{}).Where("id = ?", loanID).Updates(set)
	return afterUpdate(ctx, r.db, &loanRow{}, loanID, res)
}

func (r *LoanRepository) CompareAndUpdate(ctx context.Context, loanID string, expected loanDomain.Status, p loanDomain.Patch) (bool, error) {
	set := loanPatchColumns(p)
	if len(set) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&loanRow{}).
		Where("id = ? AND status = ?", loanID, string(expected)).
		Updates(set)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var row loanRow
	if err := r.db.WithContext(ctx).Where("id = ?", loanID).First(&row).Error; err != nil {
		return false, translate(err)
	}
	// zero changed rows on a row still in expected means the values were
	// already in place (MySQL counts changed rows only)
	return row.Status == string(expected) && (p.Status == nil || *p.Status == expected), nil
}

func (r *LoanRepository) Delete(ctx context.Context, loanID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", loanID).Delete(&loanRow{})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}
