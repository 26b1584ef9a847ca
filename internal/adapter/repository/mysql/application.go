package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mini-los/internal/domain/loan"
	"mini-los/internal/sandbox"
)

var _ sandbox.ApplicationRepository = (*ApplicationRepository)(nil)

type ApplicationRepository struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *sandbox.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, a *sandbox.Application) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uint64) (*sandbox.Application, error) {
	var out sandbox.Application
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// GetByIDForUpdate takes a row lock; SQLite ignores the clause and
// serialises writers instead.
func (r *ApplicationRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*sandbox.Application, error) {
	var out sandbox.Application
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&out, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *ApplicationRepository) ListByUser(ctx context.Context, userID uint64) ([]sandbox.Application, error) {
	var out []sandbox.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// List returns applications newest first, optionally for one status.
func (r *ApplicationRepository) List(ctx context.Context, f loan.ListFilter) ([]sandbox.Application, error) {
	q := r.db.WithContext(ctx).Model(&sandbox.Application{})
	if f.Status.Valid() {
		q = q.Where("status = ?", f.Status.String())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Skip > 0 {
		q = q.Offset(f.Skip)
	}
	var out []sandbox.Application
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *ApplicationRepository) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&sandbox.Application{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *ApplicationRepository) ActiveByPAN(ctx context.Context, userID uint64, pan string) (*sandbox.Application, error) {
	active := make([]string, 0, 5)
	for _, st := range loan.Statuses() {
		if !loan.IsComplete(st) {
			active = append(active, st.String())
		}
	}
	var out sandbox.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND pan = ? AND status IN ?", userID, pan, active).
		Order("id DESC").
		First(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *ApplicationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&sandbox.Application{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
