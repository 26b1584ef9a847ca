package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mini-los/internal/sandbox"
)

var _ sandbox.ResultRepository = (*ResultRepository)(nil)

// ResultRepository keeps at most one record of each kind per application.
type ResultRepository struct{ db *gorm.DB }

func NewResultRepository(db *gorm.DB) *ResultRepository { return &ResultRepository{db: db} }

func (r *ResultRepository) upsert(ctx context.Context, rec any) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "loan_application_id"}},
		UpdateAll: true,
	}).Create(rec).Error
}

func (r *ResultRepository) SaveKYC(ctx context.Context, rec *sandbox.KYCRecord) error {
	return r.upsert(ctx, rec)
}

func (r *ResultRepository) SaveCredit(ctx context.Context, rec *sandbox.CreditRecord) error {
	return r.upsert(ctx, rec)
}

func (r *ResultRepository) SaveEligibility(ctx context.Context, rec *sandbox.EligibilityRecord) error {
	return r.upsert(ctx, rec)
}

// first loads the record for applicationID into dst; a missing row is not
// an error.
func (r *ResultRepository) first(ctx context.Context, applicationID uint64, dst any) (bool, error) {
	err := r.db.WithContext(ctx).Where("loan_application_id = ?", applicationID).First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *ResultRepository) Load(ctx context.Context, applicationID uint64) (*sandbox.Results, error) {
	var (
		out  sandbox.Results
		kyc  sandbox.KYCRecord
		cred sandbox.CreditRecord
		elig sandbox.EligibilityRecord
	)
	if ok, err := r.first(ctx, applicationID, &kyc); err != nil {
		return nil, err
	} else if ok {
		out.KYC = &kyc
	}
	if ok, err := r.first(ctx, applicationID, &cred); err != nil {
		return nil, err
	} else if ok {
		out.Credit = &cred
	}
	if ok, err := r.first(ctx, applicationID, &elig); err != nil {
		return nil, err
	} else if ok {
		out.Eligibility = &elig
	}
	return &out, nil
}

func (r *ResultRepository) Clear(ctx context.Context, applicationID uint64) error {
	db := r.db.WithContext(ctx)
	for _, m := range []any{&sandbox.KYCRecord{}, &sandbox.CreditRecord{}, &sandbox.EligibilityRecord{}} {
		if err := db.Where("loan_application_id = ?", applicationID).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}
