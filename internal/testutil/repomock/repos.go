// Package repomock provides function-backed mocks of the sandbox
// repositories. Unset functions return ErrNotImplemented.
package repomock

import (
	"context"
	"errors"

	"mini-los/internal/domain/loan"
	"mini-los/internal/sandbox"
)

var (
	_ sandbox.UserRepository        = (*Users)(nil)
	_ sandbox.ApplicationRepository = (*Applications)(nil)
	_ sandbox.ResultRepository      = (*Results)(nil)
)

var ErrNotImplemented = errors.New("repomock: method not implemented")

type Users struct {
	CreateFn     func(ctx context.Context, u *sandbox.User) error
	GetByIDFn    func(ctx context.Context, id uint64) (*sandbox.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*sandbox.User, error)
}

func (m *Users) Create(ctx context.Context, u *sandbox.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return ErrNotImplemented
}

func (m *Users) GetByID(ctx context.Context, id uint64) (*sandbox.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m *Users) GetByEmail(ctx context.Context, email string) (*sandbox.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, ErrNotImplemented
}

type Applications struct {
	CreateFn           func(ctx context.Context, a *sandbox.Application) error
	SaveFn             func(ctx context.Context, a *sandbox.Application) error
	GetByIDFn          func(ctx context.Context, id uint64) (*sandbox.Application, error)
	GetByIDForUpdateFn func(ctx context.Context, id uint64) (*sandbox.Application, error)
	ListByUserFn       func(ctx context.Context, userID uint64) ([]sandbox.Application, error)
	ListFn             func(ctx context.Context, f loan.ListFilter) ([]sandbox.Application, error)
	CountByUserFn      func(ctx context.Context, userID uint64) (int64, error)
	ActiveByPANFn      func(ctx context.Context, userID uint64, pan string) (*sandbox.Application, error)
	CountByStatusFn    func(ctx context.Context) (map[string]int64, error)
}

func (m *Applications) Create(ctx context.Context, a *sandbox.Application) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return ErrNotImplemented
}

func (m *Applications) Save(ctx context.Context, a *sandbox.Application) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return ErrNotImplemented
}

func (m *Applications) GetByID(ctx context.Context, id uint64) (*sandbox.Application, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m *Applications) GetByIDForUpdate(ctx context.Context, id uint64) (*sandbox.Application, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m *Applications) ListByUser(ctx context.Context, userID uint64) ([]sandbox.Application, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	return nil, ErrNotImplemented
}

func (m *Applications) List(ctx context.Context, f loan.ListFilter) ([]sandbox.Application, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, ErrNotImplemented
}

func (m *Applications) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	if m.CountByUserFn != nil {
		return m.CountByUserFn(ctx, userID)
	}
	return 0, ErrNotImplemented
}

func (m *Applications) ActiveByPAN(ctx context.Context, userID uint64, pan string) (*sandbox.Application, error) {
	if m.ActiveByPANFn != nil {
		return m.ActiveByPANFn(ctx, userID, pan)
	}
	return nil, ErrNotImplemented
}

func (m *Applications) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx)
	}
	return nil, ErrNotImplemented
}

type Results struct {
	SaveKYCFn         func(ctx context.Context, r *sandbox.KYCRecord) error
	SaveCreditFn      func(ctx context.Context, r *sandbox.CreditRecord) error
	SaveEligibilityFn func(ctx context.Context, r *sandbox.EligibilityRecord) error
	LoadFn            func(ctx context.Context, applicationID uint64) (*sandbox.Results, error)
	ClearFn           func(ctx context.Context, applicationID uint64) error
}

func (m *Results) SaveKYC(ctx context.Context, r *sandbox.KYCRecord) error {
	if m.SaveKYCFn != nil {
		return m.SaveKYCFn(ctx, r)
	}
	return ErrNotImplemented
}

func (m *Results) SaveCredit(ctx context.Context, r *sandbox.CreditRecord) error {
	if m.SaveCreditFn != nil {
		return m.SaveCreditFn(ctx, r)
	}
	return ErrNotImplemented
}

func (m *Results) SaveEligibility(ctx context.Context, r *sandbox.EligibilityRecord) error {
	if m.SaveEligibilityFn != nil {
		return m.SaveEligibilityFn(ctx, r)
	}
	return ErrNotImplemented
}

func (m *Results) Load(ctx context.Context, applicationID uint64) (*sandbox.Results, error) {
	if m.LoadFn != nil {
		return m.LoadFn(ctx, applicationID)
	}
	return nil, ErrNotImplemented
}

func (m *Results) Clear(ctx context.Context, applicationID uint64) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx, applicationID)
	}
	return ErrNotImplemented
}
