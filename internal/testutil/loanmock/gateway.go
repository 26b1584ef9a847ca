package loanmock

import (
	"context"
	"errors"

	domain "mini-los/internal/domain/loan"
)

var _ domain.Gateway = (*Gateway)(nil)

var ErrNotImplemented = errors.New("loanmock: method not implemented")

// Gateway is a function-backed mock that satisfies domain.Gateway.
// Unset functions return ErrNotImplemented.
type Gateway struct {
	CreateFn         func(ctx context.Context, p domain.Profile) (*domain.Application, error)
	GetFn            func(ctx context.Context, id uint64) (*domain.Application, error)
	UpdateFn         func(ctx context.Context, id uint64, u domain.Update) (*domain.Application, error)
	MyLoansFn        func(ctx context.Context) ([]domain.Application, error)
	SubmitKYCFn      func(ctx context.Context, id uint64) error
	RunCreditCheckFn func(ctx context.Context, id uint64) error
	RetryKYCFn       func(ctx context.Context, id uint64) error
	AllLoansFn       func(ctx context.Context, f domain.ListFilter) ([]domain.Application, error)
	StatsFn          func(ctx context.Context) (*domain.Stats, error)
	HistoryFn        func(ctx context.Context, id uint64) (*domain.History, error)
}

func (m *Gateway) Create(ctx context.Context, p domain.Profile) (*domain.Application, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil, ErrNotImplemented
}

func (m *Gateway) Get(ctx context.Context, id uint64) (*domain.Application, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	return nil, ErrNotImplemented
}

func (m *Gateway) Update(ctx context.Context, id uint64, u domain.Update) (*domain.Application, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, u)
	}
	return nil, ErrNotImplemented
}

func (m *Gateway) MyLoans(ctx context.Context) ([]domain.Application, error) {
	if m.MyLoansFn != nil {
		return m.MyLoansFn(ctx)
	}
	return nil, ErrNotImplemented
}

func (m *Gateway) SubmitKYC(ctx context.Context, id uint64) error {
	if m.SubmitKYCFn != nil {
		return m.SubmitKYCFn(ctx, id)
	}
	return ErrNotImplemented
}

func (m *Gateway) RunCreditCheck(ctx context.Context, id uint64) error {
	if m.RunCreditCheckFn != nil {
		return m.RunCreditCheckFn(ctx, id)
	}
	return ErrNotImplemented
}

func (m *Gateway) RetryKYC(ctx context.Context, id uint64) error {
	if m.RetryKYCFn != nil {
		return m.RetryKYCFn(ctx, id)
	}
	return ErrNotImplemented
}

func (m *Gateway) AllLoans(ctx context.Context, f domain.ListFilter) ([]domain.Application, error) {
	if m.AllLoansFn != nil {
		return m.AllLoansFn(ctx, f)
	}
	return nil, ErrNotImplemented
}

func (m *Gateway) Stats(ctx context.Context) (*domain.Stats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx)
	}
	return nil, ErrNotImplemented
}

func (m *Gateway) History(ctx context.Context, id uint64) (*domain.History, error) {
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx, id)
	}
	return nil, ErrNotImplemented
}
