package uowmock

import (
	"context"
	"errors"

	"mini-los/internal/sandbox"
)

// Ensure compile-time compliance
var _ sandbox.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies sandbox.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn            func(ctx context.Context, fn func(r sandbox.Repos) error) error
	WithinApplicationTxFn func(ctx context.Context, id uint64, fn func(r sandbox.Repos, a *sandbox.Application) error) error
}

func New() *UoW { return &UoW{} }

// Inline runs callbacks directly against repos, loading the locked
// application through repos.Applications.GetByIDForUpdate.
func Inline(repos sandbox.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(sandbox.Repos) error) error { return fn(repos) },
		WithinApplicationTxFn: func(ctx context.Context, id uint64, fn func(sandbox.Repos, *sandbox.Application) error) error {
			a, err := repos.Applications.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			return fn(repos, a)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

func (m *UoW) WithinTx(ctx context.Context, fn func(r sandbox.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinApplicationTx(ctx context.Context, id uint64, fn func(r sandbox.Repos, a *sandbox.Application) error) error {
	if m.WithinApplicationTxFn != nil {
		return m.WithinApplicationTxFn(ctx, id, fn)
	}
	return errUnimplemented
}
