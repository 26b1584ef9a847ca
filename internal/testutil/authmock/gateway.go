package authmock

import (
	"context"
	"errors"

	"mini-los/internal/domain/session"
)

var _ session.AuthGateway = (*Gateway)(nil)

var ErrNotImplemented = errors.New("authmock: method not implemented")

// Gateway is a function-backed mock that satisfies session.AuthGateway.
type Gateway struct {
	LoginFn    func(ctx context.Context, email, password string) (string, error)
	RegisterFn func(ctx context.Context, r session.Registration) (*session.User, error)
	MeFn       func(ctx context.Context) (*session.User, error)
}

func (m *Gateway) Login(ctx context.Context, email, password string) (string, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, email, password)
	}
	return "", ErrNotImplemented
}

func (m *Gateway) Register(ctx context.Context, r session.Registration) (*session.User, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, r)
	}
	return nil, ErrNotImplemented
}

func (m *Gateway) Me(ctx context.Context) (*session.User, error) {
	if m.MeFn != nil {
		return m.MeFn(ctx)
	}
	return nil, ErrNotImplemented
}
