package session

import (
	"context"
	"errors"
)

var (
	ErrNoSession = errors.New("no active session")
	ErrNotAdmin  = errors.New("admin privileges required")
)

// TokenKey is where the bearer token is persisted.
const TokenKey = "token"

type User struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// Session is the authenticated context handed to everything that talks to
// the loan service. A nil *Session means "logged out".
type Session struct {
	Token string
	User  *User
}

func (s *Session) Active() bool { return s != nil && s.Token != "" }

func (s *Session) Admin() bool { return s.Active() && s.User != nil && s.User.IsAdmin }

// Store persists the single bearer token across restarts.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Credentials supplies the bearer token to API calls and is told when the
// server rejects it.
type Credentials interface {
	Token() string
	Invalidate(ctx context.Context)
}

type Registration struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,min=6"`
}

// AuthGateway is the remote authentication service.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (token string, err error)
	Register(ctx context.Context, r Registration) (*User, error)
	Me(ctx context.Context) (*User, error)
}
