package auth

import (
	"context"
	"errors"
	"net/url"

	"mini-los/internal/domain/session"
)

type Decision uint8

const (
	Allow Decision = iota
	RedirectToLogin
	AccessDenied
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case AccessDenied:
		return "access_denied"
	}
	return "unknown"
}

const (
	LoginPath  = "/auth"
	LogoutPath = "/auth/logout"
)

type Verdict struct {
	Decision Decision
	User     *session.User
	Redirect string // login URL carrying the intended destination
}

// LoginURL builds the login location that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// Gate decides whether the current session may enter the view at next.
// Errors other than a missing session (e.g. the server is down) are returned
// as-is so callers can show them instead of bouncing to login.
func (m *Manager) Gate(ctx context.Context, next string, requireAdmin bool) (Verdict, error) {
	u, err := m.Current(ctx)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return Verdict{Decision: RedirectToLogin, Redirect: LoginURL(next)}, nil
	case err != nil:
		return Verdict{}, err
	}
	if requireAdmin && !u.IsAdmin {
		return Verdict{Decision: AccessDenied, User: u}, nil
	}
	return Verdict{Decision: Allow, User: u}, nil
}
