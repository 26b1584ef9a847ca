package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mini-los/internal/domain/session"
	"mini-los/internal/usecase/auth"
)

// UserKey is the echo context key holding the authenticated *session.User.
const UserKey = "user"

// Gate decides whether the current session may enter a view.
type Gate interface {
	Gate(ctx context.Context, next string, requireAdmin bool) (auth.Verdict, error)
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context, next string, requireAdmin bool) (auth.Verdict, error)

func (f GateFunc) Gate(ctx context.Context, next string, requireAdmin bool) (auth.Verdict, error) {
	return f(ctx, next, requireAdmin)
}

// RequireSession guards a route group. Anonymous callers get 401 with the
// login location; non-admins on admin routes get 403 with the logout link.
func RequireSession(g Gate, admin bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, err := g.Gate(c.Request().Context(), c.Request().URL.RequestURI(), admin)
			if err != nil {
				msg := "session check failed"
				var um interface{ UserMessage() string }
				if errors.As(err, &um) {
					msg = um.UserMessage()
				}
				return c.JSON(http.StatusBadGateway, map[string]string{"error": msg})
			}
			switch v.Decision {
			case auth.RedirectToLogin:
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":    "authentication required",
					"redirect": v.Redirect,
				})
			case auth.AccessDenied:
				return c.JSON(http.StatusForbidden, map[string]string{
					"error":  "access denied",
					"logout": auth.LogoutPath,
				})
			case auth.Allow:
				c.Set(UserKey, v.User)
				return next(c)
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "unknown session decision"})
		}
	}
}

// UserFrom returns the user stored by RequireSession, or nil.
func UserFrom(c echo.Context) *session.User {
	u, _ := c.Get(UserKey).(*session.User)
	return u
}
