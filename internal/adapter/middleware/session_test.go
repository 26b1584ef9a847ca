package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"mini-los/internal/domain/session"
	"mini-los/internal/usecase/auth"
)

func guarded(g Gate, admin bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	grp := e.Group("/admin", RequireSession(g, admin))
	grp.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"user": UserFrom(c)})
	})
	return e
}

func TestRequireSession(t *testing.T) {
	admin := &session.User{ID: 1, IsAdmin: true}
	cases := []struct {
		name     string
		verdict  auth.Verdict
		wantCode int
		wantKey  string
		wantVal  string
	}{
		{"redirect", auth.Verdict{Decision: auth.RedirectToLogin, Redirect: "/auth?next=%2Fadmin"}, http.StatusUnauthorized, "redirect", "/auth?next=%2Fadmin"},
		{"denied", auth.Verdict{Decision: auth.AccessDenied}, http.StatusForbidden, "logout", "/auth/logout"},
		{"allowed", auth.Verdict{Decision: auth.Allow, User: admin}, http.StatusOK, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotNext string
			var gotAdmin bool
			g := GateFunc(func(_ context.Context, next string, requireAdmin bool) (auth.Verdict, error) {
				gotNext, gotAdmin = next, requireAdmin
				return tc.verdict, nil
			})
			rec := httptest.NewRecorder()
			guarded(g, true).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d; body=%s", rec.Code, tc.wantCode, rec.Body.String())
			}
			if gotNext != "/admin" || !gotAdmin {
				t.Fatalf("gate called with %q admin=%v", gotNext, gotAdmin)
			}
			if tc.wantKey != "" {
				var body map[string]string
				_ = json.Unmarshal(rec.Body.Bytes(), &body)
				if body[tc.wantKey] != tc.wantVal {
					t.Fatalf("%s = %q, want %q", tc.wantKey, body[tc.wantKey], tc.wantVal)
				}
			} else {
				var body struct {
					User session.User `json:"user"`
				}
				_ = json.Unmarshal(rec.Body.Bytes(), &body)
				if body.User.ID != 1 {
					t.Fatalf("user not passed to handler: %s", rec.Body.String())
				}
			}
		})
	}
}

func TestRequireSession_GateError(t *testing.T) {
	g := GateFunc(func(context.Context, string, bool) (auth.Verdict, error) {
		return auth.Verdict{}, errors.New("dial tcp: connection refused")
	})
	rec := httptest.NewRecorder()
	guarded(g, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", rec.Code)
	}
}
