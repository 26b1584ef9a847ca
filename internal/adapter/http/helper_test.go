package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"mini-los/internal/adapter/middleware"
	"mini-los/internal/domain/loan"
	"mini-los/internal/domain/session"
	"mini-los/internal/testutil/loanmock"
	"mini-los/internal/usecase/admin"
	"mini-los/internal/usecase/auth"
	"mini-los/internal/usecase/workflow"
	"mini-los/internal/validation"
)

// ---- helpers ----

func containsFieldMsg(list []validation.FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func mustJSON(v any) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func fixedValidator() *validation.Validator {
	return validation.NewWithClock(func() time.Time { return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) })
}

type fakeSessions struct {
	user     *session.User
	loginErr error
	logouts  int
	onEnd    func()
}

func (f *fakeSessions) Login(ctx context.Context, email, password string) (*session.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.user, nil
}

func (f *fakeSessions) Register(ctx context.Context, r session.Registration) (*session.User, error) {
	return &session.User{ID: 7, FullName: r.FullName, Email: r.Email}, nil
}

func (f *fakeSessions) Logout(context.Context) {
	f.logouts++
	if f.onEnd != nil {
		f.onEnd()
	}
}

// allowAs lets every request through as u; admin routes need u.IsAdmin.
func allowAs(u *session.User) middleware.Gate {
	return middleware.GateFunc(func(_ context.Context, next string, requireAdmin bool) (auth.Verdict, error) {
		if u == nil {
			return auth.Verdict{Decision: auth.RedirectToLogin, Redirect: auth.LoginURL(next)}, nil
		}
		if requireAdmin && !u.IsAdmin {
			return auth.Verdict{Decision: auth.AccessDenied, User: u}, nil
		}
		return auth.Verdict{Decision: auth.Allow, User: u}, nil
	})
}

type bff struct {
	e        *echo.Echo
	apply    *ApplyHandler
	sessions *fakeSessions
}

func newBFF(gw *loanmock.Gateway, u *session.User) *bff {
	v := fixedValidator()
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator(v)

	wf := workflow.NewUsecase(gw, v, nil)
	apply := NewApplyHandler(wf)
	sess := &fakeSessions{user: u, onEnd: apply.Detach}
	Register(e, allowAs(u), Handlers{
		Health: NewHandler(nil),
		Auth:   NewAuthHandler(sess),
		Apply:  apply,
		Loans:  NewLoansHandler(wf),
		Admin:  NewAdminHandler(admin.NewUsecase(gw, wf, nil)),
	})
	return &bff{e: e, apply: apply, sessions: sess}
}

func (b *bff) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = mustJSON(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
	}
	return v
}

func profileBody(income, amount int64) map[string]any {
	return map[string]any{
		"full_name":      "Asha Rao",
		"dob":            "1990-05-04",
		"pan":            "abcde1234f",
		"mobile":         "98765 43210",
		"monthly_income": decimal.NewFromInt(income),
		"loan_amount":    decimal.NewFromInt(amount),
	}
}

func draftGateway(status *loan.Status) *loanmock.Gateway {
	return &loanmock.Gateway{
		CreateFn: func(ctx context.Context, p loan.Profile) (*loan.Application, error) {
			*status = loan.StatusDraft
			return &loan.Application{ID: 11, Profile: p, Status: *status}, nil
		},
		GetFn: func(ctx context.Context, id uint64) (*loan.Application, error) {
			return &loan.Application{ID: id, Status: *status}, nil
		},
	}
}
