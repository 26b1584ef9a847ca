package sandbox

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"mini-los/internal/domain/loan"
	"mini-los/internal/domain/session"
	"mini-los/internal/validation"
)

const (
	APIPrefix = "/api/v1"
	userKey   = "sandbox_user"
)

type Server struct {
	svc  *Service
	idem echo.MiddlewareFunc
	log  *zap.Logger
}

type ServerOption func(*Server)

// WithIdempotency runs state-advancing routes behind mw.
func WithIdempotency(mw echo.MiddlewareFunc) ServerOption { return func(s *Server) { s.idem = mw } }

func WithLogger(l *zap.Logger) ServerOption { return func(s *Server) { s.log = l } }

func NewServer(svc *Service, opts ...ServerOption) *Server {
	s := &Server{svc: svc, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Echo builds the HTTP server with every route registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	s.Register(e)
	return e
}

// SubjectOf keys idempotency entries by the authenticated user.
func SubjectOf(c echo.Context) string {
	if u, ok := c.Get(userKey).(*User); ok && u != nil {
		return strconv.FormatUint(u.ID, 10)
	}
	return ""
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	g := e.Group(APIPrefix)
	user := s.requireUser(false)
	admin := s.requireUser(true)
	advance := []echo.MiddlewareFunc{user}
	retry := []echo.MiddlewareFunc{admin}
	if s.idem != nil {
		advance = append(advance, s.idem)
		retry = append(retry, s.idem)
	}

	g.POST("/auth/register", s.register)
	g.POST("/auth/login", s.login)
	g.GET("/auth/me", s.me, user)

	g.POST("/loan/create", s.createLoan, advance...)
	g.GET("/loan/my-loans", s.myLoans, user)
	g.GET("/loan/:id", s.getLoan, user)
	g.PUT("/loan/:id", s.updateLoan, user)
	g.POST("/loan/:id/kyc", s.submitKYC, advance...)
	g.POST("/loan/:id/credit-check", s.creditCheck, advance...)

	g.POST("/kyc/:id/retry", s.retryKYC, retry...)

	g.GET("/admin/loans", s.listLoans, admin)
	g.GET("/admin/loans/stats", s.stats, admin)
	g.GET("/admin/loans/:id/history", s.history, admin)
}

// requireUser authenticates the bearer token. Admin routes answer 403 for
// everyone else.
func (s *Server) requireUser(adminOnly bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, tok, ok := strings.Cut(h, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tok) == "" {
				c.Response().Header().Set("WWW-Authenticate", "Bearer")
				return s.fail(c, unauthorized("Not authenticated"))
			}
			u, err := s.svc.Authenticate(c.Request().Context(), strings.TrimSpace(tok))
			if err != nil {
				return s.fail(c, err)
			}
			if adminOnly && !u.IsAdmin {
				return s.fail(c, forbidden("Not enough permissions"))
			}
			c.Set(userKey, u)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) *User {
	u, _ := c.Get(userKey).(*User)
	return u
}

func (s *Server) fail(c echo.Context, err error) error {
	var (
		p  *Problem
		ve *validation.Error
	)
	switch {
	case errors.As(err, &ve):
		out := make([]validationDetail, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			out = append(out, validationDetail{Loc: []string{"body", f.Field}, Msg: f.Field + ": " + f.Message, Type: "value_error"})
		}
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"detail": out})
	case errors.As(err, &p):
		if p.Code >= http.StatusInternalServerError {
			s.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.JSON(p.Code, map[string]string{"detail": p.Detail})
	}
	s.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"detail": "Internal server error"})
}

// errorHandler renders routing and binding errors in the same shape.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		_ = c.JSON(he.Code, map[string]string{"detail": msg})
		return
	}
	_ = s.fail(c, err)
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &Problem{Code: http.StatusUnprocessableEntity, Detail: "id must be a positive integer"}
	}
	return id, nil
}

// ----- auth -----

func (s *Server) register(c echo.Context) error {
	var r session.Registration
	if err := c.Bind(&r); err != nil {
		return s.fail(c, badRequest("invalid body"))
	}
	u, err := s.svc.Register(c.Request().Context(), r)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, toUserDTO(u))
}

// login takes the OAuth2 password form: username and password.
func (s *Server) login(c echo.Context) error {
	username, password := c.FormValue("username"), c.FormValue("password")
	if username == "" || password == "" {
		return s.fail(c, &Problem{Code: http.StatusUnprocessableEntity, Detail: "username and password are required"})
	}
	tok, err := s.svc.Login(c.Request().Context(), username, password)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, tokenDTO{AccessToken: tok, TokenType: "bearer"})
}

func (s *Server) me(c echo.Context) error {
	return c.JSON(http.StatusOK, toUserDTO(currentUser(c)))
}

// ----- applications -----

func (s *Server) createLoan(c echo.Context) error {
	var p loan.Profile
	if err := c.Bind(&p); err != nil {
		return s.fail(c, &Problem{Code: http.StatusUnprocessableEntity, Detail: "invalid body", Err: err})
	}
	a, err := s.svc.Create(c.Request().Context(), currentUser(c), p)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, toApplicationDTO(a, nil))
}

func (s *Server) myLoans(c echo.Context) error {
	apps, err := s.svc.MyApplications(c.Request().Context(), currentUser(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toApplicationDTOs(apps))
}

func (s *Server) getLoan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	a, res, err := s.svc.Get(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toApplicationDTO(a, res))
}

func (s *Server) updateLoan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	var upd loan.Update
	if err := c.Bind(&upd); err != nil {
		return s.fail(c, &Problem{Code: http.StatusUnprocessableEntity, Detail: "invalid body", Err: err})
	}
	a, err := s.svc.Update(c.Request().Context(), currentUser(c), id, upd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toApplicationDTO(a, nil))
}

func (s *Server) submitKYC(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	rep, err := s.svc.SubmitKYC(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) creditCheck(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	rep, err := s.svc.RunCreditCheck(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (s *Server) retryKYC(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	rep, err := s.svc.RetryKYC(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// ----- admin -----

func (s *Server) listLoans(c echo.Context) error {
	var f loan.ListFilter
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		st, err := loan.ParseStatus(strings.ToUpper(raw))
		if err != nil {
			return s.fail(c, &Problem{Code: http.StatusUnprocessableEntity, Detail: "unknown status " + raw})
		}
		f.Status = st
	}
	for name, dst := range map[string]*int{"skip": &f.Skip, "limit": &f.Limit} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return s.fail(c, &Problem{Code: http.StatusUnprocessableEntity, Detail: name + " must be a non-negative integer"})
		}
		*dst = n
	}
	apps, err := s.svc.List(c.Request().Context(), f)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toApplicationDTOs(apps))
}

func (s *Server) stats(c echo.Context) error {
	st, err := s.svc.Stats(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) history(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return s.fail(c, err)
	}
	a, res, err := s.svc.History(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, toHistoryDTO(a, res))
}
