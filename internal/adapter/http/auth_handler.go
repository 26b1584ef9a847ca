package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"mini-los/internal/adapter/middleware"
	"mini-los/internal/domain/session"
	"mini-los/internal/usecase/auth"
)

// Sessions is the process-wide login state.
type Sessions interface {
	Login(ctx context.Context, email, password string) (*session.User, error)
	Register(ctx context.Context, r session.Registration) (*session.User, error)
	Logout(ctx context.Context)
}

// AuthHandler signs users in and out. Session-scoped views are torn down by
// the Sessions implementation, not here.
type AuthHandler struct {
	sessions Sessions
}

func NewAuthHandler(s Sessions) *AuthHandler {
	return &AuthHandler{sessions: s}
}

type loginReq struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Next     string `json:"next"`
}

type authResp struct {
	User     *session.User `json:"user"`
	Redirect string        `json:"redirect"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	u, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// a bad password is not a session redirect
		return c.JSON(statusFor(err), ErrorResponse{Error: errorBody(err, "").Error})
	}
	next := req.Next
	if next == "" {
		next = c.QueryParam("next")
	}
	return c.JSON(http.StatusOK, authResp{User: u, Redirect: safeNext(next)})
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req session.Registration
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}
	u, err := h.sessions.Register(c.Request().Context(), req)
	if err != nil {
		return c.JSON(statusFor(err), ErrorResponse{Error: errorBody(err, "").Error})
	}
	return c.JSON(http.StatusCreated, authResp{User: u, Redirect: "/"})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]string{"redirect": auth.LoginPath})
}

// Me returns the user resolved by the session middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.UserFrom(c))
}
