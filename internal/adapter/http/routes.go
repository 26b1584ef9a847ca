package http

import (
	"github.com/labstack/echo/v4"

	"mini-los/internal/adapter/middleware"
	"mini-los/internal/usecase/auth"
)

// Handlers groups everything the BFF routes to.
type Handlers struct {
	Health *Handler
	Auth   *AuthHandler
	Apply  *ApplyHandler
	Loans  *LoansHandler
	Admin  *AdminHandler
}

// Register mounts the BFF routes. User views require a session; admin views
// also require the admin flag.
func Register(e *echo.Echo, gate middleware.Gate, h Handlers) {
	e.GET("/health", h.Health.Health)

	e.POST("/auth/login", h.Auth.Login)
	e.POST("/auth/register", h.Auth.Register)
	e.GET(auth.LogoutPath, h.Auth.Logout)
	e.POST(auth.LogoutPath, h.Auth.Logout)
	requireUser := middleware.RequireSession(gate, false)
	e.GET("/auth/me", h.Auth.Me, requireUser)

	apply := e.Group("/apply", requireUser)
	apply.GET("", h.Apply.View)
	apply.POST("", h.Apply.Create)
	apply.PUT("", h.Apply.Update)
	apply.POST("/resume/:id", h.Apply.Resume)
	apply.POST("/refresh", h.Apply.Refresh)
	apply.POST("/kyc", h.Apply.SubmitKYC)
	apply.POST("/credit-check", h.Apply.RunCreditCheck)
	apply.POST("/reset", h.Apply.Reset)
	e.GET("/my-applications", h.Loans.MyApplications, requireUser)
	e.GET("/loans/:id", h.Loans.GetLoan, requireUser)

	adm := e.Group("/admin", middleware.RequireSession(gate, true))
	adm.GET("", h.Admin.Dashboard)
	adm.GET("/loans", h.Admin.ListLoans)
	adm.GET("/loans/stats", h.Admin.Stats)
	adm.GET("/loans/:id/history", h.Admin.History)
	adm.PUT("/loans/:id", h.Admin.UpdateLoan)
	adm.POST("/loans/:id/retry-kyc", h.Admin.RetryKYC)
}
