package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mini-los/internal/domain/loan"
	"mini-los/internal/usecase/admin"
)

type AdminHandler struct{ uc *admin.Usecase }

func NewAdminHandler(uc *admin.Usecase) *AdminHandler { return &AdminHandler{uc: uc} }

func (h *AdminHandler) Dashboard(c echo.Context) error {
	f, err := listFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	d, err := h.uc.Dashboard(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	if d.Loans == nil {
		d.Loans = []loan.Application{}
	}
	return c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) ListLoans(c echo.Context) error {
	f, err := listFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	apps, err := h.uc.ListLoans(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	if apps == nil {
		apps = []loan.Application{}
	}
	return c.JSON(http.StatusOK, apps)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	st, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) History(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	hist, err := h.uc.History(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, hist)
}

func (h *AdminHandler) UpdateLoan(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	var upd loan.Update
	if err := c.Bind(&upd); err != nil {
		return badRequest(c, "invalid body")
	}
	app, err := h.uc.UpdateLoan(c.Request().Context(), id, upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, app)
}

// RetryKYC failures are reported as a blocking alert.
func (h *AdminHandler) RetryKYC(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	f, err := listFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	res, err := h.uc.RetryKYC(c.Request().Context(), id, f)
	if err != nil {
		body := errorBody(err, c.Request().URL.RequestURI())
		body.Alert = body.Error
		return c.JSON(statusFor(err), body)
	}
	return c.JSON(http.StatusOK, res)
}
