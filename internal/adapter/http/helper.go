package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"mini-los/internal/adapter/losapi"
	"mini-los/internal/domain/loan"
	"mini-los/internal/domain/session"
	"mini-los/internal/usecase/auth"
	"mini-los/internal/usecase/workflow"
	"mini-los/internal/validation"
)

const defaultListLimit = 100

// statusFor maps usecase and remote errors to a response code.
func statusFor(err error) int {
	var ve *validation.Error
	var re *losapi.RemoteError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case losapi.IsAuthError(err), errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, loan.ErrNotAdvanced):
		return http.StatusAccepted
	case errors.Is(err, loan.ErrActionInFlight),
		errors.Is(err, loan.ErrInvalidTransition),
		errors.Is(err, loan.ErrNoLoan):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrDetached):
		return http.StatusGone
	case errors.As(err, &re):
		if re.StatusCode >= 400 && re.StatusCode < 500 {
			return re.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorBody(err error, next string) ErrorResponse {
	resp := ErrorResponse{Error: workflow.DisplayMessage(err)}
	var ve *validation.Error
	if errors.As(err, &ve) {
		resp.Details = ve.Fields
	}
	if statusFor(err) == http.StatusUnauthorized {
		resp.Redirect = auth.LoginURL(next)
	}
	return resp
}

func respondError(c echo.Context, err error) error {
	return c.JSON(statusFor(err), errorBody(err, c.Request().URL.RequestURI()))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid application id %q", c.Param("id"))
	}
	return id, nil
}

// listFilter reads ?status=&skip=&limit=. An empty or ALL status means no
// status filter.
func listFilter(c echo.Context) (loan.ListFilter, error) {
	f := loan.ListFilter{Limit: defaultListLimit}
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" && s != "ALL" {
		st, err := loan.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	var err error
	if f.Skip, err = intParam(c, "skip", 0); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(c, "limit", defaultListLimit); err != nil {
		return f, err
	}
	return f, nil
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

// safeNext only lets local paths through as post-login destinations.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}
