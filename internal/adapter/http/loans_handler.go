package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mini-los/internal/domain/loan"
	"mini-los/internal/usecase/workflow"
)

type LoansHandler struct{ uc *workflow.Usecase }

func NewLoansHandler(uc *workflow.Usecase) *LoansHandler { return &LoansHandler{uc: uc} }

type myLoansResp struct {
	Loans   []loan.Application `json:"loans"`
	Summary loan.Summary       `json:"summary"`
}

// MyApplications lists the caller's applications with status totals.
func (h *LoansHandler) MyApplications(c echo.Context) error {
	apps, err := h.uc.FetchMyLoans(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if apps == nil {
		apps = []loan.Application{}
	}
	return c.JSON(http.StatusOK, myLoansResp{Loans: apps, Summary: loan.Summarize(apps)})
}

func (h *LoansHandler) GetLoan(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	app, err := h.uc.FetchLoan(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, workflow.NewViewModel(app, false, nil))
}
