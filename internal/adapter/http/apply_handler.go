package http

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"mini-los/internal/domain/loan"
	"mini-los/internal/usecase/workflow"
)

// ApplyHandler serves the single application view of this process.
type ApplyHandler struct {
	uc *workflow.Usecase

	mu   sync.Mutex
	flow *workflow.Flow
}

func NewApplyHandler(uc *workflow.Usecase) *ApplyHandler {
	return &ApplyHandler{uc: uc, flow: workflow.NewFlow(uc)}
}

func (h *ApplyHandler) current() *workflow.Flow {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flow
}

// Detach drops the view. Calls still running finish against the old view
// and their results are discarded.
func (h *ApplyHandler) Detach() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flow.Detach()
	h.flow = workflow.NewFlow(h.uc)
}

func (h *ApplyHandler) reply(c echo.Context, code int, vm workflow.ViewModel, err error) error {
	if err == nil {
		return c.JSON(code, vm)
	}
	code = statusFor(err)
	if code == http.StatusUnauthorized {
		return c.JSON(code, errorBody(err, "/apply"))
	}
	return c.JSON(code, vm)
}

func (h *ApplyHandler) View(c echo.Context) error {
	return c.JSON(http.StatusOK, h.current().View())
}

func (h *ApplyHandler) Create(c echo.Context) error {
	var p loan.Profile
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid body")
	}
	vm, err := h.current().Create(c.Request().Context(), p)
	return h.reply(c, http.StatusCreated, vm, err)
}

func (h *ApplyHandler) Resume(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	vm, err := h.current().Resume(c.Request().Context(), id)
	return h.reply(c, http.StatusOK, vm, err)
}

func (h *ApplyHandler) Refresh(c echo.Context) error {
	vm, err := h.current().Refresh(c.Request().Context())
	return h.reply(c, http.StatusOK, vm, err)
}

func (h *ApplyHandler) SubmitKYC(c echo.Context) error {
	vm, err := h.current().SubmitKYC(c.Request().Context())
	return h.reply(c, http.StatusOK, vm, err)
}

func (h *ApplyHandler) RunCreditCheck(c echo.Context) error {
	vm, err := h.current().RunCreditCheck(c.Request().Context())
	return h.reply(c, http.StatusOK, vm, err)
}

func (h *ApplyHandler) Update(c echo.Context) error {
	var upd loan.Update
	if err := c.Bind(&upd); err != nil {
		return badRequest(c, "invalid body")
	}
	vm, err := h.current().Update(c.Request().Context(), upd)
	return h.reply(c, http.StatusOK, vm, err)
}

// Reset starts a new application locally. Nothing is sent to the server.
func (h *ApplyHandler) Reset(c echo.Context) error {
	return c.JSON(http.StatusOK, h.current().Reset())
}
