package workflow

import (
	"errors"

	"mini-los/internal/domain/loan"
	"mini-los/internal/validation"
)

// ViewModel is everything a UI needs to render the application stepper.
type ViewModel struct {
	Loan             *loan.Application       `json:"loan"`
	Status           string                  `json:"status"`
	StatusLabel      string                  `json:"status_label"`
	Step             loan.Step               `json:"step"`
	Screen           loan.Step               `json:"screen"`
	Steps            []loan.StepInfo         `json:"steps"`
	CompletedSteps   []loan.Step             `json:"completed_steps"`
	AllowedActions   []loan.Action           `json:"allowed_actions"`
	IsComplete       bool                    `json:"is_complete"`
	IsEligible       bool                    `json:"is_eligible"`
	Loading          bool                    `json:"loading"`
	Error            string                  `json:"error,omitempty"`
	FieldErrors      []validation.FieldError `json:"field_errors,omitempty"`
	RejectionReasons []string                `json:"rejection_reasons,omitempty"`
}

func NewViewModel(app *loan.Application, loading bool, err error) ViewModel {
	st := loan.StatusNone
	if app != nil {
		st = app.Status
	}
	vm := ViewModel{
		Loan:           app,
		Status:         st.String(),
		StatusLabel:    st.Label(),
		Step:           loan.StepOf(st),
		Screen:         loan.ScreenOf(st),
		Steps:          loan.Steps(),
		CompletedSteps: loan.CompletedSteps(st),
		AllowedActions: loan.AllowedActions(st),
		IsComplete:     loan.IsComplete(st),
		IsEligible:     loan.IsEligible(st),
		Loading:        loading,
	}
	if app != nil && st == loan.StatusNotEligible {
		vm.RejectionReasons = app.Eligibility.Reasons()
	}
	if err != nil {
		vm.Error = DisplayMessage(err)
		var ve *validation.Error
		if errors.As(err, &ve) {
			vm.FieldErrors = ve.Fields
		}
	}
	return vm
}

// DisplayMessage turns an error into the text shown next to the form.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		return "Please correct the highlighted fields"
	case errors.Is(err, loan.ErrNotAdvanced):
		return "KYC verification is still pending. Please try again."
	case errors.Is(err, loan.ErrActionInFlight):
		return "Please wait for the current step to finish"
	}
	return err.Error()
}
