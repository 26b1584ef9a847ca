package loan

import "fmt"

// Status is the server-reported workflow state of an application.
// The zero value means there is no application yet.
type Status uint8

const (
	StatusNone Status = iota
	StatusDraft
	StatusKYCPending
	StatusKYCCompleted
	StatusCreditCheckPending
	StatusCreditCheckCompleted
	StatusEligible
	StatusNotEligible
)

var statusNames = [...]string{
	StatusNone:                 "",
	StatusDraft:                "DRAFT",
	StatusKYCPending:           "KYC_PENDING",
	StatusKYCCompleted:         "KYC_COMPLETED",
	StatusCreditCheckPending:   "CREDIT_CHECK_PENDING",
	StatusCreditCheckCompleted: "CREDIT_CHECK_COMPLETED",
	StatusEligible:             "ELIGIBLE",
	StatusNotEligible:          "NOT_ELIGIBLE",
}

var statusLabels = [...]string{
	StatusNone:                 "New",
	StatusDraft:                "Draft",
	StatusKYCPending:           "KYC Pending",
	StatusKYCCompleted:         "KYC Completed",
	StatusCreditCheckPending:   "Credit Check Pending",
	StatusCreditCheckCompleted: "Credit Check Completed",
	StatusEligible:             "Eligible",
	StatusNotEligible:          "Not Eligible",
}

// Statuses lists every workflow status in progression order.
func Statuses() []Status {
	return []Status{
		StatusDraft,
		StatusKYCPending,
		StatusKYCCompleted,
		StatusCreditCheckPending,
		StatusCreditCheckCompleted,
		StatusEligible,
		StatusNotEligible,
	}
}

func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if i != int(StatusNone) && name == s {
			return Status(i), nil
		}
	}
	return StatusNone, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) Valid() bool { return s > StatusNone && int(s) < len(statusNames) }

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Label is the human readable badge text.
func (s Status) Label() string {
	if int(s) < len(statusLabels) {
		return statusLabels[s]
	}
	return s.String()
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Step is a 1-based position in the application stepper.
type Step int

const (
	StepOnboarding Step = iota + 1
	StepKYC
	StepCredit
	StepResult
)

type StepInfo struct {
	ID          Step   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var steps = []StepInfo{
	{StepOnboarding, "Personal Info", "Basic details"},
	{StepKYC, "KYC Verification", "Identity check"},
	{StepCredit, "Credit Check", "Credit assessment"},
	{StepResult, "Result", "Eligibility status"},
}

func Steps() []StepInfo { return append([]StepInfo(nil), steps...) }

// StepOf maps a status to its stepper position. Every status, including
// StatusNone, lands on exactly one of the four steps.
func StepOf(s Status) Step {
	switch s {
	case StatusNone, StatusDraft:
		return StepOnboarding
	case StatusKYCPending, StatusKYCCompleted:
		return StepKYC
	case StatusCreditCheckPending, StatusCreditCheckCompleted:
		return StepCredit
	case StatusEligible, StatusNotEligible:
		return StepResult
	}
	return StepOnboarding
}

// ScreenOf returns the step whose component should be rendered. It differs
// from StepOf only for DRAFT, which is already the entry of the KYC step.
func ScreenOf(s Status) Step {
	switch s {
	case StatusNone:
		return StepOnboarding
	case StatusDraft, StatusKYCPending:
		return StepKYC
	case StatusKYCCompleted, StatusCreditCheckPending, StatusCreditCheckCompleted:
		return StepCredit
	case StatusEligible, StatusNotEligible:
		return StepResult
	}
	return StepOnboarding
}

// finishesStep reports whether s closes out the work of its own step.
func finishesStep(s Status) bool {
	switch s {
	case StatusKYCCompleted, StatusCreditCheckCompleted, StatusEligible, StatusNotEligible:
		return true
	case StatusNone, StatusDraft, StatusKYCPending, StatusCreditCheckPending:
		return false
	}
	return false
}

// CompletedSteps lists the steps marked done in the stepper.
func CompletedSteps(s Status) []Step {
	cur := StepOf(s)
	out := make([]Step, 0, int(cur))
	for i := StepOnboarding; i < cur; i++ {
		out = append(out, i)
	}
	if finishesStep(s) {
		out = append(out, cur)
	}
	return out
}

func IsComplete(s Status) bool { return s == StatusEligible || s == StatusNotEligible }

func IsEligible(s Status) bool { return s == StatusEligible }

// Action is a user intent that changes an application on the server.
type Action string

const (
	ActionSubmitKYC      Action = "submit_kyc"
	ActionRunCreditCheck Action = "run_credit_check"
	ActionUpdate         Action = "update"
	ActionRetryKYC       Action = "retry_kyc"
)

// AllowedActions returns the actions offered from s.
func AllowedActions(s Status) []Action {
	switch s {
	case StatusNone:
		return nil
	case StatusDraft:
		return []Action{ActionSubmitKYC, ActionUpdate}
	case StatusKYCPending:
		return []Action{ActionSubmitKYC}
	case StatusKYCCompleted, StatusCreditCheckPending:
		return []Action{ActionRunCreditCheck}
	case StatusCreditCheckCompleted, StatusEligible:
		return nil
	case StatusNotEligible:
		return []Action{ActionRetryKYC}
	}
	return nil
}

func Allows(s Status, a Action) bool {
	for _, x := range AllowedActions(s) {
		if x == a {
			return true
		}
	}
	return false
}
