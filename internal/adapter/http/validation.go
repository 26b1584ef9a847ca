package http

import (
	"mini-los/internal/validation"
)

// ErrorResponse is the error payload of every BFF endpoint.
type ErrorResponse struct {
	Error    string                  `json:"error"`
	Details  []validation.FieldError `json:"details,omitempty"`
	Redirect string                  `json:"redirect,omitempty"`
	Alert    string                  `json:"alert,omitempty"`
}

// CustomValidator plugs the input rules into echo's c.Validate.
type CustomValidator struct{ v *validation.Validator }

func NewValidator(v *validation.Validator) *CustomValidator {
	if v == nil {
		v = validation.New()
	}
	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }
