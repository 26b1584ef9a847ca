// Package validation holds the client-side input checks run before any
// request leaves the process.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"mini-los/internal/domain/loan"
	"mini-los/internal/domain/session"
)

var (
	rePAN    = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	reMobile = regexp.MustCompile(`^[6-9]\d{9}$`)
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when input fails validation; no request was made.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Message returns the message for field, if any.
func (e *Error) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func New() *Validator { return NewWithClock(time.Now) }

// NewWithClock pins "today" for the age check.
func NewWithClock(now func() time.Time) *Validator {
	v := validator.New()
	val := &Validator{v: v, now: now}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(loan.Date); ok {
			return d.Time
		}
		return nil
	}, loan.Date{})

	_ = v.RegisterValidation("pan", func(fl validator.FieldLevel) bool {
		return rePAN.MatchString(strings.ToUpper(fl.Field().String()))
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return reMobile.MatchString(CleanMobile(fl.Field().String()))
	})
	_ = v.RegisterValidation("adult", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok || t.IsZero() {
			return false
		}
		return loan.Date{Time: t}.AgeOn(val.now()) >= loan.MinApplicantAge
	})
	v.RegisterStructValidation(profileLevel, loan.Profile{})
	return val
}

func profileLevel(sl validator.StructLevel) {
	p := sl.Current().Interface().(loan.Profile)
	if p.MonthlyIncome.IsPositive() && p.LoanAmount.GreaterThan(p.MaxLoanAmount()) {
		sl.ReportError(p.LoanAmount, "loan_amount", "LoanAmount", "income_multiple", "")
	}
}

// Struct validates any tagged struct (used by the HTTP layer).
func (cv *Validator) Struct(i any) error {
	if err := cv.v.Struct(i); err != nil {
		return &Error{Fields: ToFieldErrors(err)}
	}
	return nil
}

// Profile normalises and validates onboarding input.
func (cv *Validator) Profile(p *loan.Profile) error {
	p.PAN = strings.ToUpper(strings.TrimSpace(p.PAN))
	p.Mobile = CleanMobile(p.Mobile)
	p.FullName = strings.TrimSpace(p.FullName)
	if p.EmploymentType == "" {
		p.EmploymentType = loan.EmploymentSalaried
	}
	return cv.Struct(p)
}

func (cv *Validator) Update(u *loan.Update) error {
	if u.Mobile != nil {
		m := CleanMobile(*u.Mobile)
		u.Mobile = &m
	}
	return cv.Struct(u)
}

func (cv *Validator) Registration(r session.Registration) error { return cv.Struct(r) }

// CleanMobile strips the spaces and dashes people type into phone numbers.
func CleanMobile(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

// ToFieldErrors maps validator.ValidationErrors to readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "pan":
			out = append(out, FieldError{Field: field, Message: "invalid PAN format (e.g., ABCDE1234F)"})
		case "mobile":
			out = append(out, FieldError{Field: field, Message: "must be 10 digits starting with 6-9"})
		case "adult":
			out = append(out, FieldError{Field: field, Message: "applicant must be at least 21 years old"})
		case "income_multiple":
			out = append(out, FieldError{Field: field, Message: "cannot exceed 20x income"})
		case "email":
			out = append(out, FieldError{Field: field, Message: "invalid email format"})
		case "oneof":
			out = append(out, FieldError{Field: field, Message: "must be one of " + e.Param()})
		case "gt":
			out = append(out, FieldError{Field: field, Message: "must be greater than " + e.Param()})
		case "min":
			out = append(out, FieldError{Field: field, Message: "must be at least " + e.Param() + " characters"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
