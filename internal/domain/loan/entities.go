package loan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "SALARIED"
	EmploymentSelfEmployed EmploymentType = "SELF_EMPLOYED"
)

type KYCStatus string

const (
	KYCPending KYCStatus = "PENDING"
	KYCPassed  KYCStatus = "PASSED"
	KYCFailed  KYCStatus = "FAILED"
)

// MaxLoanMultiplier caps the requested amount relative to monthly income.
const MaxLoanMultiplier = 20

// MinApplicantAge is the youngest age accepted at onboarding.
const MinApplicantAge = 21

// Date is a calendar date carried as YYYY-MM-DD on the wire.
type Date struct{ time.Time }

const dateLayout = "2006-01-02"

func NewDate(y int, m time.Month, d int) Date { return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)} }

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// tolerate full timestamps, keep the date part
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// AgeOn returns the completed years between d and at.
func (d Date) AgeOn(at time.Time) int {
	age := at.Year() - d.Year()
	if at.Month() < d.Month() || (at.Month() == d.Month() && at.Day() < d.Day()) {
		age--
	}
	return age
}

// Timestamp accepts RFC3339 as well as the zone-less ISO format the loan
// service emits.
type Timestamp struct{ time.Time }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = Timestamp{v.UTC()}
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Flag decodes the "YES"/"NO" strings the KYC provider returns as well as
// plain booleans.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) { return json.Marshal(bool(f)) }

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch strings.ToUpper(strings.Trim(string(b), `"`)) {
	case "YES", "TRUE", "Y", "1":
		*f = true
	case "NO", "FALSE", "N", "0", "NULL", "":
		*f = false
	default:
		return fmt.Errorf("invalid flag %s", b)
	}
	return nil
}

// Profile holds the applicant fields captured at onboarding.
type Profile struct {
	FullName       string          `json:"full_name"       validate:"required"`
	DOB            Date            `json:"dob"             validate:"required,adult"`
	PAN            string          `json:"pan"             validate:"required,pan"`
	Mobile         string          `json:"mobile"          validate:"required,mobile"`
	Email          string          `json:"email,omitempty" validate:"omitempty,email"`
	Address        string          `json:"address,omitempty"`
	EmploymentType EmploymentType  `json:"employment_type" validate:"omitempty,oneof=SALARIED SELF_EMPLOYED"`
	MonthlyIncome  decimal.Decimal `json:"monthly_income"  validate:"gt=0"`
	LoanAmount     decimal.Decimal `json:"loan_amount"     validate:"gt=0"`
	Purpose        string          `json:"loan_purpose,omitempty"`
}

// MaxLoanAmount is the ceiling for the requested amount given the income.
func (p Profile) MaxLoanAmount() decimal.Decimal {
	return p.MonthlyIncome.Mul(decimal.NewFromInt(MaxLoanMultiplier))
}

type KYCResult struct {
	Status          KYCStatus `json:"status"`
	NameMatchScore  float64   `json:"name_match_score"`
	PANVerified     Flag      `json:"pan_verified"`
	AddressVerified Flag      `json:"address_verified"`
	CreatedAt       Timestamp `json:"created_at"`
}

func (k *KYCResult) Passed() bool { return k != nil && k.Status == KYCPassed }

type CreditResult struct {
	CreditScore     int       `json:"credit_score"`
	ActiveLoans     int       `json:"active_loans"`
	Approved        bool      `json:"is_approved"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       Timestamp `json:"created_at"`
}

type EligibilityResult struct {
	Eligible         bool            `json:"is_eligible"`
	EligibleAmount   decimal.Decimal `json:"eligible_amount"`
	InterestRate     float64         `json:"interest_rate"`
	TenureMonths     int             `json:"tenure_months"`
	MaxEMI           decimal.Decimal `json:"max_emi"`
	RejectionReasons string          `json:"rejection_reasons,omitempty"`
	CreatedAt        Timestamp       `json:"created_at"`
}

// Reasons splits the semicolon-delimited rejection reasons.
func (e *EligibilityResult) Reasons() []string {
	if e == nil {
		return nil
	}
	var out []string
	for _, r := range strings.Split(e.RejectionReasons, ";") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Application is a loan application as last reported by the loan service.
type Application struct {
	ID uint64 `json:"id"`
	Profile
	Status      Status             `json:"status"`
	CreatedAt   Timestamp          `json:"created_at"`
	UpdatedAt   Timestamp          `json:"updated_at"`
	KYC         *KYCResult         `json:"kyc_result,omitempty"`
	Credit      *CreditResult      `json:"credit_result,omitempty"`
	Eligibility *EligibilityResult `json:"eligibility_result,omitempty"`
}

func (a *Application) UnmarshalJSON(b []byte) error {
	type plain Application
	var raw struct {
		plain
		Status        string `json:"status"`
		WorkflowState string `json:"workflow_state"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	name := raw.Status
	if name == "" {
		name = raw.WorkflowState
	}
	st, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*a = Application(raw.plain)
	a.Status = st
	return nil
}

// Update is a partial edit; nil fields are left untouched.
type Update struct {
	FullName       *string          `json:"full_name,omitempty"`
	Mobile         *string          `json:"mobile,omitempty"        validate:"omitempty,mobile"`
	Email          *string          `json:"email,omitempty"         validate:"omitempty,email"`
	Address        *string          `json:"address,omitempty"`
	EmploymentType *EmploymentType  `json:"employment_type,omitempty" validate:"omitempty,oneof=SALARIED SELF_EMPLOYED"`
	MonthlyIncome  *decimal.Decimal `json:"monthly_income,omitempty"  validate:"omitempty,gt=0"`
	LoanAmount     *decimal.Decimal `json:"loan_amount,omitempty"     validate:"omitempty,gt=0"`
	Purpose        *string          `json:"loan_purpose,omitempty"`
}

func (u Update) Empty() bool {
	return u.FullName == nil && u.Mobile == nil && u.Email == nil && u.Address == nil &&
		u.EmploymentType == nil && u.MonthlyIncome == nil && u.LoanAmount == nil && u.Purpose == nil
}

// ListFilter narrows the admin application listing.
type ListFilter struct {
	Status Status
	Skip   int
	Limit  int
}

// Stats are the admin aggregate counts.
type Stats struct {
	ByStatus       map[Status]int
	Total          int
	CompletionRate float64
	ApprovalRate   float64
}

func (s *Stats) UnmarshalJSON(b []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Stats{ByStatus: make(map[Status]int, len(statusNames))}
	for k, v := range raw {
		switch k {
		case "TOTAL":
			out.Total = int(v)
		case "COMPLETION_RATE":
			out.CompletionRate = v
		case "APPROVAL_RATE":
			out.ApprovalRate = v
		default:
			st, err := ParseStatus(k)
			if err != nil {
				// newer servers may add counters we don't know yet
				continue
			}
			out.ByStatus[st] = int(v)
		}
	}
	*s = out
	return nil
}

func (s Stats) MarshalJSON() ([]byte, error) {
	raw := make(map[string]float64, len(s.ByStatus)+3)
	for st, n := range s.ByStatus {
		raw[st.String()] = float64(n)
	}
	raw["TOTAL"] = float64(s.Total)
	raw["COMPLETION_RATE"] = s.CompletionRate
	raw["APPROVAL_RATE"] = s.ApprovalRate
	return json.Marshal(raw)
}

// History bundles an application with all verification results.
type History struct {
	Application Application        `json:"application"`
	KYC         *KYCResult         `json:"kyc"`
	Credit      *CreditResult      `json:"credit"`
	Eligibility *EligibilityResult `json:"eligibility"`
}
