package sandbox

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// money is sent as a JSON number.
func money(d decimal.Decimal) json.Number { return json.Number(d.StringFixed(2)) }

type userDTO struct {
	ID        uint64    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *User) userDTO {
	return userDTO{ID: u.ID, FullName: u.FullName, Email: u.Email, IsAdmin: u.IsAdmin, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

type kycDTO struct {
	Status          string    `json:"status"`
	NameMatchScore  float64   `json:"name_match_score"`
	PANVerified     string    `json:"pan_verified"`
	AddressVerified string    `json:"address_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

type creditDTO struct {
	CreditScore     int       `json:"credit_score"`
	ActiveLoans     int       `json:"active_loans"`
	Approved        bool      `json:"is_approved"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type eligibilityDTO struct {
	Eligible         bool        `json:"is_eligible"`
	EligibleAmount   json.Number `json:"eligible_amount"`
	InterestRate     float64     `json:"interest_rate"`
	TenureMonths     int         `json:"tenure_months"`
	MaxEMI           json.Number `json:"max_emi"`
	RejectionReasons string      `json:"rejection_reasons,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

type applicationDTO struct {
	ID             uint64          `json:"id"`
	FullName       string          `json:"full_name"`
	Mobile         string          `json:"mobile"`
	PAN            string          `json:"pan"`
	DOB            string          `json:"dob"`
	Email          string          `json:"email"`
	Address        string          `json:"address,omitempty"`
	EmploymentType string          `json:"employment_type"`
	MonthlyIncome  json.Number     `json:"monthly_income"`
	LoanAmount     json.Number     `json:"loan_amount"`
	Purpose        string          `json:"loan_purpose,omitempty"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	KYC            *kycDTO         `json:"kyc_result,omitempty"`
	Credit         *creditDTO      `json:"credit_result,omitempty"`
	Eligibility    *eligibilityDTO `json:"eligibility_result,omitempty"`
}

type historyDTO struct {
	Application applicationDTO  `json:"application"`
	KYC         *kycDTO         `json:"kyc"`
	Credit      *creditDTO      `json:"credit"`
	Eligibility *eligibilityDTO `json:"eligibility"`
}

func toApplicationDTO(a *Application, res *Results) applicationDTO {
	out := applicationDTO{
		ID:             a.ID,
		FullName:       a.FullName,
		Mobile:         a.Mobile,
		PAN:            a.PAN,
		DOB:            a.DOB.Format("2006-01-02"),
		Email:          a.Email,
		Address:        a.Address,
		EmploymentType: a.EmploymentType,
		MonthlyIncome:  money(a.MonthlyIncome),
		LoanAmount:     money(a.LoanAmount),
		Purpose:        a.Purpose,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt.UTC(),
		UpdatedAt:      a.UpdatedAt.UTC(),
	}
	if res != nil {
		out.KYC = toKYCDTO(res.KYC)
		out.Credit = toCreditDTO(res.Credit)
		out.Eligibility = toEligibilityDTO(res.Eligibility)
	}
	return out
}

func toApplicationDTOs(apps []Application) []applicationDTO {
	out := make([]applicationDTO, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationDTO(&apps[i], nil))
	}
	return out
}

func toHistoryDTO(a *Application, res *Results) historyDTO {
	h := historyDTO{Application: toApplicationDTO(a, nil)}
	if res != nil {
		h.KYC = toKYCDTO(res.KYC)
		h.Credit = toCreditDTO(res.Credit)
		h.Eligibility = toEligibilityDTO(res.Eligibility)
	}
	return h
}

func toKYCDTO(r *KYCRecord) *kycDTO {
	if r == nil {
		return nil
	}
	return &kycDTO{
		Status:          r.Status,
		NameMatchScore:  r.NameMatchScore,
		PANVerified:     r.PANVerified,
		AddressVerified: r.AddressVerified,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func toCreditDTO(r *CreditRecord) *creditDTO {
	if r == nil {
		return nil
	}
	return &creditDTO{
		CreditScore:     r.CreditScore,
		ActiveLoans:     r.ActiveLoans,
		Approved:        r.Approved,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func toEligibilityDTO(r *EligibilityRecord) *eligibilityDTO {
	if r == nil {
		return nil
	}
	return &eligibilityDTO{
		Eligible:         r.Eligible,
		EligibleAmount:   money(r.EligibleAmount),
		InterestRate:     r.InterestRate,
		TenureMonths:     r.TenureMonths,
		MaxEMI:           money(r.MaxEMI),
		RejectionReasons: r.RejectionReasons,
		CreatedAt:        r.CreatedAt.UTC(),
	}
}

type tokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// validationDetail mirrors the list form of a 422 detail.
type validationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}
