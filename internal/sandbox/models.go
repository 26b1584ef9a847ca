// Package sandbox is a small Mini-LOS compatible server for local
// development and end-to-end tests. Verification outcomes come from a
// configured Bureau; nothing is scored.
package sandbox

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           uint64    `gorm:"primaryKey;column:id"`
	FullName     string    `gorm:"size:120;not null;column:full_name"`
	Email        string    `gorm:"size:190;uniqueIndex;not null;column:email"`
	PasswordHash string    `gorm:"size:100;not null;column:password_hash"`
	IsAdmin      bool      `gorm:"not null;default:false;column:is_admin"`
	IsActive     bool      `gorm:"not null;default:true;column:is_active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (User) TableName() string { return "users" }

type Application struct {
	ID             uint64          `gorm:"primaryKey;column:id"`
	UserID         uint64          `gorm:"index;not null;column:user_id"`
	FullName       string          `gorm:"size:120;not null;column:full_name"`
	Mobile         string          `gorm:"size:10;not null;column:mobile"`
	PAN            string          `gorm:"size:10;index;not null;column:pan"`
	DOB            time.Time       `gorm:"not null;column:dob"`
	Email          string          `gorm:"size:190;column:email"`
	Address        string          `gorm:"size:255;column:address"`
	EmploymentType string          `gorm:"size:20;not null;column:employment_type"`
	MonthlyIncome  decimal.Decimal `gorm:"type:decimal(14,2);not null;column:monthly_income"`
	LoanAmount     decimal.Decimal `gorm:"type:decimal(14,2);not null;column:loan_amount"`
	Purpose        string          `gorm:"size:255;column:loan_purpose"`
	Status         string          `gorm:"size:32;index;not null;column:status"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (Application) TableName() string { return "loan_applications" }

type KYCRecord struct {
	ID              uint64    `gorm:"primaryKey;column:id"`
	ApplicationID   uint64    `gorm:"uniqueIndex;not null;column:loan_application_id"`
	NameMatchScore  float64   `gorm:"column:name_match_score"`
	Status          string    `gorm:"size:16;not null;column:status"`
	PANVerified     string    `gorm:"size:3;column:pan_verified"`
	AddressVerified string    `gorm:"size:3;column:address_verified"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (KYCRecord) TableName() string { return "kyc_results" }

type CreditRecord struct {
	ID              uint64    `gorm:"primaryKey;column:id"`
	ApplicationID   uint64    `gorm:"uniqueIndex;not null;column:loan_application_id"`
	CreditScore     int       `gorm:"column:credit_score"`
	ActiveLoans     int       `gorm:"column:active_loans"`
	Approved        bool      `gorm:"column:is_approved"`
	RejectionReason string    `gorm:"size:255;column:rejection_reason"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (CreditRecord) TableName() string { return "credit_results" }

type EligibilityRecord struct {
	ID               uint64          `gorm:"primaryKey;column:id"`
	ApplicationID    uint64          `gorm:"uniqueIndex;not null;column:loan_application_id"`
	Eligible         bool            `gorm:"column:is_eligible"`
	EligibleAmount   decimal.Decimal `gorm:"type:decimal(14,2);column:eligible_amount"`
	InterestRate     float64         `gorm:"column:interest_rate"`
	TenureMonths     int             `gorm:"column:tenure_months"`
	MaxEMI           decimal.Decimal `gorm:"type:decimal(14,2);column:max_emi"`
	RejectionReasons string          `gorm:"size:500;column:rejection_reasons"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
}

func (EligibilityRecord) TableName() string { return "eligibility_results" }

// Results are the verification records attached to one application.
type Results struct {
	KYC         *KYCRecord
	Credit      *CreditRecord
	Eligibility *EligibilityRecord
}

// Models lists every table, in migration order.
func Models() []any {
	return []any{&User{}, &Application{}, &KYCRecord{}, &CreditRecord{}, &EligibilityRecord{}}
}
