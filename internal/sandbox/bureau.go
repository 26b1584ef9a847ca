package sandbox

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	MinNameMatchScore = 80
	MinCreditScore    = 650
	MaxActiveLoans    = 5
)

type KYCOutcome struct {
	NameMatchScore  float64
	PANVerified     bool
	AddressVerified bool
}

func (o KYCOutcome) Passed() bool {
	return o.NameMatchScore >= MinNameMatchScore && o.PANVerified
}

type CreditOutcome struct {
	CreditScore int
	ActiveLoans int
}

// RejectionReasons lists why the credit report fails the lending rules.
func (o CreditOutcome) RejectionReasons() []string {
	var out []string
	if o.CreditScore < MinCreditScore {
		out = append(out, "Credit score below threshold")
	}
	if o.ActiveLoans > MaxActiveLoans {
		out = append(out, "Too many active loans")
	}
	return out
}

// Bureau supplies verification outcomes for an application.
type Bureau interface {
	VerifyKYC(ctx context.Context, a *Application) (KYCOutcome, error)
	CreditReport(ctx context.Context, a *Application) (CreditOutcome, error)
}

// StaticBureau answers with fixed outcomes, optionally overridden per PAN.
type StaticBureau struct {
	kyc    KYCOutcome
	credit CreditOutcome

	mu        sync.RWMutex
	kycByPAN  map[string]KYCOutcome
	credByPAN map[string]CreditOutcome
}

func NewStaticBureau(kycPass bool, creditScore, activeLoans int) *StaticBureau {
	k := KYCOutcome{NameMatchScore: 95, PANVerified: true, AddressVerified: true}
	if !kycPass {
		k = KYCOutcome{NameMatchScore: 40, PANVerified: false, AddressVerified: false}
	}
	return &StaticBureau{
		kyc:       k,
		credit:    CreditOutcome{CreditScore: creditScore, ActiveLoans: activeLoans},
		kycByPAN:  make(map[string]KYCOutcome),
		credByPAN: make(map[string]CreditOutcome),
	}
}

func (b *StaticBureau) SetKYC(pan string, o KYCOutcome) {
	b.mu.Lock()
	b.kycByPAN[strings.ToUpper(pan)] = o
	b.mu.Unlock()
}

func (b *StaticBureau) SetCredit(pan string, o CreditOutcome) {
	b.mu.Lock()
	b.credByPAN[strings.ToUpper(pan)] = o
	b.mu.Unlock()
}

func (b *StaticBureau) VerifyKYC(_ context.Context, a *Application) (KYCOutcome, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if o, ok := b.kycByPAN[a.PAN]; ok {
		return o, nil
	}
	return b.kyc, nil
}

func (b *StaticBureau) CreditReport(_ context.Context, a *Application) (CreditOutcome, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if o, ok := b.credByPAN[a.PAN]; ok {
		return o, nil
	}
	return b.credit, nil
}

// offer terms for an approved application
const (
	offerInterestRate = 0.12
	offerTenureMonths = 36
)

// maxEMI caps the installment at a share of monthly income.
func maxEMI(income decimal.Decimal, employment string) decimal.Decimal {
	share := decimal.NewFromFloat(0.5)
	if employment == "SELF_EMPLOYED" {
		share = decimal.NewFromFloat(0.4)
	}
	return income.Mul(share).Round(2)
}

func flagString(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
