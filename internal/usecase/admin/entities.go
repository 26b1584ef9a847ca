package admin

import "mini-los/internal/domain/loan"

// Dashboard is the admin landing data: the filtered listing plus totals.
type Dashboard struct {
	Loans []loan.Application `json:"loans"`
	Stats *loan.Stats        `json:"stats"`
}

// RetryResult is returned after a KYC retry. Loans is the refreshed listing.
type RetryResult struct {
	LoanID uint64             `json:"loan_id"`
	Loans  []loan.Application `json:"loans"`
}
