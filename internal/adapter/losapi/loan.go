package losapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"mini-los/internal/domain/loan"
)

var _ loan.Gateway = (*Client)(nil)

// decimal marshals as a quoted string; the service expects JSON numbers.
func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }

type createPayload struct {
	FullName       string              `json:"full_name"`
	Mobile         string              `json:"mobile"`
	PAN            string              `json:"pan"`
	DOB            loan.Date           `json:"dob"`
	Email          string              `json:"email,omitempty"`
	Address        string              `json:"address,omitempty"`
	EmploymentType loan.EmploymentType `json:"employment_type,omitempty"`
	MonthlyIncome  json.Number         `json:"monthly_income"`
	LoanAmount     json.Number         `json:"loan_amount"`
	Purpose        string              `json:"loan_purpose,omitempty"`
}

type updatePayload struct {
	FullName       *string              `json:"full_name,omitempty"`
	Mobile         *string              `json:"mobile,omitempty"`
	Email          *string              `json:"email,omitempty"`
	Address        *string              `json:"address,omitempty"`
	EmploymentType *loan.EmploymentType `json:"employment_type,omitempty"`
	MonthlyIncome  *json.Number         `json:"monthly_income,omitempty"`
	LoanAmount     *json.Number         `json:"loan_amount,omitempty"`
	Purpose        *string              `json:"loan_purpose,omitempty"`
}

func optNumber(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := number(*d)
	return &n
}

func loanPath(id uint64, suffix string) string {
	return "/loan/" + strconv.FormatUint(id, 10) + suffix
}

func (c *Client) Create(ctx context.Context, p loan.Profile) (*loan.Application, error) {
	in := createPayload{
		FullName:       p.FullName,
		Mobile:         p.Mobile,
		PAN:            p.PAN,
		DOB:            p.DOB,
		Email:          p.Email,
		Address:        p.Address,
		EmploymentType: p.EmploymentType,
		MonthlyIncome:  number(p.MonthlyIncome),
		LoanAmount:     number(p.LoanAmount),
		Purpose:        p.Purpose,
	}
	var out loan.Application
	err := c.do(ctx, call{op: opCreateLoan, method: http.MethodPost, path: "/loan/create", body: in, auth: true, advance: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id uint64) (*loan.Application, error) {
	var out loan.Application
	if err := c.do(ctx, call{op: opGetLoan, method: http.MethodGet, path: loanPath(id, ""), auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id uint64, u loan.Update) (*loan.Application, error) {
	in := updatePayload{
		FullName:       u.FullName,
		Mobile:         u.Mobile,
		Email:          u.Email,
		Address:        u.Address,
		EmploymentType: u.EmploymentType,
		MonthlyIncome:  optNumber(u.MonthlyIncome),
		LoanAmount:     optNumber(u.LoanAmount),
		Purpose:        u.Purpose,
	}
	var out loan.Application
	if err := c.do(ctx, call{op: opUpdateLoan, method: http.MethodPut, path: loanPath(id, ""), body: in, auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyLoans(ctx context.Context) ([]loan.Application, error) {
	var out []loan.Application
	if err := c.do(ctx, call{op: opMyLoans, method: http.MethodGet, path: "/loan/my-loans", auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitKYC triggers verification. The response body is deliberately
// ignored; callers refetch the application.
func (c *Client) SubmitKYC(ctx context.Context, id uint64) error {
	return c.do(ctx, call{op: opSubmitKYC, method: http.MethodPost, path: loanPath(id, "/kyc"), body: struct{}{}, auth: true, advance: true}, nil)
}

func (c *Client) RunCreditCheck(ctx context.Context, id uint64) error {
	return c.do(ctx, call{op: opRunCreditCheck, method: http.MethodPost, path: loanPath(id, "/credit-check"), body: struct{}{}, auth: true, advance: true}, nil)
}

func (c *Client) RetryKYC(ctx context.Context, id uint64) error {
	return c.do(ctx, call{op: opRetryKYC, method: http.MethodPost, path: "/kyc/" + strconv.FormatUint(id, 10) + "/retry", body: struct{}{}, auth: true, advance: true}, nil)
}

func (c *Client) AllLoans(ctx context.Context, f loan.ListFilter) ([]loan.Application, error) {
	q := url.Values{}
	if f.Status.Valid() {
		q.Set("status", f.Status.String())
	}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var out []loan.Application
	if err := c.do(ctx, call{op: opAllLoans, method: http.MethodGet, path: "/admin/loans", query: q, auth: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context) (*loan.Stats, error) {
	var out loan.Stats
	if err := c.do(ctx, call{op: opStats, method: http.MethodGet, path: "/admin/loans/stats", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context, id uint64) (*loan.History, error) {
	var out loan.History
	if err := c.do(ctx, call{op: opHistory, method: http.MethodGet, path: "/admin/loans/" + strconv.FormatUint(id, 10) + "/history", auth: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
