package http

import (
	"context"
	"net/http"
	"testing"

	"mini-los/internal/adapter/losapi"
	"mini-los/internal/domain/loan"
	"mini-los/internal/domain/session"
	"mini-los/internal/testutil/loanmock"
	"mini-los/internal/validation"
)

type viewBody struct {
	Status         string                  `json:"status"`
	Step           int                     `json:"step"`
	Screen         int                     `json:"screen"`
	CompletedSteps []int                   `json:"completed_steps"`
	AllowedActions []string                `json:"allowed_actions"`
	IsComplete     bool                    `json:"is_complete"`
	IsEligible     bool                    `json:"is_eligible"`
	Error          string                  `json:"error"`
	FieldErrors    []validation.FieldError `json:"field_errors"`
	Loan           *struct {
		ID  uint64 `json:"id"`
		PAN string `json:"pan"`
	} `json:"loan"`
}

var applicant = &session.User{ID: 1, FullName: "Asha Rao", Email: "asha@example.com"}

func TestApply_CreateRejectsOverTwentyTimesIncome(t *testing.T) {
	gw := &loanmock.Gateway{
		CreateFn: func(context.Context, loan.Profile) (*loan.Application, error) {
			t.Fatalf("create must not reach the server")
			return nil, nil
		},
	}
	b := newBFF(gw, applicant)

	rec := b.do(t, http.MethodPost, "/apply", profileBody(50000, 2000000))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d; body=%s", rec.Code, rec.Body.String())
	}
	vm := decode[viewBody](t, rec)
	if !containsFieldMsg(vm.FieldErrors, "loan_amount", "cannot exceed 20x income") {
		t.Fatalf("field errors = %+v", vm.FieldErrors)
	}
	if vm.Loan != nil || vm.Step != 1 {
		t.Fatalf("view should stay on onboarding: %+v", vm)
	}
}

func TestApply_FullJourney(t *testing.T) {
	var status loan.Status
	gw := draftGateway(&status)
	gw.SubmitKYCFn = func(context.Context, uint64) error { status = loan.StatusKYCCompleted; return nil }
	gw.RunCreditCheckFn = func(context.Context, uint64) error { status = loan.StatusEligible; return nil }
	b := newBFF(gw, applicant)

	rec := b.do(t, http.MethodPost, "/apply", profileBody(50000, 500000))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create code = %d; body=%s", rec.Code, rec.Body.String())
	}
	vm := decode[viewBody](t, rec)
	if vm.Status != "DRAFT" || vm.Step != 1 || vm.Screen != 2 || vm.Loan.PAN != "ABCDE1234F" {
		t.Fatalf("after create: %+v", vm)
	}

	rec = b.do(t, http.MethodPost, "/apply/kyc", nil)
	vm = decode[viewBody](t, rec)
	if rec.Code != http.StatusOK || vm.Status != "KYC_COMPLETED" || vm.Screen != 3 {
		t.Fatalf("after kyc: %d %+v", rec.Code, vm)
	}

	rec = b.do(t, http.MethodPost, "/apply/credit-check", nil)
	vm = decode[viewBody](t, rec)
	if rec.Code != http.StatusOK || !vm.IsComplete || !vm.IsEligible || len(vm.CompletedSteps) != 4 {
		t.Fatalf("after credit check: %d %+v", rec.Code, vm)
	}

	rec = b.do(t, http.MethodGet, "/apply", nil)
	if vm = decode[viewBody](t, rec); vm.Status != "ELIGIBLE" {
		t.Fatalf("view = %+v", vm)
	}

	rec = b.do(t, http.MethodPost, "/apply/reset", nil)
	if vm = decode[viewBody](t, rec); vm.Loan != nil || vm.Step != 1 {
		t.Fatalf("after reset: %+v", vm)
	}
}

func TestApply_ActionWithoutLoanConflicts(t *testing.T) {
	b := newBFF(&loanmock.Gateway{}, applicant)
	rec := b.do(t, http.MethodPost, "/apply/kyc", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestApply_RemoteFailureKeepsLoan(t *testing.T) {
	var status loan.Status
	gw := draftGateway(&status)
	gw.SubmitKYCFn = func(context.Context, uint64) error {
		return &losapi.RemoteError{Op: "submit_kyc", StatusCode: 503, Message: "KYC submission failed"}
	}
	b := newBFF(gw, applicant)
	b.do(t, http.MethodPost, "/apply", profileBody(50000, 500000))

	rec := b.do(t, http.MethodPost, "/apply/kyc", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", rec.Code)
	}
	vm := decode[viewBody](t, rec)
	if vm.Status != "DRAFT" || vm.Error != "KYC submission failed" {
		t.Fatalf("vm = %+v", vm)
	}
}

func TestApply_ExpiredSessionRedirects(t *testing.T) {
	var status loan.Status
	gw := draftGateway(&status)
	gw.SubmitKYCFn = func(context.Context, uint64) error {
		return &losapi.AuthError{Message: "Session expired. Please log in again."}
	}
	b := newBFF(gw, applicant)
	b.do(t, http.MethodPost, "/apply", profileBody(50000, 500000))

	rec := b.do(t, http.MethodPost, "/apply/kyc", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rec.Code)
	}
	body := decode[ErrorResponse](t, rec)
	if body.Redirect != "/auth?next=%2Fapply" {
		t.Fatalf("redirect = %q", body.Redirect)
	}
}

func TestApply_NotAdvancedIsAccepted(t *testing.T) {
	var status loan.Status
	gw := draftGateway(&status)
	gw.SubmitKYCFn = func(context.Context, uint64) error { status = loan.StatusKYCPending; return nil }
	b := newBFF(gw, applicant)
	b.do(t, http.MethodPost, "/apply", profileBody(50000, 500000))

	rec := b.do(t, http.MethodPost, "/apply/kyc", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("code = %d", rec.Code)
	}
	if vm := decode[viewBody](t, rec); vm.Status != "KYC_PENDING" || vm.Error == "" {
		t.Fatalf("vm = %+v", vm)
	}
}

func TestApply_ResumeAndUpdate(t *testing.T) {
	var sent loan.Update
	gw := &loanmock.Gateway{
		GetFn: func(ctx context.Context, id uint64) (*loan.Application, error) {
			return &loan.Application{ID: id, Status: loan.StatusDraft}, nil
		},
		UpdateFn: func(ctx context.Context, id uint64, u loan.Update) (*loan.Application, error) {
			sent = u
			return &loan.Application{ID: id, Status: loan.StatusDraft, Profile: loan.Profile{Mobile: *u.Mobile}}, nil
		},
	}
	b := newBFF(gw, applicant)

	rec := b.do(t, http.MethodPost, "/apply/resume/21", nil)
	if vm := decode[viewBody](t, rec); rec.Code != http.StatusOK || vm.Loan.ID != 21 {
		t.Fatalf("resume: %d %s", rec.Code, rec.Body.String())
	}
	rec = b.do(t, http.MethodPut, "/apply", map[string]any{"mobile": "98765-43210"})
	if rec.Code != http.StatusOK || sent.Mobile == nil || *sent.Mobile != "9876543210" {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}

	if rec := b.do(t, http.MethodPost, "/apply/resume/abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id code = %d", rec.Code)
	}
}

func TestApply_AnonymousRedirectsToLogin(t *testing.T) {
	b := newBFF(&loanmock.Gateway{}, nil)
	rec := b.do(t, http.MethodGet, "/apply", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["redirect"] != "/auth?next=%2Fapply" {
		t.Fatalf("body = %+v", body)
	}
}

func TestMyApplications_Summary(t *testing.T) {
	gw := &loanmock.Gateway{
		MyLoansFn: func(context.Context) ([]loan.Application, error) {
			return []loan.Application{
				{ID: 1, Status: loan.StatusDraft},
				{ID: 2, Status: loan.StatusEligible},
				{ID: 3, Status: loan.StatusKYCPending},
			}, nil
		},
	}
	b := newBFF(gw, applicant)
	rec := b.do(t, http.MethodGet, "/my-applications", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	body := decode[myLoansResp](t, rec)
	if len(body.Loans) != 3 || body.Summary.Total != 3 || body.Summary.Active != 2 || body.Summary.Eligible != 1 {
		t.Fatalf("body = %+v", body)
	}
}
