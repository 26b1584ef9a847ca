package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mini-los/internal/domain/loan"
	"mini-los/internal/domain/session"
	"mini-los/internal/validation"
)

// MaxApplicationsPerUser counts every application a user ever created.
const MaxApplicationsPerUser = 5

var activeStatuses = []loan.Status{
	loan.StatusDraft,
	loan.StatusKYCPending,
	loan.StatusKYCCompleted,
	loan.StatusCreditCheckPending,
	loan.StatusCreditCheckCompleted,
}

// transitions is the forward workflow; retry is handled on its own.
var transitions = map[loan.Status][]loan.Status{
	loan.StatusDraft:                {loan.StatusKYCPending},
	loan.StatusKYCPending:           {loan.StatusKYCCompleted, loan.StatusNotEligible},
	loan.StatusKYCCompleted:         {loan.StatusCreditCheckPending},
	loan.StatusCreditCheckPending:   {loan.StatusCreditCheckCompleted, loan.StatusNotEligible},
	loan.StatusCreditCheckCompleted: {loan.StatusEligible, loan.StatusNotEligible},
}

func canTransition(from, to loan.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ensureStatusIn guards an action on the application's current status.
func ensureStatusIn(a *Application, allowed ...loan.Status) error {
	for _, s := range allowed {
		if a.Status == s.String() {
			return nil
		}
	}
	names := make([]string, 0, len(allowed))
	for _, s := range allowed {
		names = append(names, s.String())
	}
	return badRequest("Invalid workflow state. Expected one of [%s], but current status is '%s'",
		strings.Join(names, ", "), a.Status)
}

// move applies one forward step of the workflow.
func move(a *Application, to loan.Status) error {
	from, err := loan.ParseStatus(a.Status)
	if err != nil {
		return err
	}
	if !canTransition(from, to) {
		return badRequest("Cannot transition from '%s' to '%s'", from, to)
	}
	a.Status = to.String()
	return nil
}

type Service struct {
	repos    Repos
	uow      UnitOfWork
	bureau   Bureau
	tokens   *TokenIssuer
	validate *validation.Validator
	log      *zap.Logger
}

func NewService(repos Repos, uow UnitOfWork, b Bureau, tokens *TokenIssuer, v *validation.Validator, log *zap.Logger) *Service {
	if v == nil {
		v = validation.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repos: repos, uow: uow, bureau: b, tokens: tokens, validate: v, log: log}
}

// ----- users -----

func (s *Service) Register(ctx context.Context, r session.Registration) (*User, error) {
	return s.register(ctx, r, false)
}

// CreateAdmin registers a user with admin rights, for seeding.
func (s *Service) CreateAdmin(ctx context.Context, r session.Registration) (*User, error) {
	return s.register(ctx, r, true)
}

func (s *Service) register(ctx context.Context, r session.Registration, admin bool) (*User, error) {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	if err := s.validate.Registration(r); err != nil {
		return nil, err
	}
	if _, err := s.repos.Users.GetByEmail(ctx, r.Email); err == nil {
		return nil, badRequest("Email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{FullName: r.FullName, Email: r.Email, PasswordHash: string(hash), IsAdmin: admin, IsActive: true}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Uint64("user_id", u.ID), zap.Bool("admin", admin))
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.repos.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return "", unauthorized("Incorrect email or password")
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", unauthorized("Incorrect email or password")
	}
	if !u.IsActive {
		return "", badRequest("Inactive user")
	}
	return s.tokens.Issue(u.ID)
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, &Problem{Code: http.StatusUnauthorized, Detail: "Could not validate credentials", Err: err}
	}
	u, err := s.repos.Users.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, unauthorized("Could not validate credentials")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, badRequest("Inactive user")
	}
	return u, nil
}

// ----- applications -----

func (s *Service) Create(ctx context.Context, u *User, p loan.Profile) (*Application, error) {
	if err := s.validate.Profile(&p); err != nil {
		return nil, err
	}
	a := &Application{
		UserID:         u.ID,
		FullName:       p.FullName,
		Mobile:         p.Mobile,
		PAN:            p.PAN,
		DOB:            p.DOB.Time,
		Email:          u.Email,
		Address:        p.Address,
		EmploymentType: string(p.EmploymentType),
		MonthlyIncome:  p.MonthlyIncome,
		LoanAmount:     p.LoanAmount,
		Purpose:        p.Purpose,
		Status:         loan.StatusDraft.String(),
	}
	err := s.uow.WithinTx(ctx, func(r Repos) error {
		n, err := r.Applications.CountByUser(ctx, u.ID)
		if err != nil {
			return err
		}
		if n >= MaxApplicationsPerUser {
			return badRequest("Maximum can fill %d applications for the loan", MaxApplicationsPerUser)
		}
		existing, err := r.Applications.ActiveByPAN(ctx, u.ID, p.PAN)
		switch {
		case err == nil:
			return badRequest("An active application already exists for this PAN. Application ID: %d", existing.ID)
		case !errors.Is(err, ErrNotFound):
			return err
		}
		return r.Applications.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("application created", zap.Uint64("application_id", a.ID), zap.Uint64("user_id", u.ID))
	return a, nil
}

// visible hides other users' applications behind a 404.
func visible(u *User, a *Application) bool {
	return u.IsAdmin || a.UserID == u.ID
}

func (s *Service) Get(ctx context.Context, u *User, id uint64) (*Application, *Results, error) {
	a, err := s.repos.Applications.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) || (err == nil && !visible(u, a)) {
		return nil, nil, applicationNotFound(id)
	}
	if err != nil {
		return nil, nil, err
	}
	res, err := s.repos.Results.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return a, res, nil
}

func (s *Service) MyApplications(ctx context.Context, u *User) ([]Application, error) {
	return s.repos.Applications.ListByUser(ctx, u.ID)
}

// withApplication locks the application and checks it is visible to u.
func (s *Service) withApplication(ctx context.Context, u *User, id uint64, fn func(r Repos, a *Application) error) error {
	err := s.uow.WithinApplicationTx(ctx, id, func(r Repos, a *Application) error {
		if !visible(u, a) {
			return applicationNotFound(id)
		}
		return fn(r, a)
	})
	if errors.Is(err, ErrNotFound) {
		return applicationNotFound(id)
	}
	return err
}

// Update edits a DRAFT application. Amount changes are re-checked against
// the income multiple.
func (s *Service) Update(ctx context.Context, u *User, id uint64, upd loan.Update) (*Application, error) {
	if err := s.validate.Update(&upd); err != nil {
		return nil, err
	}
	var out *Application
	err := s.withApplication(ctx, u, id, func(r Repos, a *Application) error {
		if a.Status != loan.StatusDraft.String() {
			return badRequest("Only DRAFT applications can be updated. Current status: %s", a.Status)
		}
		applyUpdate(a, upd)
		if upd.MonthlyIncome != nil || upd.LoanAmount != nil {
			limit := loan.Profile{MonthlyIncome: a.MonthlyIncome}.MaxLoanAmount()
			if a.LoanAmount.GreaterThan(limit) {
				return &validation.Error{Fields: []validation.FieldError{{Field: "loan_amount", Message: "cannot exceed 20x income"}}}
			}
		}
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("application updated", zap.Uint64("application_id", id))
	return out, nil
}

func applyUpdate(a *Application, upd loan.Update) {
	if upd.FullName != nil {
		a.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.Mobile != nil {
		a.Mobile = *upd.Mobile
	}
	if upd.Email != nil {
		a.Email = *upd.Email
	}
	if upd.Address != nil {
		a.Address = *upd.Address
	}
	if upd.EmploymentType != nil {
		a.EmploymentType = string(*upd.EmploymentType)
	}
	if upd.MonthlyIncome != nil {
		a.MonthlyIncome = *upd.MonthlyIncome
	}
	if upd.LoanAmount != nil {
		a.LoanAmount = *upd.LoanAmount
	}
	if upd.Purpose != nil {
		a.Purpose = *upd.Purpose
	}
}

// KYCReport is the response to a KYC submission or retry.
type KYCReport struct {
	ApplicationID     uint64  `json:"application_id"`
	NameMatchScore    float64 `json:"name_match_score"`
	KYCStatus         string  `json:"kyc_status"`
	ApplicationStatus string  `json:"application_status"`
	Message           string  `json:"message"`
}

// SubmitKYC verifies the applicant: DRAFT or KYC_PENDING moves to
// KYC_COMPLETED or NOT_ELIGIBLE.
func (s *Service) SubmitKYC(ctx context.Context, u *User, id uint64) (*KYCReport, error) {
	var rep *KYCReport
	err := s.withApplication(ctx, u, id, func(r Repos, a *Application) error {
		if err := ensureStatusIn(a, loan.StatusDraft, loan.StatusKYCPending); err != nil {
			return err
		}
		if a.Status == loan.StatusDraft.String() {
			if err := move(a, loan.StatusKYCPending); err != nil {
				return err
			}
		}
		o, err := s.bureau.VerifyKYC(ctx, a)
		if err != nil {
			return &Problem{Code: http.StatusBadGateway, Detail: "KYC provider unavailable", Err: err}
		}
		kyc := &KYCRecord{
			ApplicationID:   a.ID,
			NameMatchScore:  o.NameMatchScore,
			Status:          string(loan.KYCFailed),
			PANVerified:     flagString(o.PANVerified),
			AddressVerified: flagString(o.AddressVerified),
		}
		next := loan.StatusNotEligible
		msg := fmt.Sprintf("KYC verification failed. Name match score: %.0f. Minimum required: %d.", o.NameMatchScore, MinNameMatchScore)
		if o.Passed() {
			kyc.Status = string(loan.KYCPassed)
			next = loan.StatusKYCCompleted
			msg = "KYC verification passed. You can proceed to credit check."
		}
		if err := r.Results.SaveKYC(ctx, kyc); err != nil {
			return err
		}
		if err := move(a, next); err != nil {
			return err
		}
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}
		rep = &KYCReport{ApplicationID: a.ID, NameMatchScore: o.NameMatchScore, KYCStatus: kyc.Status, ApplicationStatus: a.Status, Message: msg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("kyc processed", zap.Uint64("application_id", id), zap.String("status", rep.ApplicationStatus))
	return rep, nil
}

// CreditReport is the response to a credit check.
type CreditReport struct {
	ApplicationID     uint64 `json:"application_id"`
	CreditScore       int    `json:"credit_score"`
	ActiveLoans       int    `json:"active_loans"`
	Approved          bool   `json:"is_approved"`
	ApplicationStatus string `json:"application_status"`
	Message           string `json:"message"`
}

// RunCreditCheck pulls the credit report and decides eligibility in one
// transaction: KYC_COMPLETED lands on ELIGIBLE or NOT_ELIGIBLE.
func (s *Service) RunCreditCheck(ctx context.Context, u *User, id uint64) (*CreditReport, error) {
	var rep *CreditReport
	err := s.withApplication(ctx, u, id, func(r Repos, a *Application) error {
		if err := ensureStatusIn(a, loan.StatusKYCCompleted, loan.StatusCreditCheckPending); err != nil {
			return err
		}
		if a.Status == loan.StatusKYCCompleted.String() {
			if err := move(a, loan.StatusCreditCheckPending); err != nil {
				return err
			}
		}
		o, err := s.bureau.CreditReport(ctx, a)
		if err != nil {
			return &Problem{Code: http.StatusBadGateway, Detail: "Credit bureau unavailable", Err: err}
		}
		reasons := o.RejectionReasons()
		credit := &CreditRecord{
			ApplicationID:   a.ID,
			CreditScore:     o.CreditScore,
			ActiveLoans:     o.ActiveLoans,
			Approved:        len(reasons) == 0,
			RejectionReason: strings.Join(reasons, "; "),
		}
		if err := r.Results.SaveCredit(ctx, credit); err != nil {
			return err
		}

		elig := &EligibilityRecord{
			ApplicationID: a.ID,
			InterestRate:  offerInterestRate,
			TenureMonths:  offerTenureMonths,
			MaxEMI:        maxEMI(a.MonthlyIncome, a.EmploymentType),
		}
		msg := "Credit check failed: " + credit.RejectionReason
		if credit.Approved {
			if err := move(a, loan.StatusCreditCheckCompleted); err != nil {
				return err
			}
			elig.Eligible = true
			elig.EligibleAmount = a.LoanAmount
			if err := move(a, loan.StatusEligible); err != nil {
				return err
			}
			msg = "Credit check passed. Application is eligible."
		} else {
			elig.RejectionReasons = credit.RejectionReason
			if err := move(a, loan.StatusNotEligible); err != nil {
				return err
			}
		}
		if err := r.Results.SaveEligibility(ctx, elig); err != nil {
			return err
		}
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}
		rep = &CreditReport{
			ApplicationID:     a.ID,
			CreditScore:       o.CreditScore,
			ActiveLoans:       o.ActiveLoans,
			Approved:          credit.Approved,
			ApplicationStatus: a.Status,
			Message:           msg,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("credit check processed", zap.Uint64("application_id", id), zap.String("status", rep.ApplicationStatus))
	return rep, nil
}

// RetryKYC sends a NOT_ELIGIBLE application back to KYC_PENDING and drops
// its earlier verification results.
func (s *Service) RetryKYC(ctx context.Context, u *User, id uint64) (*KYCReport, error) {
	var rep *KYCReport
	err := s.withApplication(ctx, u, id, func(r Repos, a *Application) error {
		if a.Status == loan.StatusKYCCompleted.String() {
			return badRequest("KYC already completed successfully for this application")
		}
		if a.Status != loan.StatusNotEligible.String() {
			return badRequest("KYC retry is only allowed for failed applications. Current status: %s", a.Status)
		}
		if err := r.Results.Clear(ctx, a.ID); err != nil {
			return err
		}
		a.Status = loan.StatusKYCPending.String()
		if err := r.Applications.Save(ctx, a); err != nil {
			return err
		}
		rep = &KYCReport{
			ApplicationID:     a.ID,
			KYCStatus:         string(loan.KYCPending),
			ApplicationStatus: a.Status,
			Message:           "KYC reset. The applicant can submit KYC again.",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("kyc retry", zap.Uint64("application_id", id), zap.Uint64("admin_id", u.ID))
	return rep, nil
}

// ----- admin -----

func (s *Service) List(ctx context.Context, f loan.ListFilter) ([]Application, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return s.repos.Applications.List(ctx, f)
}

// Stats counts applications per status. The completion rate is the share of
// all applications that reached a decision; the approval rate is the share of
// decided applications that were eligible. Both are rounded to two places.
func (s *Service) Stats(ctx context.Context) (*loan.Stats, error) {
	counts, err := s.repos.Applications.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	st := &loan.Stats{ByStatus: make(map[loan.Status]int, len(loan.Statuses()))}
	for _, status := range loan.Statuses() {
		n := int(counts[status.String()])
		st.ByStatus[status] = n
		st.Total += n
	}
	done := st.ByStatus[loan.StatusEligible] + st.ByStatus[loan.StatusNotEligible]
	if st.Total > 0 {
		st.CompletionRate = round2(float64(done) / float64(st.Total) * 100)
	}
	if done > 0 {
		st.ApprovalRate = round2(float64(st.ByStatus[loan.StatusEligible]) / float64(done) * 100)
	}
	return st, nil
}

func (s *Service) History(ctx context.Context, u *User, id uint64) (*Application, *Results, error) {
	return s.Get(ctx, u, id)
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
