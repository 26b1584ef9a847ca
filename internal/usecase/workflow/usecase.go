package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mini-los/internal/domain/loan"
	"mini-los/internal/validation"
)

// Usecase drives the loan application through the remote workflow. It holds
// no per-view state; see Flow for that.
type Usecase struct {
	gw       loan.Gateway
	validate *validation.Validator
	log      *zap.Logger
}

func NewUsecase(gw loan.Gateway, v *validation.Validator, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if v == nil {
		v = validation.New()
	}
	return &Usecase{gw: gw, validate: v, log: log}
}

// CreateLoan validates the profile and creates a DRAFT application. Invalid
// input never reaches the server.
func (u *Usecase) CreateLoan(ctx context.Context, p loan.Profile) (*loan.Application, error) {
	if err := u.validate.Profile(&p); err != nil {
		return nil, err
	}
	app, err := u.gw.Create(ctx, p)
	if err != nil {
		u.log.Warn("create loan failed", zap.Error(err))
		return nil, err
	}
	u.log.Info("loan created", zap.Uint64("loan_id", app.ID), zap.Stringer("status", app.Status))
	return app, nil
}

func (u *Usecase) FetchLoan(ctx context.Context, id uint64) (*loan.Application, error) {
	return u.gw.Get(ctx, id)
}

func (u *Usecase) FetchMyLoans(ctx context.Context) ([]loan.Application, error) {
	return u.gw.MyLoans(ctx)
}

// SubmitKYC runs identity verification and returns the refetched
// application. When the server reports the application still waiting for
// KYC, the refetched application is returned together with ErrNotAdvanced.
func (u *Usecase) SubmitKYC(ctx context.Context, cur *loan.Application) (*loan.Application, error) {
	return u.advance(ctx, cur, loan.ActionSubmitKYC, u.gw.SubmitKYC)
}

// RunCreditCheck may land the application directly on ELIGIBLE or
// NOT_ELIGIBLE.
func (u *Usecase) RunCreditCheck(ctx context.Context, cur *loan.Application) (*loan.Application, error) {
	return u.advance(ctx, cur, loan.ActionRunCreditCheck, u.gw.RunCreditCheck)
}

func (u *Usecase) advance(ctx context.Context, cur *loan.Application, action loan.Action, call func(context.Context, uint64) error) (*loan.Application, error) {
	if cur == nil {
		return nil, loan.ErrNoLoan
	}
	if !loan.Allows(cur.Status, action) {
		return nil, fmt.Errorf("%w: %s from %s", loan.ErrInvalidTransition, action, cur.Status)
	}
	if err := call(ctx, cur.ID); err != nil {
		u.log.Warn("workflow action failed", zap.String("action", string(action)), zap.Uint64("loan_id", cur.ID), zap.Error(err))
		return nil, err
	}

	// the action response is never trusted for status
	next, err := u.gw.Get(ctx, cur.ID)
	if err != nil {
		u.log.Warn("refetch after action failed", zap.String("action", string(action)), zap.Uint64("loan_id", cur.ID), zap.Error(err))
		return nil, fmt.Errorf("refetch loan %d: %w", cur.ID, err)
	}
	u.log.Info("workflow advanced",
		zap.String("action", string(action)),
		zap.Uint64("loan_id", cur.ID),
		zap.Stringer("from", cur.Status),
		zap.Stringer("to", next.Status),
	)
	// a pending credit check is a legitimate resting state; pending KYC is not
	if action == loan.ActionSubmitKYC && loan.Allows(next.Status, action) {
		return next, loan.ErrNotAdvanced
	}
	return next, nil
}

// UpdateLoan edits a DRAFT application. Status is unchanged.
func (u *Usecase) UpdateLoan(ctx context.Context, cur *loan.Application, upd loan.Update) (*loan.Application, error) {
	if cur == nil {
		return nil, loan.ErrNoLoan
	}
	if !loan.Allows(cur.Status, loan.ActionUpdate) {
		return nil, fmt.Errorf("%w: update from %s", loan.ErrInvalidTransition, cur.Status)
	}
	if err := u.validate.Update(&upd); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return cur, nil
	}
	next, err := u.gw.Update(ctx, cur.ID, upd)
	if err != nil {
		return nil, err
	}
	u.log.Info("loan updated", zap.Uint64("loan_id", cur.ID))
	return next, nil
}

// UpdateLoanByID loads the application first so the DRAFT gate sees the
// server's current status.
func (u *Usecase) UpdateLoanByID(ctx context.Context, id uint64, upd loan.Update) (*loan.Application, error) {
	cur, err := u.gw.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.UpdateLoan(ctx, cur, upd)
}
