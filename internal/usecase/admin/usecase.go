package admin

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mini-los/internal/domain/loan"
	"mini-los/internal/usecase/workflow"
)

type Usecase struct {
	gw  loan.Gateway
	wf  *workflow.Usecase
	log *zap.Logger
}

func NewUsecase(gw loan.Gateway, wf *workflow.Usecase, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{gw: gw, wf: wf, log: log}
}

// Dashboard fetches the listing and the stats concurrently. Either failure
// fails the whole load.
func (u *Usecase) Dashboard(ctx context.Context, f loan.ListFilter) (*Dashboard, error) {
	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loans, err := u.gw.AllLoans(gctx, f)
		if err != nil {
			return fmt.Errorf("list loans: %w", err)
		}
		out.Loans = loans
		return nil
	})
	g.Go(func() error {
		st, err := u.gw.Stats(gctx)
		if err != nil {
			return fmt.Errorf("loan stats: %w", err)
		}
		out.Stats = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *Usecase) ListLoans(ctx context.Context, f loan.ListFilter) ([]loan.Application, error) {
	return u.gw.AllLoans(ctx, f)
}

func (u *Usecase) Stats(ctx context.Context) (*loan.Stats, error) {
	return u.gw.Stats(ctx)
}

func (u *Usecase) History(ctx context.Context, id uint64) (*loan.History, error) {
	return u.gw.History(ctx, id)
}

// UpdateLoan edits a DRAFT application on behalf of its owner.
func (u *Usecase) UpdateLoan(ctx context.Context, id uint64, upd loan.Update) (*loan.Application, error) {
	return u.wf.UpdateLoanByID(ctx, id, upd)
}

// RetryKYC sends a NOT_ELIGIBLE application back to KYC_PENDING and returns
// the listing as refetched afterwards.
func (u *Usecase) RetryKYC(ctx context.Context, id uint64, f loan.ListFilter) (*RetryResult, error) {
	cur, err := u.gw.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !loan.Allows(cur.Status, loan.ActionRetryKYC) {
		return nil, fmt.Errorf("%w: retry kyc from %s", loan.ErrInvalidTransition, cur.Status)
	}
	if err := u.gw.RetryKYC(ctx, id); err != nil {
		u.log.Warn("retry kyc failed", zap.Uint64("loan_id", id), zap.Error(err))
		return nil, err
	}
	u.log.Info("kyc retry requested", zap.Uint64("loan_id", id))

	loans, err := u.gw.AllLoans(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("refresh loans: %w", err)
	}
	return &RetryResult{LoanID: id, Loans: loans}, nil
}
