package workflow

import (
	"context"
	"errors"
	"sync"

	"mini-los/internal/domain/loan"
)

// ErrDetached is returned by actions started on a view that has gone away.
var ErrDetached = errors.New("view is no longer attached")

// Flow is the state behind one application view: the loan as last fetched,
// whether an action is running, and the error to display. At most one
// action runs at a time.
type Flow struct {
	uc *Usecase

	mu       sync.Mutex
	app      *loan.Application
	busy     bool
	err      error
	detached bool
	gen      uint64 // bumped by Reset/Detach; stale completions are dropped
}

func NewFlow(uc *Usecase) *Flow { return &Flow{uc: uc} }

// begin claims the single action slot.
func (f *Flow) begin() (*loan.Application, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detached {
		return nil, 0, ErrDetached
	}
	if f.busy {
		return nil, 0, loan.ErrActionInFlight
	}
	f.busy = true
	f.err = nil
	return f.app, f.gen, nil
}

// finish publishes the outcome. next replaces the loan only when non-nil.
func (f *Flow) finish(gen uint64, next *loan.Application, err error) (ViewModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen || f.detached {
		// reset or closed while the call was running
		return f.viewLocked(), ErrDetached
	}
	f.busy = false
	if next != nil {
		f.app = next
	}
	f.err = err
	return f.viewLocked(), err
}

func (f *Flow) Create(ctx context.Context, p loan.Profile) (ViewModel, error) {
	_, gen, err := f.begin()
	if err != nil {
		return f.View(), err
	}
	app, err := f.uc.CreateLoan(ctx, p)
	return f.finish(gen, app, err)
}

// Resume loads an existing application into the view.
func (f *Flow) Resume(ctx context.Context, id uint64) (ViewModel, error) {
	_, gen, err := f.begin()
	if err != nil {
		return f.View(), err
	}
	app, err := f.uc.FetchLoan(ctx, id)
	return f.finish(gen, app, err)
}

// Refresh refetches the current application.
func (f *Flow) Refresh(ctx context.Context) (ViewModel, error) {
	cur, gen, err := f.begin()
	if err != nil {
		return f.View(), err
	}
	if cur == nil {
		return f.finish(gen, nil, loan.ErrNoLoan)
	}
	app, err := f.uc.FetchLoan(ctx, cur.ID)
	return f.finish(gen, app, err)
}

func (f *Flow) SubmitKYC(ctx context.Context) (ViewModel, error) {
	cur, gen, err := f.begin()
	if err != nil {
		return f.View(), err
	}
	app, err := f.uc.SubmitKYC(ctx, cur)
	return f.finish(gen, app, err)
}

func (f *Flow) RunCreditCheck(ctx context.Context) (ViewModel, error) {
	cur, gen, err := f.begin()
	if err != nil {
		return f.View(), err
	}
	app, err := f.uc.RunCreditCheck(ctx, cur)
	return f.finish(gen, app, err)
}

func (f *Flow) Update(ctx context.Context, upd loan.Update) (ViewModel, error) {
	cur, gen, err := f.begin()
	if err != nil {
		return f.View(), err
	}
	app, err := f.uc.UpdateLoan(ctx, cur, upd)
	return f.finish(gen, app, err)
}

// Reset clears the view back to onboarding without touching the server.
// A running action's result is discarded.
func (f *Flow) Reset() ViewModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.app = nil
	f.err = nil
	f.busy = false
	return f.viewLocked()
}

// Detach marks the view as gone. Results of calls still in flight are
// dropped when they arrive.
func (f *Flow) Detach() {
	f.mu.Lock()
	f.detached = true
	f.gen++
	f.busy = false
	f.mu.Unlock()
}

// Loan returns a copy of the current application, or nil.
func (f *Flow) Loan() *loan.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.app == nil {
		return nil
	}
	cp := *f.app
	return &cp
}

func (f *Flow) View() ViewModel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Flow) viewLocked() ViewModel {
	return NewViewModel(f.app, f.busy, f.err)
}
