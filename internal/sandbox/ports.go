package sandbox

import (
	"context"

	"mini-los/internal/domain/loan"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *Application) error
	Save(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id uint64) (*Application, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Application, error)
	ListByUser(ctx context.Context, userID uint64) ([]Application, error)
	List(ctx context.Context, f loan.ListFilter) ([]Application, error)
	CountByUser(ctx context.Context, userID uint64) (int64, error)
	// ActiveByPAN finds a non-terminal application of userID for pan.
	ActiveByPAN(ctx context.Context, userID uint64, pan string) (*Application, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type ResultRepository interface {
	SaveKYC(ctx context.Context, r *KYCRecord) error
	SaveCredit(ctx context.Context, r *CreditRecord) error
	SaveEligibility(ctx context.Context, r *EligibilityRecord) error
	Load(ctx context.Context, applicationID uint64) (*Results, error)
	Clear(ctx context.Context, applicationID uint64) error
}

// Repos is the set of repositories bound to one connection or transaction.
type Repos struct {
	Users        UserRepository
	Applications ApplicationRepository
	Results      ResultRepository
}

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinApplicationTx locks the application row before calling fn.
	WithinApplicationTx(ctx context.Context, id uint64, fn func(r Repos, a *Application) error) error
}
