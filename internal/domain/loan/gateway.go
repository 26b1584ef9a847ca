package loan

import "context"

// Gateway is the remote loan service as seen by the workflow. Action calls
// return only once the server has applied the transition; their response
// bodies are not authoritative for status.
type Gateway interface {
	Create(ctx context.Context, p Profile) (*Application, error)
	Get(ctx context.Context, id uint64) (*Application, error)
	Update(ctx context.Context, id uint64, u Update) (*Application, error)
	MyLoans(ctx context.Context) ([]Application, error)
	SubmitKYC(ctx context.Context, id uint64) error
	RunCreditCheck(ctx context.Context, id uint64) error

	// admin
	RetryKYC(ctx context.Context, id uint64) error
	AllLoans(ctx context.Context, f ListFilter) ([]Application, error)
	Stats(ctx context.Context) (*Stats, error)
	History(ctx context.Context, id uint64) (*History, error)
}
