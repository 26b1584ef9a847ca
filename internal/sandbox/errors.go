package sandbox

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by repositories for missing rows.
var ErrNotFound = errors.New("record not found")

// Problem is an error with an HTTP status and a client-facing detail.
type Problem struct {
	Code   int
	Detail string
	Err    error
}

func (p *Problem) Error() string {
	if p.Err != nil {
		return fmt.Sprintf("%d %s: %v", p.Code, p.Detail, p.Err)
	}
	return fmt.Sprintf("%d %s", p.Code, p.Detail)
}

func (p *Problem) Unwrap() error { return p.Err }

func badRequest(format string, args ...any) *Problem {
	return &Problem{Code: http.StatusBadRequest, Detail: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Problem {
	return &Problem{Code: http.StatusNotFound, Detail: fmt.Sprintf(format, args...)}
}

func unauthorized(detail string) *Problem {
	return &Problem{Code: http.StatusUnauthorized, Detail: detail}
}

func forbidden(detail string) *Problem {
	return &Problem{Code: http.StatusForbidden, Detail: detail}
}

func applicationNotFound(id uint64) *Problem {
	return notFound("Loan application with ID %d not found", id)
}
