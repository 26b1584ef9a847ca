package losapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RemoteError is a non-2xx answer (or no answer at all) from the loan service.
type RemoteError struct {
	Op         string
	StatusCode int // 0 when the request never got a response
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.StatusCode)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// AuthError is a 401 on an authenticated call. The session has already been
// invalidated when it is returned.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Message }

func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// fallbacks are the user-facing messages shown when the server gives no detail.
var fallbacks = map[string]string{
	opRegister:       "Registration failed. Please try again.",
	opLogin:          "Login failed. Please check your credentials.",
	opMe:             "Failed to fetch current user",
	opCreateLoan:     "Failed to create loan application",
	opGetLoan:        "Failed to fetch loan",
	opUpdateLoan:     "Failed to update",
	opMyLoans:        "Failed to load data",
	opSubmitKYC:      "KYC submission failed",
	opRunCreditCheck: "Credit check failed",
	opRetryKYC:       "KYC retry failed",
	opAllLoans:       "Failed to fetch data",
	opStats:          "Failed to fetch data",
	opHistory:        "Failed to load details",
}

func fallbackFor(op string) string {
	if m, ok := fallbacks[op]; ok {
		return m
	}
	return "Request failed"
}

// detailMessage pulls a message out of an error body. FastAPI sends either
// {"detail": "..."} or {"detail": [{"msg": "..."}, ...]}; some handlers use
// {"message": "..."}.
func detailMessage(body []byte) string {
	var raw struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ""
	}
	if len(raw.Detail) > 0 {
		var s string
		if err := json.Unmarshal(raw.Detail, &s); err == nil {
			return strings.TrimSpace(s)
		}
		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw.Detail, &list); err == nil {
			msgs := make([]string, 0, len(list))
			for _, m := range list {
				if m.Msg != "" {
					msgs = append(msgs, m.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return strings.TrimSpace(raw.Message)
}

// UserMessage is the text shown to the user.
func (e *RemoteError) UserMessage() string { return e.Message }

func (e *AuthError) UserMessage() string { return e.Message }
