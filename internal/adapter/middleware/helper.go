package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mini-los/pkg/id"
)

func fingerprint(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func nowUTC() time.Time { return time.Now().UTC() }

func keyFor(method, path, subject, requestID string) string {
	return strings.Join([]string{"idemp", "los", strings.ToLower(method), path, subject, requestID}, ":")
}

// stamp is the pair of headers every state-advancing request carries.
type stamp struct {
	id string
	at time.Time
}

func readStamp(h http.Header, now time.Time) (stamp, error) {
	reqID := strings.ToLower(strings.TrimSpace(h.Get(HeaderRequestID)))
	switch {
	case reqID == "":
		return stamp{}, errors.New("missing " + HeaderRequestID)
	case !id.Valid(reqID):
		return stamp{}, errors.New("invalid " + HeaderRequestID + " format")
	}
	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return stamp{}, err
	}
	if skew := now.Sub(at); skew > maxClockSkew || skew < -maxClockSkew {
		return stamp{}, errors.New(HeaderRequestAt + " too skewed")
	}
	return stamp{id: reqID, at: at}, nil
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with
// a zone. Zone-less timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}
