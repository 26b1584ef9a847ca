package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestHealth(t *testing.T) {
	cases := []struct {
		name       string
		check      HealthCheck
		wantCode   int
		wantStatus string
		wantErr    string
	}{
		{name: "no check", wantCode: http.StatusOK, wantStatus: "ok"},
		{
			name:       "session store reachable",
			check:      func(context.Context) error { return nil },
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "session store down",
			check:      func(context.Context) error { return errors.New("dial tcp: connection refused") },
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantErr:    "dial tcp: connection refused",
		},
		{
			name: "check gets a deadline",
			check: func(ctx context.Context) error {
				if _, ok := ctx.Deadline(); !ok {
					return errors.New("no deadline")
				}
				return nil
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			if err := NewHandler(tc.check).Health(c); err != nil {
				t.Fatalf("Health: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			var body struct {
				Status string `json:"status"`
				Time   string `json:"time"`
				Error  string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v (%s)", err, rec.Body.String())
			}
			if body.Status != tc.wantStatus || body.Error != tc.wantErr {
				t.Fatalf("body = %+v", body)
			}
			ts, err := time.Parse(time.RFC3339Nano, body.Time)
			if err != nil {
				t.Fatalf("time %q: %v", body.Time, err)
			}
			if d := time.Since(ts); d < -time.Second || d > 5*time.Second {
				t.Fatalf("time out of range: %v", ts)
			}
		})
	}
}
