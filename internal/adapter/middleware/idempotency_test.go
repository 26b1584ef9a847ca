package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	testReqID   = "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88"
	testSubject = "user-7"
)

func fixedSubject(echo.Context) string { return testSubject }

// setupEcho mounts h on /loan/create for both verbs behind the middleware.
func setupEcho(rdb redis.Cmdable, ttl time.Duration, h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	g := e.Group("", IdempotencyMiddleware(rdb, ttl, fixedSubject, nil))
	g.Match([]string{http.MethodGet, http.MethodPost}, "/loan/create", h)
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return &buf
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(method, path, body)
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for name, val := range hdr {
		r.Header.Set(name, val)
	}
	e.ServeHTTP(rec, r)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// validHeaders stamps a request with testReqID sent now.
func validHeaders() map[string]string {
	at := time.Now().UTC().Format(time.RFC3339)
	return map[string]string{HeaderRequestID: testReqID, HeaderRequestAt: at}
}

// createdHandler answers 201 with the call count as the new id.
func createdHandler(calls *int32) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := atomic.AddInt32(calls, 1)
		return c.JSON(http.StatusCreated, map[string]any{"id": id, "status": "DRAFT"})
	}
}

func TestIdempotency_GETBypassesChecks(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "DRAFT"})
	})
	if rec := doReq(t, e, http.MethodGet, "/loan/create", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIdempotency_RejectsBadHeaders(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 30*time.Second, createdHandler(&calls))
	now := time.Now().UTC()

	for name, h := range map[string]map[string]string{
		"missing request id": {HeaderRequestAt: now.Format(time.RFC3339)},
		"garbage request at": {HeaderRequestID: testReqID, HeaderRequestAt: "not-a-time"},
		"skewed":             {HeaderRequestID: testReqID, HeaderRequestAt: now.Add(-time.Hour).Format(time.RFC3339)},
	} {
		rec := doReq(t, e, http.MethodPost, "/loan/create", mkJSONBody(t, map[string]int{"x": 1}), h)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", name, rec.Code)
		}
		var body map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if body["detail"] == "" {
			t.Fatalf("%s: error body should carry detail: %s", name, rec.Body.String())
		}
	}
	if calls != 0 {
		t.Fatalf("handler must not run for rejected requests, ran %d times", calls)
	}
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, createdHandler(&calls))

	h := validHeaders()
	first := doReq(t, e, http.MethodPost, "/loan/create", mkJSONBody(t, map[string]any{"loan_amount": 500000}), h)
	if first.Code != http.StatusCreated {
		t.Fatalf("first: want 201, got %d, body: %s", first.Code, first.Body.String())
	}
	again := doReq(t, e, http.MethodPost, "/loan/create", mkJSONBody(t, map[string]any{"loan_amount": 500000}), h)
	if again.Code != http.StatusCreated || again.Body.String() != first.Body.String() {
		t.Fatalf("replay: %d %q vs %q", again.Code, again.Body.String(), first.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotency_DistinctRequestIDsBothRun(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, createdHandler(&calls))

	h := validHeaders()
	doReq(t, e, http.MethodPost, "/loan/create", mkJSONBody(t, map[string]int{"x": 1}), h)
	h[HeaderRequestID] = "0b6f3c55-6a8e-4d0e-9a57-1f4f7f0c2d11"
	doReq(t, e, http.MethodPost, "/loan/create", mkJSONBody(t, map[string]int{"x": 1}), h)
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func TestIdempotency_Conflicts(t *testing.T) {
	body := []byte(`{"x":1}`)
	key := keyFor(http.MethodPost, "/loan/create", testSubject, testReqID)

	cases := []struct {
		name string
		seed outcome
		send []byte
	}{
		{"still running", outcome{Pending: true, Fingerprint: fingerprint(body), RequestID: testReqID}, body},
		{"different body", outcome{Status: http.StatusCreated, Payload: []byte(`{"id":1}`), Fingerprint: fingerprint(body)}, []byte(`{"x":2}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mr, rdb := newMiniredisClient(t)
			defer mr.Close()
			var calls int32
			e := setupEcho(rdb, 2*time.Minute, createdHandler(&calls))
			store := &outcomeStore{rdb: rdb, ttl: time.Minute}
			if err := store.commit(context.Background(), key, tc.seed); err != nil {
				t.Fatalf("seed: %v", err)
			}

			rec := doReq(t, e, http.MethodPost, "/loan/create", bytes.NewReader(tc.send), validHeaders())
			if rec.Code != http.StatusConflict {
				t.Fatalf("want 409, got %d body=%s", rec.Code, rec.Body.String())
			}
			if calls != 0 {
				t.Fatalf("handler must not run")
			}
		})
	}
}

func TestIdempotency_ServerErrorIsNotStored(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, 2*time.Minute, func(c echo.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return c.JSON(http.StatusBadGateway, map[string]string{"detail": "bureau down"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "KYC_COMPLETED"})
	})

	h := validHeaders()
	if rec := doReq(t, e, http.MethodPost, "/loan/create", bytes.NewReader([]byte(`{}`)), h); rec.Code != http.StatusBadGateway {
		t.Fatalf("first: want 502, got %d", rec.Code)
	}
	if mr.Exists(keyFor(http.MethodPost, "/loan/create", testSubject, testReqID)) {
		t.Fatalf("failed response must not be kept")
	}
	rec := doReq(t, e, http.MethodPost, "/loan/create", bytes.NewReader([]byte(`{}`)), h)
	if rec.Code != http.StatusOK || calls != 2 {
		t.Fatalf("retry: got %d after %d calls", rec.Code, calls)
	}
}

func TestIdempotency_StoreUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	var calls int32
	e := setupEcho(rdb, time.Minute, createdHandler(&calls))

	rec := doReq(t, e, http.MethodPost, "/loan/create", bytes.NewReader([]byte(`{}`)), validHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run without the store")
	}
}

func TestIdempotency_TruncatedBodyIsRejected(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int32
	e := setupEcho(rdb, time.Minute, createdHandler(&calls))

	body := io.MultiReader(bytes.NewReader([]byte(`{"full_name":"Asha`)), iotest.ErrReader(errors.New("connection reset")))
	rec := doReq(t, e, http.MethodPost, "/loan/create", body, validHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not see a partial body")
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("nothing should be claimed, got %v", keys)
	}
}
