package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderRequestAt = "X-Request-At"

	// how long a claim survives a handler that never finishes
	claimTTL = time.Minute
	// accepted distance between X-Request-At and the server clock
	maxClockSkew = 10 * time.Minute
	// per Redis round trip
	storeTimeout = 2 * time.Second
)

// teeWriter passes the response through and keeps a copy for the store.
type teeWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Subject names the caller an idempotency key belongs to.
type Subject func(c echo.Context) string

func subjectOf(c echo.Context, subject Subject) string {
	if subject != nil {
		if s := strings.TrimSpace(subject(c)); s != "" {
			return s
		}
	}
	return "anonymous"
}

// IdempotencyMiddleware makes state-advancing requests safe to repeat. The
// key is method + path + subject + X-Request-Id. A repeat with the same body
// replays the stored response; a different body, or a repeat while the
// first is still running, gets 409. Server errors are not stored so the
// caller can try again.
func IdempotencyMiddleware(rdb redis.Cmdable, ttl time.Duration, subject Subject, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	store := &outcomeStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == http.MethodOptions {
				return next(c)
			}

			st, err := readStamp(req.Header, nowUTC())
			if err != nil {
				return detail(c, http.StatusBadRequest, err.Error())
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					log.Warn("read request body", zap.String("request_id", st.id), zap.Error(err))
					return detail(c, http.StatusBadRequest, "could not read request body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			key := keyFor(req.Method, req.URL.Path, subjectOf(c, subject), st.id)
			pending := outcome{Pending: true, Fingerprint: fingerprint(body), RequestID: st.id, RequestAt: st.at}

			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()
			claimed, err := store.claim(ctx, key, pending)
			if err != nil {
				log.Error("idempotency store unavailable", zap.String("key", key), zap.Error(err))
				return detail(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !claimed {
				return replay(c, store, key, pending.Fingerprint, log)
			}

			w := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = w
			if err := next(c); err != nil {
				c.Error(err)
			}
			c.Response().Writer = w.ResponseWriter

			// a detached context: the request one may already be done
			bg, cancelBG := context.WithTimeout(context.Background(), storeTimeout)
			defer cancelBG()
			if w.status >= http.StatusInternalServerError {
				if err := store.release(bg, key); err != nil {
					log.Warn("idempotency claim not released", zap.String("key", key), zap.Error(err))
				}
				return nil
			}
			done := pending
			done.Pending = false
			done.Status = w.status
			done.Payload = w.body.Bytes()
			if err := store.commit(bg, key, done); err != nil {
				log.Warn("idempotency outcome not saved", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

// replay answers a request whose key is already claimed.
func replay(c echo.Context, store *outcomeStore, key, fp string, log *zap.Logger) error {
	prev, err := store.lookup(c.Request().Context(), key)
	if err != nil {
		log.Warn("idempotency outcome unreadable", zap.String("key", key), zap.Error(err))
		return detail(c, http.StatusConflict, "request is already in progress")
	}
	switch {
	case prev.Fingerprint != fp:
		return detail(c, http.StatusConflict, HeaderRequestID+" reused with different body")
	case prev.Pending || prev.Status == 0:
		return detail(c, http.StatusConflict, "request is already in progress")
	}
	log.Debug("idempotent replay", zap.String("key", key), zap.Int("status", prev.Status))
	return c.Blob(prev.Status, echo.MIMEApplicationJSON, prev.Payload)
}

func detail(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"detail": msg})
}
