// Package losapi is the typed HTTP client for the Mini-LOS REST API.
package losapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mini-los/internal/domain/session"
	"mini-los/internal/infrastructure/metrics"
	"mini-los/pkg/id"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderRequestAt = "X-Request-At"

	apiPrefix = "/api/v1"
)

// operation names, used as metric labels and fallback message keys
const (
	opRegister       = "register"
	opLogin          = "login"
	opMe             = "me"
	opCreateLoan     = "create_loan"
	opGetLoan        = "get_loan"
	opUpdateLoan     = "update_loan"
	opMyLoans        = "my_loans"
	opSubmitKYC      = "submit_kyc"
	opRunCreditCheck = "run_credit_check"
	opRetryKYC       = "retry_kyc"
	opAllLoans       = "all_loans"
	opStats          = "stats"
	opHistory        = "history"
)

type Client struct {
	baseURL string
	hc      *http.Client
	creds   session.Credentials
	log     *zap.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

func WithMetrics(m *metrics.Recorder) Option { return func(c *Client) { c.metrics = m } }

func WithCredentials(cr session.Credentials) Option { return func(c *Client) { c.creds = cr } }

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// UseCredentials attaches the session after construction; the auth manager
// and the client reference each other.
func (c *Client) UseCredentials(cr session.Credentials) { c.creds = cr }

type call struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	form    url.Values
	auth    bool
	advance bool // state-advancing: carries request id headers
}

func (c *Client) token() string {
	if c.creds == nil {
		return ""
	}
	return c.creds.Token()
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	var tok string
	if cl.auth {
		if tok = c.token(); tok == "" {
			return session.ErrNoSession
		}
	}

	u := c.baseURL + apiPrefix + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case cl.form != nil:
		body = strings.NewReader(cl.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case cl.body != nil:
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", cl.op, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	var reqID string
	if cl.advance {
		reqID = id.NewRequestID()
		req.Header.Set(HeaderRequestID, reqID)
		req.Header.Set(HeaderRequestAt, c.now().UTC().Format(time.RFC3339))
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.metrics.Observe(cl.op, 0, time.Since(start))
		c.log.Warn("loan service unreachable", zap.String("op", cl.op), zap.Error(err))
		return &RemoteError{Op: cl.op, Message: fallbackFor(cl.op), Err: err}
	}
	defer resp.Body.Close()
	c.metrics.Observe(cl.op, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Op: cl.op, StatusCode: resp.StatusCode, Message: fallbackFor(cl.op), Err: err}
	}
	c.log.Debug("loan service call",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", reqID),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized && cl.auth {
		msg := detailMessage(raw)
		if msg == "" {
			msg = "session expired"
		}
		if c.creds != nil {
			c.creds.Invalidate(ctx)
		}
		return &AuthError{Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := detailMessage(raw)
		if msg == "" {
			msg = fallbackFor(cl.op)
		}
		return &RemoteError{Op: cl.op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{Op: cl.op, StatusCode: resp.StatusCode, Message: "unexpected response from loan service", Err: err}
	}
	return nil
}
