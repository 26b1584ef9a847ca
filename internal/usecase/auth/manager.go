package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"mini-los/internal/adapter/losapi"
	"mini-los/internal/domain/session"
)

// Manager owns the single process-wide session. It hands the token to the
// API client and tears the session down when the server rejects it.
type Manager struct {
	gw    session.AuthGateway
	store session.Store
	log   *zap.Logger
	now   func() time.Time

	mu    sync.RWMutex
	sess  *session.Session
	owner uint64 // user the session-scoped state belongs to; 0 after teardown
	hooks []func()
}

var _ session.Credentials = (*Manager)(nil)

func NewManager(gw session.AuthGateway, store session.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{gw: gw, store: store, log: log, now: time.Now}
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return ""
	}
	return m.sess.Token
}

// OnEnd registers fn to run whenever session-scoped state must be dropped:
// the session is invalidated (logout, 401, expiry) or a different user signs
// in. fn must not call back into the Manager.
func (m *Manager) OnEnd(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

func (m *Manager) runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}

// Invalidate drops the token from memory and storage.
func (m *Manager) Invalidate(ctx context.Context) {
	m.mu.Lock()
	m.sess = nil
	m.owner = 0
	hooks := append([]func(){}, m.hooks...)
	m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("clear session token", zap.Error(err))
	}
	m.runHooks(hooks)
	m.log.Info("session cleared")
}

// Session returns a copy of the current session, or nil.
func (m *Manager) Session() *session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil
	}
	cp := *m.sess
	return &cp
}

func (m *Manager) Login(ctx context.Context, email, password string) (*session.User, error) {
	tok, err := m.gw.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sess = &session.Session{Token: tok}
	m.mu.Unlock()
	if err := m.store.Save(ctx, tok); err != nil {
		m.Invalidate(ctx)
		return nil, fmt.Errorf("save session token: %w", err)
	}

	u, err := m.gw.Me(ctx)
	if err != nil {
		m.Invalidate(ctx)
		return nil, err
	}
	m.setUser(tok, u)
	m.log.Info("logged in", zap.Uint64("user_id", u.ID), zap.Bool("admin", u.IsAdmin))
	return u, nil
}

// Register creates the account and signs straight in.
func (m *Manager) Register(ctx context.Context, r session.Registration) (*session.User, error) {
	if _, err := m.gw.Register(ctx, r); err != nil {
		return nil, err
	}
	return m.Login(ctx, r.Email, r.Password)
}

func (m *Manager) Logout(ctx context.Context) {
	m.Invalidate(ctx)
}

// Current verifies the stored token against the server and returns its user.
// A missing, locally expired or rejected token yields session.ErrNoSession.
func (m *Manager) Current(ctx context.Context) (*session.User, error) {
	tok := m.Token()
	if tok == "" {
		stored, err := m.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load session token: %w", err)
		}
		if stored == "" {
			return nil, session.ErrNoSession
		}
		tok = stored
		m.mu.Lock()
		m.sess = &session.Session{Token: tok}
		m.mu.Unlock()
	}
	if expired(tok, m.now()) {
		m.Invalidate(ctx)
		return nil, session.ErrNoSession
	}

	u, err := m.gw.Me(ctx)
	if err != nil {
		if losapi.IsAuthError(err) || errors.Is(err, session.ErrNoSession) {
			if m.Token() != "" {
				m.Invalidate(ctx)
			}
			return nil, session.ErrNoSession
		}
		return nil, err
	}
	m.setUser(tok, u)
	return u, nil
}

// setUser attaches u to the session issued as tok. State left by another
// user is dropped through the end hooks.
func (m *Manager) setUser(tok string, u *session.User) {
	m.mu.Lock()
	// a concurrent logout wins
	if m.sess == nil || m.sess.Token != tok {
		m.mu.Unlock()
		return
	}
	m.sess.User = u
	prev := m.owner
	m.owner = u.ID
	var hooks []func()
	if prev != 0 && prev != u.ID {
		hooks = append(hooks, m.hooks...)
	}
	m.mu.Unlock()
	if len(hooks) > 0 {
		m.log.Info("session changed hands", zap.Uint64("from", prev), zap.Uint64("to", u.ID))
		m.runHooks(hooks)
	}
}

// expired decodes the exp claim without verifying the signature. Tokens that
// are not JWTs are left to the server to judge.
func expired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
