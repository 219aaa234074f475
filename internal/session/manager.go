package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"estatehub/internal/utils"

	"golang.org/x/sync/singleflight"
)

// State of the manager.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unauthenticated"
	}
}

const (
	defaultRefreshTimeout = 15 * time.Second
	defaultRevokeTimeout  = 5 * time.Second
)

// Config wires a Manager.
type Config struct {
	Auth Authenticator
	// Store is optional; without it the session lives only in memory.
	Store *Store
	// Transport sends authorized requests. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// OnExpired runs once each time a failed refresh discards the session,
	// typically to send the user back to the login page.
	OnExpired      func()
	RefreshTimeout time.Duration
	Now            func() time.Time
}

// Manager owns the current Session, signs outbound requests and refreshes
// an expired access token at most once per refresh token.
type Manager struct {
	auth           Authenticator
	store          *Store
	transport      http.RoundTripper
	onExpired      func()
	refreshTimeout time.Duration
	now            func() time.Time

	mu         sync.Mutex
	sess       *Session
	refreshing bool

	flight  singleflight.Group
	pending sync.WaitGroup
}

// New builds a Manager and restores a persisted session when the store holds one.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.Auth == nil {
		return nil, errors.New("session: Auth is required")
	}
	m := &Manager{
		auth:           cfg.Auth,
		store:          cfg.Store,
		transport:      cfg.Transport,
		onExpired:      cfg.OnExpired,
		refreshTimeout: cfg.RefreshTimeout,
		now:            cfg.Now,
	}
	if m.transport == nil {
		m.transport = http.DefaultTransport
	}
	if m.refreshTimeout <= 0 {
		m.refreshTimeout = defaultRefreshTimeout
	}
	if m.now == nil {
		m.now = time.Now
	}

	if m.store != nil {
		sess, ok, err := m.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			m.sess = &sess
			utils.LogEvent("", "session", "restore", "restored persisted session")
		}
	}
	return m, nil
}

// State reports where the manager is in its lifecycle.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.sess == nil:
		return StateUnauthenticated
	case m.refreshing:
		return StateRefreshing
	default:
		return StateAuthenticated
	}
}

// Session returns a copy of the current session.
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return Session{}, false
	}
	return *m.sess, true
}

// Login authenticates, fetches the profile and installs the session. On
// failure the manager state is left untouched.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Profile, error) {
	pair, err := m.auth.Login(ctx, creds)
	if err != nil {
		return Profile{}, err
	}
	user, err := m.auth.Me(ctx, pair.AccessToken)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}

	sess := newSession(pair, &user)
	m.mu.Lock()
	m.sess = &sess
	m.mu.Unlock()

	m.persist(ctx, sess)
	utils.LogEvent("", "session", "login", fmt.Sprintf("user_id=%d role=%s", user.ID, user.Role))
	return user, nil
}

// Logout drops the session locally and asks the backend to revoke it in the
// background. Revocation errors are only logged.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	old := m.sess
	m.sess = nil
	m.mu.Unlock()

	var err error
	if m.store != nil {
		if err = m.store.Clear(ctx); err != nil {
			utils.LogError("", "session", "clear", err)
		}
	}
	if old == nil {
		return err
	}

	m.flight.Forget(old.RefreshToken)
	m.pending.Add(1)
	go func(s Session) {
		defer m.pending.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultRevokeTimeout)
		defer cancel()
		if rerr := m.auth.Logout(rctx, s.AccessToken, s.RefreshToken); rerr != nil {
			utils.LogError("", "session", "revoke", rerr)
		}
	}(*old)

	utils.LogEvent("", "session", "logout", "session discarded")
	return err
}

// Close waits for background revocations to finish.
func (m *Manager) Close() error {
	m.pending.Wait()
	return nil
}

// Refresh exchanges the refresh token for a new pair. Concurrent callers share
// one backend call. On failure the session is discarded and every caller gets
// ErrSessionExpired.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	m.mu.Lock()
	cur := m.sess
	m.mu.Unlock()
	if cur == nil {
		return Session{}, ErrNotAuthenticated
	}
	return m.refreshFrom(ctx, *cur)
}

// refreshFrom refreshes the session prev was a snapshot of. When that session
// has already been rotated the current one is returned without a backend call.
func (m *Manager) refreshFrom(ctx context.Context, prev Session) (Session, error) {
	ch := m.flight.DoChan(prev.RefreshToken, func() (any, error) {
		return m.refresh(prev)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Session{}, res.Err
		}
		return res.Val.(Session), nil
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

func (m *Manager) refresh(prev Session) (Session, error) {
	m.mu.Lock()
	switch {
	case m.sess == nil:
		m.mu.Unlock()
		return Session{}, ErrSessionExpired
	case !m.sess.sameTokens(prev):
		// already rotated by an earlier flight
		cur := *m.sess
		m.mu.Unlock()
		return cur, nil
	}
	m.refreshing = true
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
	defer cancel()
	pair, err := m.auth.Refresh(ctx, prev.RefreshToken)

	m.mu.Lock()
	m.refreshing = false
	owned := m.sess != nil && m.sess.sameTokens(prev)
	if err != nil {
		if owned {
			m.sess = nil
		}
		m.mu.Unlock()

		utils.LogError("", "session", "refresh", err)
		if owned {
			if m.store != nil {
				if cerr := m.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
					utils.LogError("", "session", "clear", cerr)
				}
			}
			if m.onExpired != nil {
				m.onExpired()
			}
		}
		return Session{}, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if !owned {
		// logged out while the refresh was in flight
		m.mu.Unlock()
		return Session{}, ErrSessionExpired
	}

	if pair.RefreshToken == "" {
		pair.RefreshToken = prev.RefreshToken
	}
	next := newSession(pair, prev.User)
	m.sess = &next
	m.mu.Unlock()

	m.persist(ctx, next)
	utils.LogEvent("", "session", "refresh", "access token refreshed")
	return next, nil
}

func (m *Manager) persist(ctx context.Context, sess Session) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(context.WithoutCancel(ctx), sess); err != nil {
		utils.LogError("", "session", "persist", err)
	}
}

// current returns the session to sign a request with, refreshing first when
// the access token is already known to be expired.
func (m *Manager) current(ctx context.Context) (Session, error) {
	m.mu.Lock()
	cur := m.sess
	m.mu.Unlock()
	if cur == nil {
		return Session{}, ErrNotAuthenticated
	}
	if cur.Expired(m.now()) {
		return m.refreshFrom(ctx, *cur)
	}
	return *cur, nil
}

// after401 picks the token for the retry of a request rejected while signed
// with stale. If another caller already replaced that token, no refresh runs.
func (m *Manager) after401(ctx context.Context, stale string) (Session, error) {
	m.mu.Lock()
	cur := m.sess
	m.mu.Unlock()
	if cur == nil {
		return Session{}, ErrSessionExpired
	}
	if cur.AccessToken != stale {
		return *cur, nil
	}
	return m.refreshFrom(ctx, *cur)
}

// Do sends req with the bearer token attached. A 401 triggers one refresh and
// one retry; every other response is returned as is.
func (m *Manager) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	sess, err := m.current(ctx)
	if err != nil {
		return nil, err
	}

	first, err := replayable(req)
	if err != nil {
		return nil, err
	}
	resp, err := m.send(first, sess.AccessToken)
	if err != nil {
		return nil, networkError(req.Method+" "+req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	fresh, err := m.after401(ctx, sess.AccessToken)
	if err != nil {
		return nil, err
	}

	retry := first.Clone(ctx)
	if first.GetBody != nil {
		if retry.Body, err = first.GetBody(); err != nil {
			return nil, fmt.Errorf("rewind body: %w", err)
		}
	}
	resp, err = m.send(retry, fresh.AccessToken)
	if err != nil {
		return nil, networkError(req.Method+" "+req.URL.Path, err)
	}
	return resp, nil
}

func (m *Manager) send(req *http.Request, token string) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+token)
	return m.transport.RoundTrip(req)
}

// replayable clones req so the caller's request is never mutated, buffering
// the body when it cannot be re-read.
func replayable(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		out.Body = nil
		out.GetBody = nil
		return out, nil
	}
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind body: %w", err)
		}
		out.Body = body
		return out, nil
	}

	raw, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("buffer body: %w", err)
	}
	out.Body = io.NopCloser(bytes.NewReader(raw))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}
	out.ContentLength = int64(len(raw))
	return out, nil
}

// Transport adapts a Manager to http.RoundTripper.
type Transport struct {
	Manager *Manager
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.Manager.Do(req)
}

// Client returns an http.Client whose requests go through the manager.
func (m *Manager) Client() *http.Client {
	return &http.Client{Transport: &Transport{Manager: m}}
}
