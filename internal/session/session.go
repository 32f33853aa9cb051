package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultRememberFor = 30 * 24 * time.Hour
	DefaultLeeway      = 10 * time.Second
	DefaultTimeout     = 10 * time.Second
)

type State int

const (
	StateLoggedOut State = iota
	StateAuthenticated
	StateExpiring
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateExpiring:
		return "expiring"
	case StateRefreshing:
		return "refreshing"
	default:
		return "logged out"
	}
}

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string
	// HTTPClient performs login and refresh calls. It must not use the
	// manager's own Transport.
	HTTPClient *http.Client
	Timeout    time.Duration
	// RememberFor is how long a remembered session survives.
	RememberFor time.Duration
	// Leeway is how long before exp a token counts as expired.
	Leeway time.Duration
	// OnLogout runs after every logout, forced or explicit.
	OnLogout func()
	Now      func() time.Time
}

// Manager owns one client session: the token pair, its durable copy and the
// refresh cycle. It is safe for concurrent use.
type Manager struct {
	cfg    Config
	store  Store
	client *http.Client
	now    func() time.Time

	group singleflight.Group

	mu         sync.Mutex
	tokens     Tokens
	user       *User
	decoded    string
	refreshing bool
	// gen changes on every login and logout. A refresh only lands if it is
	// unchanged since the refresh started.
	gen uint64
}

func New(cfg Config, store Store) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.RememberFor <= 0 {
		cfg.RememberFor = DefaultRememberFor
	}

	if cfg.Leeway <= 0 {
		cfg.Leeway = DefaultLeeway
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	m := &Manager{
		cfg:    cfg,
		store:  store,
		client: client,
		now:    cfg.Now,
	}

	m.mu.Lock()
	m.syncLocked()
	m.mu.Unlock()

	return m
}

// Close ends the manager's lifetime. Session-scoped tokens are removed from
// the store; remembered ones are kept for the next start.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncLocked()

	if m.tokens.empty() || m.tokens.Remember {
		return nil
	}

	m.setLocked(Tokens{})

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// Login exchanges credentials for a token pair. Failures are logged and
// reported as false.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) bool {
	resp, err := m.post(ctx, "/login_check", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to log in", "error", fmt.Errorf("%w: %w", ErrLoginFailed, err))
		return false
	}

	t := Tokens{
		Access:   resp.Token,
		Refresh:  resp.RefreshToken,
		Remember: remember,
	}
	if remember {
		t.ExpiresAt = m.now().Add(m.cfg.RememberFor)
	}

	m.mu.Lock()
	m.gen++
	m.persistLocked(t)
	m.mu.Unlock()

	return true
}

const refreshKey = "refresh"

// Refresh trades the refresh token for a new access token. Concurrent calls
// share one request. Any failure logs the session out.
func (m *Manager) Refresh(ctx context.Context) bool {
	for {
		v, err, _ := m.group.Do(refreshKey, func() (any, error) {
			return true, m.refresh(ctx)
		})
		if err != nil {
			return false
		}

		// A request-path flight that found the token fresh did not call the
		// server, so start another one.
		if refreshed, _ := v.(bool); refreshed {
			return true
		}
	}
}

// Restore refreshes when only a refresh token survived, e.g. after the access
// token was dropped from the store.
func (m *Manager) Restore(ctx context.Context) bool {
	m.mu.Lock()
	m.syncLocked()
	t := m.tokens
	m.mu.Unlock()

	if t.Access != "" {
		return true
	}

	if t.Refresh == "" {
		return false
	}

	return m.Refresh(ctx)
}

// Logout clears the session everywhere and runs OnLogout. It always succeeds.
func (m *Manager) Logout() {
	m.mu.Lock()
	hook := m.logoutLocked()
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// logoutLocked clears the session and returns the hook to run once the lock
// is released.
func (m *Manager) logoutLocked() func() {
	if err := m.store.Clear(); err != nil {
		slog.Error("failed to clear session store", "error", err)
	}

	m.setLocked(Tokens{})
	m.gen++

	return m.cfg.OnLogout
}

// logoutUnchanged logs out only if no login, logout or other process replaced
// the session since gen and refresh were read.
func (m *Manager) logoutUnchanged(gen uint64, refresh string) bool {
	m.mu.Lock()
	m.syncLocked()

	if m.gen != gen || m.tokens.Refresh != refresh {
		m.mu.Unlock()
		return false
	}

	hook := m.logoutLocked()
	m.mu.Unlock()

	if hook != nil {
		hook()
	}

	return true
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncLocked()

	return m.tokens.Access != ""
}

// IsTokenExpired reports whether the access token is within Leeway of its
// exp. No decodable token counts as expired.
func (m *Manager) IsTokenExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncLocked()

	return m.expiredLocked()
}

func (m *Manager) CurrentUser() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncLocked()

	if u := m.userLocked(); u != nil {
		return *u, true
	}

	return User{}, false
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncLocked()

	switch {
	case m.refreshing:
		return StateRefreshing
	case m.tokens.Access == "":
		return StateLoggedOut
	case m.expiredLocked():
		return StateExpiring
	default:
		return StateAuthenticated
	}
}

func (m *Manager) accessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncLocked()

	return m.tokens.Access
}

// refreshIfExpiring is the request path's refresh. It joins any refresh in
// flight and re-checks expiry first, so callers that lost the race to a
// finished refresh do not start another one. A cancelled caller stops waiting
// but leaves the shared refresh running.
func (m *Manager) refreshIfExpiring(ctx context.Context) error {
	ch := m.group.DoChan(refreshKey, func() (any, error) {
		if !m.IsTokenExpired() {
			return false, nil
		}

		return true, m.refresh(ctx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	errNoRefreshToken = errors.New("no refresh token")
	errSessionChanged = errors.New("session changed during refresh")
)

// refresh is shared by every caller in the flight, so it runs detached from
// the caller that started it and is bounded by Timeout alone.
func (m *Manager) refresh(ctx context.Context) error {
	m.mu.Lock()
	m.syncLocked()
	t := m.tokens
	gen := m.gen

	if t.Refresh == "" {
		m.mu.Unlock()
		return errNoRefreshToken
	}

	m.refreshing = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.refreshing = false
		m.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.Timeout)
	defer cancel()

	resp, err := m.post(ctx, "/token/refresh", map[string]string{"refresh_token": t.Refresh})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)

		if m.logoutUnchanged(gen, t.Refresh) {
			slog.WarnContext(ctx, "failed to refresh session, logged out", "error", err)
		}

		return err
	}

	m.mu.Lock()
	m.syncLocked()

	if m.gen != gen || m.tokens.Refresh != t.Refresh {
		m.mu.Unlock()
		slog.DebugContext(ctx, "session changed during refresh, dropping response")

		return errSessionChanged
	}

	t.Access = resp.Token
	if resp.RefreshToken != "" {
		t.Refresh = resp.RefreshToken
	}

	m.persistLocked(t)
	m.mu.Unlock()

	slog.DebugContext(ctx, "session refreshed")

	return nil
}

// syncLocked reloads tokens from the store so changes made by other
// processes are seen. A store that cannot be read leaves memory as is.
func (m *Manager) syncLocked() {
	t, err := m.store.Load()
	if err != nil {
		slog.Warn("failed to load session", "error", err)
		return
	}

	if t.expired(m.now()) {
		if err := m.store.Clear(); err != nil {
			slog.Warn("failed to clear expired session", "error", err)
		}

		t = Tokens{}
	}

	m.setLocked(t)
}

func (m *Manager) persistLocked(t Tokens) {
	if err := m.store.Save(t); err != nil {
		slog.Error("failed to save session", "error", err)
	}

	m.setLocked(t)
}

func (m *Manager) setLocked(t Tokens) {
	m.tokens = t

	if t.Access != m.decoded {
		m.user = nil
		m.decoded = ""
	}
}

func (m *Manager) userLocked() *User {
	if m.tokens.Access == "" {
		return nil
	}

	if m.decoded == m.tokens.Access {
		return m.user
	}

	m.decoded = m.tokens.Access
	m.user = nil

	u, err := DecodeUser(m.tokens.Access)
	if err != nil {
		slog.Debug("access token carries no user", "error", err)
		return nil
	}

	m.user = &u

	return m.user
}

func (m *Manager) expiredLocked() bool {
	u := m.userLocked()
	if u == nil {
		return true
	}

	return !m.now().Before(u.Exp.Add(-m.cfg.Leeway))
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

func (m *Manager) post(ctx context.Context, path string, body any) (tokenResponse, error) {
	var out tokenResponse

	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("encoding request: %w", err)
	}

	url := strings.TrimRight(m.cfg.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return out, fmt.Errorf("calling %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decoding %s response: %w", path, err)
	}

	if out.Token == "" {
		return out, fmt.Errorf("%s response carries no token", path)
	}

	return out, nil
}
