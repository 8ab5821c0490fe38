// Package session owns the signed-in identity for one client of the
// backend: the live session, the resolved profile, and the role flags the
// rest of the application consults. It is constructed once at the
// composition root and handed to consumers explicitly; there is no package
// level singleton.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/expense-portal/internal"
	"github.com/frahmantamala/expense-portal/internal/auth"
	"github.com/frahmantamala/expense-portal/internal/profile"
)

// State is the manager's lifecycle. Auth events are only acted on in
// StateReady: anything pushed while the startup bootstrap is still running
// would race the bootstrap's own profile fetch, so it is dropped.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateReady        State = "ready"
)

// AuthAPI is the slice of the auth capability the manager depends on.
type AuthAPI interface {
	SignIn(ctx context.Context, dto auth.LoginDTO) (*auth.Session, error)
	SignUp(ctx context.Context, dto auth.SignUpDTO) (*auth.Session, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*auth.Session, error)
	GetAccount(ctx context.Context, id string) (*auth.Account, error)
	Subscribe(handler auth.EventHandler) (unsubscribe func())
}

type Manager struct {
	auth     AuthAPI
	profiles profile.Repository
	logger   *slog.Logger

	mu          sync.RWMutex
	state       State
	session     *auth.Session
	profile     *profile.Profile
	roles       []string
	isAdmin     bool
	loading     bool
	unsubscribe func()
}

func NewManager(authAPI AuthAPI, profiles profile.Repository, logger *slog.Logger) *Manager {
	return &Manager{
		auth:     authAPI,
		profiles: profiles,
		logger:   logger,
		state:    StateIdle,
		roles:    profile.DefaultRoles(),
	}
}

// Start bootstraps the manager: load the current session if one exists,
// resolve its profile, then subscribe to auth state changes. Subscribing
// only after the bootstrap completes means the sign-in event that produced
// the bootstrap session is never replayed against us, so the profile is
// fetched exactly once per session.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.state = StateInitializing
	m.mu.Unlock()

	sess, err := m.auth.CurrentSession(ctx)
	if err == nil && sess != nil {
		m.mu.Lock()
		m.session = sess
		m.mu.Unlock()

		m.resolveProfile(ctx, sess.UserID)
	}

	m.mu.Lock()
	m.state = StateReady
	m.mu.Unlock()

	m.unsubscribe = m.auth.Subscribe(m.handleAuthEvent)

	m.logger.Info("session manager ready", "signed_in", sess != nil)
	return nil
}

// Close detaches the manager from the auth event stream.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Manager) handleAuthEvent(ctx context.Context, event auth.Event) {
	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		m.logger.Debug("auth event dropped during bootstrap", "event_type", event.Type)
		return
	}

	if event.Type == auth.EventSignedOut || event.Session == nil {
		m.session = nil
		m.profile = nil
		m.roles = profile.DefaultRoles()
		m.isAdmin = false
		m.loading = false
		m.mu.Unlock()
		return
	}

	// A re-announced sign-in for the session we already resolved carries no
	// new identity; refetching the profile would just duplicate work.
	sameResolved := m.session != nil && m.session.ID == event.Session.ID && m.profile != nil
	m.session = event.Session
	m.mu.Unlock()

	if event.Type == auth.EventSignedIn && sameResolved {
		return
	}

	m.resolveProfile(ctx, event.Session.UserID)
}

// resolveProfile loads the profile for userID and derives the role state.
// A missing row is created on the fly from the auth account metadata; any
// failure along the way degrades to "no profile, default role" rather than
// surfacing an error. The loading flag is cleared on every exit path.
func (m *Manager) resolveProfile(ctx context.Context, userID string) {
	m.setLoading(true)
	defer m.setLoading(false)

	p, err := m.profiles.GetByID(ctx, userID)
	if err != nil {
		if internal.IsRowNotFound(err) {
			p = m.createMissingProfile(ctx, userID)
		} else {
			m.logger.Error("profile fetch failed", "user_id", userID, "error", err)
			p = nil
		}
	}

	m.adoptProfile(p)
}

// createMissingProfile inserts a profile row for a first sign-in where the
// registration trigger has not run, then re-reads it. Any failure returns
// nil and the caller falls back to the default role.
func (m *Manager) createMissingProfile(ctx context.Context, userID string) *profile.Profile {
	account, err := m.auth.GetAccount(ctx, userID)
	if err != nil {
		m.logger.Error("account lookup for profile creation failed", "user_id", userID, "error", err)
		return nil
	}

	now := time.Now()
	created := &profile.Profile{
		ID:        userID,
		Name:      account.Name(),
		Email:     account.Email,
		Roles:     profile.DefaultRoles(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.profiles.Create(ctx, created); err != nil {
		// a concurrent sign-in may have won the insert; the re-read below
		// settles it either way
		m.logger.Warn("profile auto-creation failed", "user_id", userID, "error", err)
	}

	p, err := m.profiles.GetByID(ctx, userID)
	if err != nil {
		m.logger.Error("profile re-read after creation failed", "user_id", userID, "error", err)
		return nil
	}

	m.logger.Info("profile auto-created", "user_id", userID)
	return p
}

func (m *Manager) adoptProfile(p *profile.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profile = p
	if p == nil {
		m.roles = profile.DefaultRoles()
		m.isAdmin = false
		return
	}
	m.roles = p.Roles
	m.isAdmin = p.IsAdmin()
}

// SignIn delegates to the auth service and returns its raw result. Local
// state is not touched here: the signed-in event carries the update.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	return m.auth.SignIn(ctx, auth.LoginDTO{Email: email, Password: password})
}

// SignUp registers the credential, then best-effort reconciles the profile
// row with the requested name and role. Reconciliation failures are logged
// only; the sign-up itself still reports success.
func (m *Manager) SignUp(ctx context.Context, email, password, name, role string) (*auth.Session, error) {
	sess, err := m.auth.SignUp(ctx, auth.SignUpDTO{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     role,
	})
	if err != nil {
		return nil, err
	}

	m.reconcileSignUpProfile(ctx, sess.UserID, email, name, role)
	return sess, nil
}

func (m *Manager) reconcileSignUpProfile(ctx context.Context, userID, email, name, role string) {
	if role == "" {
		role = profile.RoleUser
	}

	existing, err := m.profiles.GetByID(ctx, userID)
	switch {
	case err == nil && existing != nil:
		if err := m.profiles.UpdateRoles(ctx, userID, []string{role}); err != nil {
			m.logger.Error("sign up: role reconciliation failed", "user_id", userID, "error", err)
		}
	case internal.IsRowNotFound(err):
		now := time.Now()
		p := &profile.Profile{
			ID:        userID,
			Name:      name,
			Email:     email,
			Roles:     []string{role},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if p.Name == "" {
			p.Name = email
		}
		if err := m.profiles.Create(ctx, p); err != nil {
			m.logger.Error("sign up: profile creation failed", "user_id", userID, "error", err)
		}
	default:
		m.logger.Error("sign up: profile lookup failed", "user_id", userID, "error", err)
	}
}

// SignOut delegates to the auth service and then unconditionally clears all
// local identity state, whatever the service said.
func (m *Manager) SignOut(ctx context.Context) error {
	err := m.auth.SignOut(ctx)

	m.mu.Lock()
	m.session = nil
	m.profile = nil
	m.roles = profile.DefaultRoles()
	m.isAdmin = false
	m.loading = false
	m.mu.Unlock()

	return err
}

// Resume is the recovery valve for a profile fetch that stalled while the
// client was away: it forces loading off without touching session state.
func (m *Manager) Resume() {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
}

// HasRole reports whether the signed-in user holds role. Admin passes every
// check.
func (m *Manager) HasRole(role string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.isAdmin {
		return true
	}
	for _, r := range m.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (m *Manager) Session() *auth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

func (m *Manager) Profile() *profile.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

func (m *Manager) Roles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roles := make([]string, len(m.roles))
	copy(roles, m.roles)
	return roles
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isAdmin
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}
