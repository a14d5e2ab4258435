package auth

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-careteam-sync/domain"
	"github.com/goliatone/go-careteam-sync/session"
)

// Machine owns the auth State and applies transition effects to a store.
type Machine struct {
	mu     sync.RWMutex
	state  State
	store  *session.Store
	logger *zap.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMachine rehydrates from store. It never fails: a corrupt or unreadable
// identity is logged, cleared where possible, and the machine starts logged out.
func NewMachine(ctx context.Context, store *session.Store, opts ...Option) *Machine {
	m := &Machine{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.state = m.rehydrate(ctx)

	path, ok, err := store.LoadReturnTo(ctx)
	switch {
	case err != nil:
		m.logger.Warn("ignoring persisted return path", zap.Error(err))
	case ok:
		m.state = RestoreReturnTo(m.state, path)
	}

	if m.state.IsAuthenticated {
		m.logger.Debug("session restored", zap.String("member_id", m.state.Identity.ID))
	}
	return m
}

func (m *Machine) rehydrate(ctx context.Context) State {
	identity, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("discarding persisted identity", zap.Error(err))
		if !errors.IsCategory(err, errors.CategoryBadInput) {
			// storage itself failed; leave whatever is there untouched
			return LoggedOut()
		}
	}

	state, effect := Rehydrate(identity, err)
	if runErr := RunEffect(ctx, m.store, effect); runErr != nil {
		m.logger.Warn("failed to clear persisted identity", zap.Error(runErr))
	}
	return state
}

// RunEffect applies a transition effect to store.
func RunEffect(ctx context.Context, store *session.Store, effect Effect) error {
	switch effect.Kind {
	case EffectPersist:
		if effect.Identity == nil {
			return errors.New("persist effect without identity", errors.CategoryInternal)
		}
		return store.Save(ctx, *effect.Identity)
	case EffectClear:
		return store.Clear(ctx)
	case EffectPersistReturnTo:
		return store.SaveReturnTo(ctx, effect.ReturnTo)
	case EffectClearReturnTo:
		return store.ClearReturnTo(ctx)
	}
	return nil
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// IsAuthenticated reports whether an identity is present.
func (m *Machine) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsAuthenticated
}

// Identity returns the current identity, if any.
func (m *Machine) Identity() (domain.CareTeamMember, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Identity == nil {
		return domain.CareTeamMember{}, false
	}
	return *m.state.Identity, true
}

// Token is the bearer token of the current identity, empty when logged out.
func (m *Machine) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Identity == nil {
		return ""
	}
	return m.state.Identity.Token
}

// Login stores identity as the current session and persists it.
func (m *Machine) Login(ctx context.Context, identity domain.CareTeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, effect := Login(m.state, identity)
	m.state = state
	m.logger.Info("logged in", zap.String("member_id", identity.ID))
	return RunEffect(ctx, m.store, effect)
}

// Logout drops the current session and removes the persisted identity.
func (m *Machine) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, effect := Logout(m.state)
	m.state = state
	m.logger.Info("logged out")
	return RunEffect(ctx, m.store, effect)
}

// SetReturnTo records where to go after login and persists it, so a later
// process can pick it up.
func (m *Machine) SetReturnTo(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, effect := SetReturnTo(m.state, path)
	m.state = state
	return RunEffect(ctx, m.store, effect)
}

// ClearReturnTo forgets the pending redirect.
func (m *Machine) ClearReturnTo(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, effect := ClearReturnTo(m.state)
	m.state = state
	return RunEffect(ctx, m.store, effect)
}

// ConsumeReturnTo returns the pending redirect and clears it in one step.
// The path is returned even when removing the persisted copy fails.
func (m *Machine) ConsumeReturnTo(ctx context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.ReturnTo == nil {
		return "", false, nil
	}
	path := *m.state.ReturnTo
	state, effect := ClearReturnTo(m.state)
	m.state = state
	return path, true, RunEffect(ctx, m.store, effect)
}
