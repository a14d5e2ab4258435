// Package auth holds the logged-in state of the dashboard.
//
// Transitions are pure functions returning the next State and an Effect
// describing the persistence work to do. Machine applies effects to a
// session.Store and guards the state for concurrent readers.
package auth

import (
	"github.com/goliatone/go-careteam-sync/domain"
)

// State is the auth state. IsAuthenticated is true exactly when Identity is set.
type State struct {
	IsAuthenticated bool
	Identity        *domain.CareTeamMember
	ReturnTo        *string
}

// EffectKind names the persistence work a transition requires.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectPersist
	EffectClear
	EffectPersistReturnTo
	EffectClearReturnTo
)

func (k EffectKind) String() string {
	switch k {
	case EffectPersist:
		return "persist"
	case EffectClear:
		return "clear"
	case EffectPersistReturnTo:
		return "persist-return-to"
	case EffectClearReturnTo:
		return "clear-return-to"
	default:
		return "none"
	}
}

// Effect is returned alongside a new State.
type Effect struct {
	Kind     EffectKind
	Identity *domain.CareTeamMember
	ReturnTo string
}

// LoggedOut is the initial state.
func LoggedOut() State {
	return State{}
}

// Login moves to the logged-in state and asks for the identity to be persisted.
func Login(s State, identity domain.CareTeamMember) (State, Effect) {
	id := identity
	s.IsAuthenticated = true
	s.Identity = &id
	return s, Effect{Kind: EffectPersist, Identity: &id}
}

// Logout drops the identity and asks for the persisted one to be removed.
func Logout(s State) (State, Effect) {
	s.IsAuthenticated = false
	s.Identity = nil
	return s, Effect{Kind: EffectClear}
}

// SetReturnTo records a pending post-login redirect, regardless of auth
// status, and asks for it to be persisted.
func SetReturnTo(s State, path string) (State, Effect) {
	p := path
	s.ReturnTo = &p
	return s, Effect{Kind: EffectPersistReturnTo, ReturnTo: path}
}

// ClearReturnTo resets the pending redirect. Clearing an empty one is a no-op.
func ClearReturnTo(s State) (State, Effect) {
	if s.ReturnTo == nil {
		return s, Effect{}
	}
	s.ReturnTo = nil
	return s, Effect{Kind: EffectClearReturnTo}
}

// Rehydrate computes the initial state from a persisted identity. A load
// error means the stored value is unusable: start logged out and clear it.
func Rehydrate(identity *domain.CareTeamMember, loadErr error) (State, Effect) {
	if loadErr != nil {
		return LoggedOut(), Effect{Kind: EffectClear}
	}
	if identity == nil {
		return LoggedOut(), Effect{}
	}
	id := *identity
	return State{IsAuthenticated: true, Identity: &id}, Effect{}
}

// RestoreReturnTo puts a persisted redirect back into s without any effect.
func RestoreReturnTo(s State, path string) State {
	p := path
	s.ReturnTo = &p
	return s
}

// clone returns a State that shares no pointers with s.
func (s State) clone() State {
	out := State{IsAuthenticated: s.IsAuthenticated}
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	if s.ReturnTo != nil {
		p := *s.ReturnTo
		out.ReturnTo = &p
	}
	return out
}
