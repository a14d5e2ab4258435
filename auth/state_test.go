package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-careteam-sync/domain"
)

func TestTransitions(t *testing.T) {
	member := domain.CareTeamMember{ID: "m1", Token: "tok"}

	s, eff := Login(LoggedOut(), member)
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, member, *s.Identity)
	assert.Equal(t, EffectPersist, eff.Kind)
	assert.Equal(t, member, *eff.Identity)

	s, eff = SetReturnTo(s, "/messages/u1")
	assert.Equal(t, EffectPersistReturnTo, eff.Kind)
	assert.Equal(t, "/messages/u1", eff.ReturnTo)
	assert.Equal(t, "/messages/u1", *s.ReturnTo)

	s, eff = Logout(s)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.Identity)
	assert.Equal(t, EffectClear, eff.Kind)
	assert.NotNil(t, s.ReturnTo, "returnTo is independent of the auth axis")

	s, eff = ClearReturnTo(s)
	assert.Nil(t, s.ReturnTo)
	assert.Equal(t, EffectClearReturnTo, eff.Kind)
	s, eff = ClearReturnTo(s)
	assert.Nil(t, s.ReturnTo)
	assert.Equal(t, EffectNone, eff.Kind)
}

func TestTransitions_DoNotAliasInput(t *testing.T) {
	member := domain.CareTeamMember{ID: "m1"}
	s, _ := Login(LoggedOut(), member)
	member.ID = "changed"
	assert.Equal(t, "m1", s.Identity.ID)
}

func TestRehydrate(t *testing.T) {
	member := &domain.CareTeamMember{ID: "m1"}

	s, eff := Rehydrate(member, nil)
	assert.Equal(t, State{IsAuthenticated: true, Identity: &domain.CareTeamMember{ID: "m1"}}, s)
	assert.Equal(t, EffectNone, eff.Kind)

	s, eff = Rehydrate(nil, nil)
	assert.Equal(t, LoggedOut(), s)
	assert.Equal(t, EffectNone, eff.Kind)

	s, eff = Rehydrate(nil, assert.AnError)
	assert.Equal(t, LoggedOut(), s)
	assert.Equal(t, EffectClear, eff.Kind)
}

func TestRestoreReturnTo(t *testing.T) {
	s := RestoreReturnTo(LoggedOut(), "careteam messages 1")
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, "careteam messages 1", *s.ReturnTo)
}
