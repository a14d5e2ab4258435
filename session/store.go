package session

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-careteam-sync/domain"
)

// IdentityKey is the storage key holding the JSON-encoded identity.
const IdentityKey = "careteamMember"

// ReturnToKey holds the pending post-login destination as plain text.
const ReturnToKey = "careteamReturnTo"

// Store reads and writes the persisted identity and post-login destination.
type Store struct {
	storage Storage
}

// NewStore binds storage to IdentityKey.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Save overwrites the persisted identity.
func (s *Store) Save(ctx context.Context, member domain.CareTeamMember) error {
	raw, err := json.Marshal(member)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "encode identity")
	}
	return s.storage.Set(ctx, IdentityKey, string(raw))
}

// Load returns the persisted identity, nil when none is stored. A value that
// does not decode to an identity object is a BadInput error with code
// CORRUPT_IDENTITY.
func (s *Store) Load(ctx context.Context) (*domain.CareTeamMember, error) {
	raw, ok, err := s.storage.Get(ctx, IdentityKey)
	if err != nil || !ok {
		return nil, err
	}
	return DecodeIdentity(raw)
}

// Clear removes the persisted identity entirely.
func (s *Store) Clear(ctx context.Context) error {
	return s.storage.Remove(ctx, IdentityKey)
}

// SaveReturnTo overwrites the pending post-login destination.
func (s *Store) SaveReturnTo(ctx context.Context, path string) error {
	return s.storage.Set(ctx, ReturnToKey, path)
}

// LoadReturnTo returns the pending post-login destination, if any.
func (s *Store) LoadReturnTo(ctx context.Context) (string, bool, error) {
	return s.storage.Get(ctx, ReturnToKey)
}

// ClearReturnTo removes the pending post-login destination.
func (s *Store) ClearReturnTo(ctx context.Context) error {
	return s.storage.Remove(ctx, ReturnToKey)
}

// DecodeIdentity parses a persisted identity.
func DecodeIdentity(raw string) (*domain.CareTeamMember, error) {
	var member *domain.CareTeamMember
	if err := json.Unmarshal([]byte(raw), &member); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "persisted identity is not valid JSON").
			WithTextCode("CORRUPT_IDENTITY")
	}
	if member == nil {
		return nil, errors.New("persisted identity is null", errors.CategoryBadInput).
			WithTextCode("CORRUPT_IDENTITY")
	}
	return member, nil
}
