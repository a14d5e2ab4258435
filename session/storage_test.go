package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-careteam-sync/domain"
)

func newSQLStorage(t *testing.T) Storage {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	storage, err := NewSQLStorage(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func newRedisStorage(t *testing.T) Storage {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	storage := NewRedisStorage(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "careteam:")
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func storages() map[string]func(t *testing.T) Storage {
	return map[string]func(t *testing.T) Storage{
		"memory": func(*testing.T) Storage { return NewMemoryStorage() },
		"sqlite": newSQLStorage,
		"redis":  newRedisStorage,
	}
}

func TestStorage_Contract(t *testing.T) {
	for name, factory := range storages() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			storage := factory(t)

			_, ok, err := storage.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, storage.Set(ctx, "k", "v1"))
			require.NoError(t, storage.Set(ctx, "k", "v2"))

			v, ok, err := storage.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v2", v)

			require.NoError(t, storage.Remove(ctx, "k"))
			_, ok, err = storage.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, storage.Remove(ctx, "k"), "removing a missing key is a no-op")
		})
	}
}

func TestRedisStorage_UsesPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	storage := NewRedisStorage(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "careteam:")
	require.NoError(t, storage.Set(context.Background(), IdentityKey, "{}"))

	got, err := mr.Get("careteam:" + IdentityKey)
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
}

func TestStore_SaveWritesExactJSON(t *testing.T) {
	for name, factory := range storages() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			storage := factory(t)
			store := NewStore(storage)

			member := domain.CareTeamMember{
				ID:        "m1",
				FullName:  "Dana Reyes",
				Email:     "dana@example.com",
				Token:     "tok",
				CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			}
			require.NoError(t, store.Save(ctx, member))

			want, err := json.Marshal(member)
			require.NoError(t, err)
			raw, ok, err := storage.Get(ctx, IdentityKey)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, string(want), raw)

			loaded, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, member, *loaded)

			require.NoError(t, store.Clear(ctx))
			_, ok, err = storage.Get(ctx, IdentityKey)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_ReturnToIsIndependentOfIdentity(t *testing.T) {
	for name, factory := range storages() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			storage := factory(t)
			store := NewStore(storage)

			_, ok, err := store.LoadReturnTo(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Save(ctx, domain.CareTeamMember{ID: "m1"}))
			require.NoError(t, store.SaveReturnTo(ctx, `careteam send 1 "call me"`))

			path, ok, err := store.LoadReturnTo(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `careteam send 1 "call me"`, path)

			require.NoError(t, store.Clear(ctx))
			_, ok, err = store.LoadReturnTo(ctx)
			require.NoError(t, err)
			assert.True(t, ok, "clearing the identity keeps the destination")

			require.NoError(t, store.ClearReturnTo(ctx))
			_, ok, err = storage.Get(ctx, ReturnToKey)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestDecodeIdentity(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "object", raw: `{"id":"m1","token":"t"}`},
		{name: "not json", raw: "not-json", wantErr: true},
		{name: "null", raw: "null", wantErr: true},
		{name: "array", raw: "[1,2]", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member, err := DecodeIdentity(tt.raw)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "m1", member.ID)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryBadInput))
		})
	}
}
