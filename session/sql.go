package session

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type record struct {
	bun.BaseModel `bun:"table:session_store"`

	Key       string    `bun:"session_key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SQLStorage keeps values in a session_store table.
type SQLStorage struct {
	db  *bun.DB
	now func() time.Time
}

// OpenSQLite opens a bun database on a SQLite file. ":memory:" works for
// tests; the pool is pinned to one connection so the database survives.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewSQLStorage creates the session table if needed.
func NewSQLStorage(ctx context.Context, db *bun.DB) (*SQLStorage, error) {
	_, err := db.NewCreateTable().
		Model((*record)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, storageError(err, "migrate", "")
	}
	return &SQLStorage{db: db, now: time.Now}, nil
}

func (s *SQLStorage) Get(ctx context.Context, key string) (string, bool, error) {
	rec := new(record)
	err := s.db.NewSelect().
		Model(rec).
		Where("session_key = ?", key).
		Limit(1).
		Scan(ctx)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageError(err, "get", key)
	}
	return rec.Value, true, nil
}

func (s *SQLStorage) Set(ctx context.Context, key, value string) error {
	rec := &record{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (session_key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return storageError(err, "set", key)
	}
	return nil
}

func (s *SQLStorage) Remove(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*record)(nil)).
		Where("session_key = ?", key).
		Exec(ctx)
	if err != nil {
		return storageError(err, "remove", key)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
