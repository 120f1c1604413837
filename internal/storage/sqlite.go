package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	sqliteTimeLayout = time.RFC3339Nano

	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"

	MemoryPath = ":memory:"
)

var documentColumns = []string{"key", "body", "version", "origin", "updated_at"}

// SQLiteStore keeps documents and accounts in one SQLite file. Writes made
// through this store reach subscribers immediately; writes made by another
// process on the same file are picked up by a version poll.
type SQLiteStore struct {
	db   *sql.DB
	qb   sq.StatementBuilderType
	hub  *hub
	poll time.Duration

	closed   atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewSQLiteStore(db *sql.DB, pollInterval time.Duration) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	s := &SQLiteStore{
		db:     db,
		qb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		hub:    newHub(),
		poll:   pollInterval,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if pollInterval > 0 {
		go s.pollLoop()
	} else {
		close(s.doneCh)
	}
	return s, nil
}

// OpenSQLite opens path with the named driver, applies migrations and
// starts the cross-process poll. MemoryPath gives a private in-memory
// database.
func OpenSQLite(ctx context.Context, driver, path string, pollInterval time.Duration) (*SQLiteStore, error) {
	switch driver {
	case "":
		driver = DriverMattn
	case DriverMattn, DriverModernc:
	default:
		return nil, fmt.Errorf("storage: unknown sqlite driver %q", driver)
	}

	dsn := path
	memory := path == MemoryPath
	if memory {
		dsn = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if !memory {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("busy timeout: %w", err)
	}
	if err := MigrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := NewSQLiteStore(db, pollInterval)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
	s.hub.closeAll()
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Document, error) {
	if s.closed.Load() {
		return Document{}, ErrClosed
	}
	query, args, err := s.qb.Select(documentColumns...).From("documents").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return Document{}, err
	}
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, body []byte, origin string) (Document, error) {
	if s.closed.Load() {
		return Document{}, ErrClosed
	}
	now := time.Now().UTC()
	query, args, err := s.qb.Insert("documents").
		Columns(documentColumns...).
		Values(key, string(body), 1, origin, mustTime(now)).
		Suffix(`ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			version = documents.version + 1,
			origin = excluded.origin,
			updated_at = excluded.updated_at
		RETURNING version`).
		ToSql()
	if err != nil {
		return Document{}, err
	}

	var version int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		return Document{}, fmt.Errorf("set %s: %w", key, err)
	}
	doc := Document{
		Key:       key,
		Body:      append([]byte(nil), body...),
		Version:   version,
		Origin:    origin,
		UpdatedAt: now,
	}
	s.hub.publish(doc)
	return doc, nil
}

func (s *SQLiteStore) Subscribe(key string, onChange func(Document), onError func(error)) func() {
	sub, unsubscribe := s.hub.add(key, onChange, onError)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		doc, err := s.Get(ctx, key)
		switch {
		case errors.Is(err, ErrNotFound):
			sub.offer(Document{Key: key})
		case err != nil:
			sub.offerErr(err)
		default:
			sub.offer(doc)
		}
	}()
	return unsubscribe
}

func (s *SQLiteStore) pollLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

func (s *SQLiteStore) pollOnce() {
	keys := s.hub.keys()
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.poll)
	defer cancel()

	docs, err := s.listDocuments(ctx, keys)
	if err != nil {
		for _, key := range keys {
			s.hub.fail(key, err)
		}
		return
	}
	for _, doc := range docs {
		s.hub.publish(doc)
	}
}

func (s *SQLiteStore) listDocuments(ctx context.Context, keys []string) ([]Document, error) {
	query, args, err := s.qb.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"key": keys}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0, len(keys))
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, in Account) error {
	if s.closed.Load() {
		return ErrClosed
	}
	query, args, err := s.qb.Insert("accounts").
		Columns("key", "email", "display_name", "password_hash", "created_at").
		Values(in.Key, in.Email, in.DisplayName, in.PasswordHash, mustTime(in.CreatedAt)).
		Suffix("ON CONFLICT(key) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *SQLiteStore) GetAccount(ctx context.Context, key string) (Account, error) {
	if s.closed.Load() {
		return Account{}, ErrClosed
	}
	query, args, err := s.qb.Select("key", "email", "display_name", "password_hash", "created_at").
		From("accounts").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return Account{}, err
	}
	out, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return out, nil
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, strings.TrimSpace(v))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var out Document
	var body string
	var updated string
	if err := s.Scan(&out.Key, &body, &out.Version, &out.Origin, &updated); err != nil {
		return Document{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return Document{}, err
	}
	out.Body = []byte(body)
	out.UpdatedAt = updatedAt
	return out, nil
}

func scanAccount(s scanner) (Account, error) {
	var out Account
	var created string
	if err := s.Scan(&out.Key, &out.Email, &out.DisplayName, &out.PasswordHash, &created); err != nil {
		return Account{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return Account{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

var (
	_ DocumentStore     = (*SQLiteStore)(nil)
	_ AccountRepository = (*SQLiteStore)(nil)
)
