package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source used for expiry and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(dbPath string, opts ...Option) (*Store, error) {
	dsn := dbPath
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	db, err := sql.Open("sqlite", dsn+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		board_name TEXT NOT NULL DEFAULT '',
		grp TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		semester TEXT NOT NULL DEFAULT '',
		bcs_number INTEGER NOT NULL DEFAULT 0,
		year INTEGER NOT NULL DEFAULT 0,
		subject_name TEXT NOT NULL DEFAULT '',
		subject_code TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		UNIQUE (device_id, document_id)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		account_name TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		is_verified INTEGER NOT NULL DEFAULT 0,
		role TEXT NOT NULL DEFAULT 'user',
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS accounts_email ON accounts(email);
	CREATE INDEX IF NOT EXISTS accounts_phone ON accounts(phone);

	CREATE TABLE IF NOT EXISTS otps (
		account_id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT 'verify',
		expires_at DATETIME NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		resends INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS unlock_requests (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		account_id TEXT NOT NULL,
		exam_type TEXT NOT NULL,
		board_name TEXT NOT NULL DEFAULT '',
		group_or_program TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		sender_number TEXT NOT NULL DEFAULT '',
		payment_status TEXT NOT NULL DEFAULT 'Pending',
		unlock_status INTEGER NOT NULL DEFAULT 0,
		submitted_at DATETIME NOT NULL,
		unlocked_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS unlock_requests_account ON unlock_requests(account_id);

	CREATE TABLE IF NOT EXISTS device_sessions (
		device_id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		is_paid INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.migrateCatalog()
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}
