package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"ecobeehub/internal/auth"
	"ecobeehub/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// tokenDataKey is the custom data key holding the persisted token state
const tokenDataKey = "tokenData"

// SQLiteStorage implements storage.Storage using SQLite
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.Storage = (*SQLiteStorage)(nil)

// New creates a new SQLite storage instance
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStorage{
		db:  db,
		now: time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	params := []string{"_busy_timeout=5000", "_journal_mode=WAL", "_loc=UTC"}
	return dbPath + sep + strings.Join(params, "&")
}

// migrate applies the embedded schema migrations
func (s *SQLiteStorage) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	// m.Close would close the shared *sql.DB
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// LoadTokens retrieves the stored token set
// Implements auth.TokenStore interface
func (s *SQLiteStorage) LoadTokens(ctx context.Context) (*auth.TokenData, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM custom_data WHERE key = ?
	`, tokenDataKey).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, nil // No tokens stored yet
	}
	if err != nil {
		return nil, err
	}

	return auth.UnmarshalState([]byte(value))
}

// SaveTokens replaces the stored token set
// Implements auth.TokenStore interface
func (s *SQLiteStorage) SaveTokens(ctx context.Context, tokens *auth.TokenData) error {
	if tokens == nil {
		return s.ClearTokens(ctx)
	}

	data, err := auth.MarshalState(tokens)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO custom_data (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, tokenDataKey, string(data), s.now().UTC())

	return err
}

// ClearTokens deletes the stored token set
// Implements auth.TokenStore interface
func (s *SQLiteStorage) ClearTokens(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM custom_data WHERE key = ?", tokenDataKey)
	return err
}

// AddNotice stores a notice, replacing any notice with the same key
func (s *SQLiteStorage) AddNotice(ctx context.Context, key, message string) error {
	if key == "" {
		return fmt.Errorf("notice key is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notices (key, message, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET message = excluded.message, created_at = excluded.created_at
	`, key, message, s.now().UTC())

	return err
}

// RemoveNotices deletes every notice
func (s *SQLiteStorage) RemoveNotices(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notices")
	return err
}

// ListNotices retrieves all notices, oldest first
func (s *SQLiteStorage) ListNotices(ctx context.Context) ([]*storage.Notice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, message, created_at FROM notices ORDER BY created_at, key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notices := []*storage.Notice{}
	for rows.Next() {
		var notice storage.Notice
		if err := rows.Scan(&notice.Key, &notice.Message, &notice.CreatedAt); err != nil {
			return nil, err
		}
		notices = append(notices, &notice)
	}

	return notices, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
