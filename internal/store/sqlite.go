package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_conversations (
	visitor_id TEXT PRIMARY KEY,
	messages   TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore persists records in a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{db: db, logger: logger.Named("sqlite_store")}, nil
}

func (s *SQLiteStore) Persist(ctx context.Context, visitorID string, messages chat.Transcript) error {
	if err := checkVisitor(visitorID); err != nil {
		return err
	}
	data, err := encodeMessages(messages)
	if err != nil {
		return err
	}

	now := time.Now().UTC().UnixNano()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_conversations (visitor_id, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (visitor_id) DO UPDATE SET
			messages = excluded.messages,
			updated_at = CASE
				WHEN chat_conversations.messages = excluded.messages THEN chat_conversations.updated_at
				ELSE excluded.updated_at
			END
	`, visitorID, string(data), now, now)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Retrieve(ctx context.Context, visitorID string) (chat.ConversationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT visitor_id, messages, created_at, updated_at FROM chat_conversations WHERE visitor_id = ?`,
		visitorID)

	rec, err := scanSQLiteRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.ConversationRecord{}, ErrNotFound
	}
	if err != nil {
		return chat.ConversationRecord{}, err
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]chat.ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT visitor_id, messages, created_at, updated_at FROM chat_conversations ORDER BY updated_at DESC, visitor_id`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []chat.ConversationRecord
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows.Scan)
		if err != nil {
			s.logger.Warn("skipping malformed conversation", zap.String("visitor_id", rec.VisitorID), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, visitorID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_conversations WHERE visitor_id = ?`, visitorID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanSQLiteRecord(scan func(dest ...any) error) (chat.ConversationRecord, error) {
	var (
		rec                  chat.ConversationRecord
		raw                  string
		createdAt, updatedAt int64
	)
	if err := scan(&rec.VisitorID, &raw, &createdAt, &updatedAt); err != nil {
		return chat.ConversationRecord{}, err
	}
	messages, err := decodeMessages([]byte(raw))
	if err != nil {
		return chat.ConversationRecord{VisitorID: rec.VisitorID}, err
	}
	rec.Messages = messages
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return rec, nil
}
