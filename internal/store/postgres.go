package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chat_conversations (
	visitor_id VARCHAR(64) PRIMARY KEY,
	messages   JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists records in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects, pings and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{pool: pool, logger: logger.Named("postgres_store")}, nil
}

func (s *PostgresStore) Persist(ctx context.Context, visitorID string, messages chat.Transcript) error {
	if err := checkVisitor(visitorID); err != nil {
		return err
	}
	data, err := encodeMessages(messages)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO chat_conversations (visitor_id, messages, created_at, updated_at)
		VALUES ($1, $2::jsonb, now(), now())
		ON CONFLICT (visitor_id) DO UPDATE SET
			messages = EXCLUDED.messages,
			updated_at = CASE
				WHEN chat_conversations.messages = EXCLUDED.messages THEN chat_conversations.updated_at
				ELSE now()
			END
	`, visitorID, string(data))
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Retrieve(ctx context.Context, visitorID string) (chat.ConversationRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT visitor_id, messages, created_at, updated_at FROM chat_conversations WHERE visitor_id = $1`,
		visitorID)

	rec, err := scanPostgresRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.ConversationRecord{}, ErrNotFound
	}
	if err != nil {
		return chat.ConversationRecord{}, fmt.Errorf("get conversation: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]chat.ConversationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT visitor_id, messages, created_at, updated_at FROM chat_conversations ORDER BY updated_at DESC, visitor_id`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []chat.ConversationRecord
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			s.logger.Warn("skipping malformed conversation", zap.String("visitor_id", rec.VisitorID), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, visitorID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chat_conversations WHERE visitor_id = $1`, visitorID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresRecord(row pgx.Row) (chat.ConversationRecord, error) {
	var (
		rec                  chat.ConversationRecord
		raw                  []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&rec.VisitorID, &raw, &createdAt, &updatedAt); err != nil {
		return chat.ConversationRecord{}, err
	}
	messages, err := decodeMessages(raw)
	if err != nil {
		return chat.ConversationRecord{VisitorID: rec.VisitorID}, err
	}
	rec.Messages = messages
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()
	return rec, nil
}
