package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSQLiteStoreContract(t *testing.T) {
	runContract(t, func(t *testing.T) TranscriptStore {
		s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "chat.db"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "chat.db")

	s, err := NewSQLiteStore(ctx, path, nil)
	require.NoError(t, err)
	transcript := sampleTranscript("hello", "a gala dinner")
	require.NoError(t, s.Persist(ctx, "visitor_1_reopen", transcript))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(ctx, path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.Retrieve(ctx, "visitor_1_reopen")
	require.NoError(t, err)
	require.True(t, rec.Messages.Equal(transcript))
}

func TestSQLiteStoreListLogsMalformedRows(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "chat.db"), zap.New(core))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Persist(ctx, "visitor_1_good", sampleTranscript("hello")))
	now := time.Now().UnixNano()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chat_conversations (visitor_id, messages, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		"visitor_1_broken", "{not json", now, now)
	require.NoError(t, err)

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "visitor_1_good", records[0].VisitorID)

	skipped := logs.FilterMessage("skipping malformed conversation").All()
	require.Len(t, skipped, 1)
	require.Equal(t, "visitor_1_broken", skipped[0].ContextMap()["visitor_id"])
}
