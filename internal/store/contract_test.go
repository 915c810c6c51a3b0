package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsastudio/concierge/backend/internal/model/chat"
)

func sampleTranscript(contents ...string) chat.Transcript {
	out := make(chat.Transcript, 0, len(contents))
	for i, c := range contents {
		role := chat.RoleUser
		if i%2 == 0 {
			role = chat.RoleAssistant
		}
		out = append(out, chat.NewMessage(role, c))
	}
	return out
}

// runContract exercises the behaviour every TranscriptStore must share.
func runContract(t *testing.T, newStore func(t *testing.T) TranscriptStore) {
	t.Run("persist creates then replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		visitor := "visitor_" + time.Now().Format("150405.000000000") + "_create"

		first := sampleTranscript("hello", "a wedding")
		require.NoError(t, s.Persist(ctx, visitor, first))

		rec, err := s.Retrieve(ctx, visitor)
		require.NoError(t, err)
		assert.Equal(t, visitor, rec.VisitorID)
		assert.True(t, rec.Messages.Equal(first))
		assert.False(t, rec.CreatedAt.IsZero())

		second := first.Append(chat.NewMessage(chat.RoleAssistant, "when?"))
		require.NoError(t, s.Persist(ctx, visitor, second))

		rec, err = s.Retrieve(ctx, visitor)
		require.NoError(t, err)
		assert.Len(t, rec.Messages, 3)
		assert.False(t, rec.UpdatedAt.Before(rec.CreatedAt))
	})

	t.Run("persist is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		visitor := "visitor_" + time.Now().Format("150405.000000000") + "_idem"
		transcript := sampleTranscript("hello", "quote please", "sure")

		require.NoError(t, s.Persist(ctx, visitor, transcript))
		before, err := s.Retrieve(ctx, visitor)
		require.NoError(t, err)

		require.NoError(t, s.Persist(ctx, visitor, transcript))
		after, err := s.Retrieve(ctx, visitor)
		require.NoError(t, err)

		assert.True(t, after.Messages.Equal(transcript))
		assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt), "identical persist must not bump updatedAt")

		all, err := s.List(ctx)
		require.NoError(t, err)
		count := 0
		for _, rec := range all {
			if rec.VisitorID == visitor {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("retrieve missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Retrieve(context.Background(), "visitor_missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("persist requires visitor", func(t *testing.T) {
		s := newStore(t)
		err := s.Persist(context.Background(), "  ", sampleTranscript("x"))
		assert.ErrorIs(t, err, ErrVisitorRequired)
	})

	t.Run("delete removes record", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		visitor := "visitor_" + time.Now().Format("150405.000000000") + "_delete"

		require.NoError(t, s.Persist(ctx, visitor, sampleTranscript("hello")))
		require.NoError(t, s.Delete(ctx, visitor))

		_, err := s.Retrieve(ctx, visitor)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, visitor), ErrNotFound)
	})

	t.Run("list orders by recency", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		suffix := time.Now().Format("150405.000000000")

		require.NoError(t, s.Persist(ctx, "visitor_old_"+suffix, sampleTranscript("old")))
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, s.Persist(ctx, "visitor_new_"+suffix, sampleTranscript("new")))

		all, err := s.List(ctx)
		require.NoError(t, err)

		posOld, posNew := -1, -1
		for i, rec := range all {
			switch rec.VisitorID {
			case "visitor_old_" + suffix:
				posOld = i
			case "visitor_new_" + suffix:
				posNew = i
			}
		}
		require.NotEqual(t, -1, posOld)
		require.NotEqual(t, -1, posNew)
		assert.Less(t, posNew, posOld)
	})
}
