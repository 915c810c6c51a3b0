package device_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsastudio/concierge/backend/internal/device"
)

func runStorageContract(t *testing.T, s device.Storage) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("events_chat_b", "2"))
	require.NoError(t, s.Set("events_chat_a", "1"))
	require.NoError(t, s.Set("events_visitor_id", "v"))

	v, ok, err := s.Get("events_chat_a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	keys, err := s.Keys("events_chat_")
	require.NoError(t, err)
	assert.Equal(t, []string{"events_chat_a", "events_chat_b"}, keys)

	require.NoError(t, s.Remove("events_chat_a"))
	require.NoError(t, s.Remove("never-set"))
	_, ok, err = s.Get("events_chat_a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Close())
	_, _, err = s.Get("events_visitor_id")
	assert.True(t, errors.Is(err, device.ErrClosed), "got %v", err)
}

func TestMemoryStorage(t *testing.T) {
	runStorageContract(t, device.NewMemoryStorage())
}

func TestBoltStorage(t *testing.T) {
	s, err := device.OpenBolt(filepath.Join(t.TempDir(), "nested", "device.bolt"))
	require.NoError(t, err)
	runStorageContract(t, s)
}

func TestBoltStorageSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.bolt")

	s, err := device.OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("events_visitor_id", "visitor_1_abc"))
	require.NoError(t, s.Close())

	s, err = device.OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get("events_visitor_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "visitor_1_abc", v)
}
