package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/entities"
)

func TestSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewSessionStore(path)

	t.Run("missing file loads as no session", func(t *testing.T) {
		session, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, session)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		want := &Session{
			BaseURL:     "http://library.test",
			AccessToken: "token-1",
			ExpiresAt:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			User:        &entities.User{ID: "u1", Name: "Ann", Email: "ann@example.com"},
		}
		require.NoError(t, store.Save(want))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		got, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.AccessToken, got.AccessToken)
		assert.Equal(t, want.BaseURL, got.BaseURL)
		assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
		assert.Equal(t, "ann@example.com", got.User.Email)
	})

	t.Run("clear removes the file and is idempotent", func(t *testing.T) {
		require.NoError(t, store.Clear())
		require.NoError(t, store.Clear())
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		_, err := store.Load()
		assert.Error(t, err)
	})
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&Session{}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Second)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
}
