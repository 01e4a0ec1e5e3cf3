package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_BASE_URL", "")
	t.Setenv("BOARD_CASCADE_DELETE", "")
	t.Setenv("EMAIL_TIMEOUT", "")

	env := FromEnviron()

	assert.Equal(t, "3000", env.Port)
	assert.Equal(t, "http://localhost:3000", env.AppBaseURL)
	assert.Equal(t, "gorm", env.StoreBackend)
	assert.Equal(t, "fs", env.BlobStorageType)
	assert.Equal(t, "board-updates", env.BoardUpdatesChannel)
	assert.False(t, env.BoardCascadeDelete)
	assert.False(t, env.UploadRollback)
	assert.Equal(t, 10*time.Second, env.EmailTimeout)
}

func TestFromEnvironOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_BASE_URL", "https://app.example.com/")
	t.Setenv("BOARD_CASCADE_DELETE", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("EMAIL_TIMEOUT", "3s")

	env := FromEnviron()

	assert.Equal(t, "8080", env.Port)
	assert.Equal(t, "https://app.example.com", env.AppBaseURL)
	assert.True(t, env.BoardCascadeDelete)
	assert.Equal(t, 1024, env.MaxUploadBytes)
	assert.Equal(t, 3*time.Second, env.EmailTimeout)
}

func TestDialector(t *testing.T) {
	d, err := Dialector("sqlite", "file::memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector("postgres", "host=localhost")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector("oracle", "")
	assert.Error(t, err)
}
