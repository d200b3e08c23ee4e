package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.MongoTransactions)
	assert.Equal(t, 5*time.Minute, cfg.BoardRefreshInterval)
	assert.Zero(t, cfg.CompanyCacheTTL)
}

func TestLoadConfigRequiresSecretAndURI(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE", "mongo")
	t.Setenv("MONGODB_URI", "")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestAdminEmails(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE", "memory")
	t.Setenv("ADMIN_EMAILS", "ops@jobboard.io, Root@jobboard.io")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsAdminEmail("root@jobboard.io"))
	assert.True(t, cfg.IsAdminEmail("ops@jobboard.io"))
	assert.False(t, cfg.IsAdminEmail("intern@startup.io"))
}
