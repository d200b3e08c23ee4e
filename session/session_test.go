package session

import (
	"context"
	"testing"
	"time"

	"jobboard/apperr"
	"jobboard/cache"
	"jobboard/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(t *testing.T) models.Account {
	t.Helper()
	acc, err := models.NewAccount("65f0c0ffee", "admin@jobboard.io", models.RoleAdmin, models.AdminProfile{})
	require.NoError(t, err)
	return acc
}

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour, cache.NewMemory())

	token, issued, err := m.Issue(testAccount(t))
	require.NoError(t, err)

	s, err := m.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, issued.AccountID, s.AccountID)
	assert.Equal(t, "admin@jobboard.io", s.Email)
	assert.Equal(t, models.RoleAdmin, s.Role)
	assert.True(t, s.Is(models.RoleAdmin))
	assert.False(t, s.Is(models.RoleEmployer, models.RoleStudent))
}

func TestParseRejectsOtherSecretAndExpired(t *testing.T) {
	m := NewManager("secret", time.Hour, nil)
	token, _, err := m.Issue(testAccount(t))
	require.NoError(t, err)

	other := NewManager("another", time.Hour, nil)
	_, err = other.Parse(context.Background(), token)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Parse(context.Background(), token)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	m := NewManager("secret", time.Hour, cache.NewMemory())

	token, s, err := m.Issue(testAccount(t))
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, s))

	_, err = m.Parse(ctx, token)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestNilSessionHasNoRole(t *testing.T) {
	var s *Session
	assert.False(t, s.Is(models.RoleAdmin))
}
