package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobboard/apperr"
	"jobboard/cache"
	"jobboard/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is the signed-in identity passed explicitly to every operation.
type Session struct {
	AccountID string
	Email     string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// Is reports whether the session holds one of roles.
func (s *Session) Is(roles ...models.Role) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and validates HS256 session tokens. Revoked token ids are
// kept in a cache until the token would have expired anyway.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	revoked cache.Cache
	now     func() time.Time
}

func NewManager(secret string, ttl time.Duration, revoked cache.Cache) *Manager {
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
}

func (m *Manager) Issue(acc models.Account) (string, *Session, error) {
	now := m.now()
	s := &Session{
		AccountID: acc.AccountID,
		Email:     acc.Email,
		Role:      acc.Role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}

	claims := &Claims{
		UserID: s.AccountID,
		Email:  s.Email,
		Role:   s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.TokenID,
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, apperr.Internal("Failed to generate token", err)
	}
	return signed, s, nil
}

func (m *Manager) Parse(ctx context.Context, tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, apperr.Auth("Invalid token", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperr.Auth("Invalid token", nil)
	}

	if m.revoked != nil && claims.ID != "" {
		_, err := m.revoked.Get(ctx, revokedKey(claims.ID))
		if err == nil {
			return nil, apperr.Auth("Session has ended", nil)
		}
		if !errors.Is(err, cache.ErrNotFound) {
			return nil, apperr.Internal("Failed to check session", err)
		}
	}

	s := &Session{
		AccountID: claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenID:   claims.ID,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Revoke ends s; later Parse calls with the same token fail.
func (m *Manager) Revoke(ctx context.Context, s *Session) error {
	if m.revoked == nil || s == nil || s.TokenID == "" {
		return nil
	}
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.revoked.Set(ctx, revokedKey(s.TokenID), []byte(s.AccountID), ttl)
}

func revokedKey(id string) string {
	return "session:revoked:" + id
}
