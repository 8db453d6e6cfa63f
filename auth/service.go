package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidToken covers malformed, expired, mis-signed and revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Principal identifies an authenticated caller. It is the (user, tenant)
// pair the realtime layer scopes every connection to.
type Principal struct {
	UserID   string
	TenantID string
	Role     string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// Claims is the JWT claim set issued by the service.
type Claims struct {
	TenantID string `json:"tid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and validates bearer tokens. Revoked token ids live in
// redis until their natural expiry.
type Service struct {
	secret   []byte
	tokenTTL time.Duration
	redis    *redis.Client
}

// NewService creates a token service. redisClient may be nil, in which
// case revocation is disabled and validation is purely cryptographic.
func NewService(secret string, tokenTTL time.Duration, redisClient *redis.Client) *Service {
	return &Service{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		redis:    redisClient,
	}
}

// IssueToken mints a signed token for the principal.
func (s *Service) IssueToken(p Principal) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)

	claims := Claims{
		TenantID: p.TenantID,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature and expiry, consults the
// revocation list, and returns the embedded principal.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (Principal, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return Principal{}, err
	}

	if s.redis != nil && claims.ID != "" {
		revoked, err := s.redis.Exists(ctx, blacklistKey(claims.ID)).Result()
		if err != nil {
			return Principal{}, fmt.Errorf("revocation check failed: %w", err)
		}
		if revoked > 0 {
			return Principal{}, ErrInvalidToken
		}
	}

	return Principal{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		Role:     claims.Role,
	}, nil
}

// RevokeToken blacklists the token's id for the remainder of its life.
func (s *Service) RevokeToken(ctx context.Context, tokenString string) error {
	if s.redis == nil {
		return nil
	}

	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		// Already expired; nothing to revoke.
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKey(claims.ID), "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" || claims.TenantID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func blacklistKey(jti string) string {
	return "auth:blacklist:" + jti
}
