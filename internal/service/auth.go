package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sharebnb/internal/cache"
	"sharebnb/internal/config"
	"sharebnb/internal/model"
	"sharebnb/internal/repository"
)

// accountClaim holds the account's created_at in unix microseconds. A token
// is only honoured while the username still belongs to that account.
const accountClaim = "acct"

// AuthService issues and verifies HS256 access tokens. Logout is handled by
// recording the token id in the revocation store until the token expires.
type AuthService struct {
	users       repository.UserRepository
	revocations cache.RevocationStore
	secret      []byte
	maxAge      time.Duration

	// now is replaceable in tests
	now func() time.Time
}

// NewAuthService wires the token service. revocations may be nil, in which
// case logout only succeeds client-side. users may be nil only in tests that
// never look at accounts.
func NewAuthService(users repository.UserRepository, revocations cache.RevocationStore, cfg *config.Config) *AuthService {
	return &AuthService{
		users:       users,
		revocations: revocations,
		secret:      []byte(cfg.JWTSecret),
		maxAge:      time.Duration(cfg.AccessTokenMaxAge) * time.Second,
		now:         time.Now,
	}
}

// GenerateToken signs a token for user and returns it with its lifetime in seconds.
func (s *AuthService) GenerateToken(user *model.User) (string, int, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"username":   user.Username,
		accountClaim: accountStamp(user),
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(s.maxAge).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, int(s.maxAge.Seconds()), nil
}

// ParseToken verifies the signature, expiry and revocation state of a token,
// then checks that the account it was issued to still exists.
func (s *AuthService) ParseToken(ctx context.Context, tokenString string) (*model.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, model.ErrTokenInvalid
	}

	username, _ := claims["username"].(string)
	jti, _ := claims["jti"].(string)
	account, _ := claims[accountClaim].(string)
	if username == "" || jti == "" || account == "" {
		return nil, model.ErrTokenInvalid
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, model.ErrTokenInvalid
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, jti)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, model.ErrTokenRevoked
		}
	}

	if s.users != nil {
		user, err := s.users.GetByUsername(ctx, username)
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrTokenInvalid
		}
		if err != nil {
			return nil, fmt.Errorf("check token account: %w", err)
		}
		if accountStamp(user) != account {
			return nil, model.ErrTokenInvalid
		}
	}

	return &model.Identity{
		Username:  username,
		TokenID:   jti,
		ExpiresAt: exp.Time,
	}, nil
}

func accountStamp(user *model.User) string {
	return strconv.FormatInt(user.CreatedAt.UnixMicro(), 10)
}

// Revoke invalidates the caller's current token for the rest of its lifetime.
func (s *AuthService) Revoke(ctx context.Context, identity *model.Identity) error {
	if s.revocations == nil {
		log.Printf("[AuthService] Revocation store not configured, token jti=%s stays valid until expiry", identity.TokenID)
		return nil
	}
	ttl := identity.ExpiresAt.Sub(s.now())
	if err := s.revocations.Revoke(ctx, identity.TokenID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
