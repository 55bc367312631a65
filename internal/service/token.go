package service

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

var ErrInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the user id (sub), the session id (sid) and a
// unique token id (jti).
type RefreshClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL(),
		refreshTTL:    cfg.RefreshTokenTTL(),
		now:           time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *t
	clone.now = now
	return &clone
}

func (t *TokenIssuer) IssueAccessToken(user *domain.User, sessionID uuid.UUID) (string, error) {
	now := t.now()
	claims := AccessClaims{
		Email:     user.Email,
		Username:  user.Username,
		FullName:  user.FullName,
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
}

// IssueRefreshToken returns the signed token and its expiry.
func (t *TokenIssuer) IssueRefreshToken(user *domain.User, sessionID uuid.UUID) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.refreshTTL)
	claims := RefreshClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccessToken verifies signature and expiry. Every failure is
// ErrInvalidToken.
func (t *TokenIssuer) ParseAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(raw, claims, t.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) ParseRefreshToken(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := t.parse(raw, claims, t.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (t *TokenIssuer) parse(raw string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// TokenDigest is the value stored for a refresh token.
func TokenDigest(raw string) string {
	sum := blake3.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
