package service

import (
	"strings"
	"testing"
	"time"

	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.AccessTokenSecret = "access-secret"
	cfg.RefreshTokenSecret = "refresh-secret"
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func testUser() *domain.User {
	return &domain.User{
		ID:       uuid.New(),
		Username: "ada",
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
	}
}

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	user := testUser()
	sid := uuid.New()

	raw, err := issuer.IssueAccessToken(user, sid)
	require.NoError(t, err)

	claims, err := issuer.ParseAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada Lovelace", claims.FullName)
	assert.Equal(t, sid.String(), claims.SessionID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenIssuer_KeysAreNotInterchangeable(t *testing.T) {
	issuer := NewTokenIssuer(testConfig())
	user := testUser()

	access, err := issuer.IssueAccessToken(user, uuid.New())
	require.NoError(t, err)
	refresh, _, err := issuer.IssueRefreshToken(user, uuid.New())
	require.NoError(t, err)

	_, err = issuer.ParseRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RefreshTokensAreUnique(t *testing.T) {
	issuer := NewTokenIssuer(testConfig()).WithClock(func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})
	user := testUser()
	sid := uuid.New()

	a, expA, err := issuer.IssueRefreshToken(user, sid)
	require.NoError(t, err)
	b, expB, err := issuer.IssueRefreshToken(user, sid)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "same second, same session, different tokens")
	assert.Equal(t, expA, expB)
	assert.NotEqual(t, TokenDigest(a), TokenDigest(b))
	assert.Len(t, TokenDigest(a), 64)

	claimsA, err := issuer.ParseRefreshToken(a)
	require.NoError(t, err)
	claimsB, err := issuer.ParseRefreshToken(b)
	require.NoError(t, err)
	for _, c := range []*RefreshClaims{claimsA, claimsB} {
		assert.Equal(t, sid.String(), c.SessionID, "session id travels in sid")
		assert.Equal(t, user.ID.String(), c.Subject)
		assert.NotEqual(t, sid.String(), c.ID, "jti is a per-token id, not the session id")
	}
	assert.NotEqual(t, claimsA.ID, claimsB.ID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	cfg := testConfig()
	issuer := NewTokenIssuer(cfg)
	user := testUser()

	valid, err := issuer.IssueAccessToken(user, uuid.New())
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID.String()},
	}).SignedString([]byte(cfg.AccessTokenSecret))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(cfg.AccessTokenSecret))
	require.NoError(t, err)

	foreign, err := NewTokenIssuer(&config.Config{
		AccessTokenSecret:        "someone-else",
		RefreshTokenSecret:       "someone-else-refresh",
		AccessTokenExpiryMinutes: 15,
		RefreshTokenExpiryHours:  1,
	}).IssueAccessToken(user, uuid.New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *TokenIssuer
		raw    string
	}{
		{name: "empty", issuer: issuer, raw: ""},
		{name: "garbage", issuer: issuer, raw: "a.b.c"},
		{name: "foreign secret", issuer: issuer, raw: foreign},
		{name: "missing exp", issuer: issuer, raw: noExpiry},
		{name: "unexpected algorithm", issuer: issuer, raw: wrongAlg},
		{
			name:   "expired",
			issuer: issuer.WithClock(func() time.Time { return time.Now().Add(16 * time.Minute) }),
			raw:    valid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.ParseAccessToken(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, hasher.Verify(hash, "hunter22"))
	assert.False(t, hasher.Verify(hash, "hunter23"))
	assert.False(t, hasher.Verify("not-a-hash", "hunter22"))

	_, err = hasher.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNormalizeRegistration(t *testing.T) {
	tests := []struct {
		name         string
		in           RegisterInput
		wantUsername string
		wantEmail    string
		wantErr      string
	}{
		{
			name:         "username from email local part",
			in:           RegisterInput{FullName: "Ada Lovelace", Email: " Ada@X.com ", Password: "pw"},
			wantUsername: "ada",
			wantEmail:    "ada@x.com",
		},
		{
			name:         "username from full name without an email local part",
			in:           RegisterInput{FullName: " Ada  Lovelace ", Email: "@x.com", Password: "pw"},
			wantUsername: "adalovelace",
			wantEmail:    "@x.com",
		},
		{
			name:         "explicit username wins",
			in:           RegisterInput{FullName: "Ada", Email: "a@x.com", Username: " AdaL ", Password: "pw"},
			wantUsername: "adal",
			wantEmail:    "a@x.com",
		},
		{
			name:    "missing full name",
			in:      RegisterInput{FullName: "  ", Email: "a@x.com", Password: "pw"},
			wantErr: "Full name, email and password are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := normalizeRegistration(tt.in)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, domain.ErrValidation)
				msg, _ := domain.PublicMessage(err)
				assert.Equal(t, tt.wantErr, msg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantUsername, out.Username)
			assert.Equal(t, tt.wantEmail, out.Email)
			assert.True(t, strings.HasPrefix(out.Avatar, "https://ui-avatars.com/api/?name="))
		})
	}
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in         Page
		want       Page
		wantOffset int
	}{
		{in: Page{}, want: Page{Page: 1, Limit: 10}, wantOffset: 0},
		{in: Page{Page: 3, Limit: 20}, want: Page{Page: 3, Limit: 20}, wantOffset: 40},
		{in: Page{Page: -1, Limit: 500}, want: Page{Page: 1, Limit: 50}, wantOffset: 0},
	}
	for _, tt := range tests {
		got := tt.in.normalize()
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantOffset, got.offset())
	}

	p := newPaginated([]int(nil), Page{Page: 1, Limit: 10}, 21)
	assert.Equal(t, int64(3), p.TotalPages)
	assert.NotNil(t, p.Items)
}
