package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/repository/postgres"
	"github.com/dom/watchnest/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	newUser := func(username, email string) *domain.User {
		return &domain.User{
			ID:           uuid.New(),
			Username:     username,
			Email:        email,
			FullName:     "Test User",
			PasswordHash: "hashedpassword",
		}
	}

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{name: "successful creation", user: newUser("testuser", "test@example.com")},
		{name: "duplicate username", user: newUser("testuser", "other@example.com"), wantErr: domain.ErrConflict},
		{name: "duplicate email", user: newUser("another", "test@example.com"), wantErr: domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithUsername("lookup").WithEmail("lookup@example.com").Build(t, testDB.DB)

	t.Run("GetByID omits the password hash", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "lookup", got.Username)
		assert.Empty(t, got.PasswordHash)
	})

	t.Run("credentials carry the hash", func(t *testing.T) {
		got, err := repo.GetCredentialsByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, got.PasswordHash)
	})

	t.Run("login matches username or email", func(t *testing.T) {
		byName, err := repo.GetCredentialsByLogin(ctx, "lookup", "")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		byEmail, err := repo.GetCredentialsByLogin(ctx, "", "lookup@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = repo.GetCredentialsByLogin(ctx, "", "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.GetByUsername(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := repo.ExistsByUsernameOrEmail(ctx, "nobody", "lookup@example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserRepository_UpdateFields(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	testutil.NewUserBuilder().WithEmail("taken@example.com").Build(t, testDB.DB)

	updated, err := repo.UpdateFields(ctx, user.ID, map[string]any{
		"full_name":     "New Name",
		"password_hash": "sneaky",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)

	creds, err := repo.GetCredentialsByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, creds.PasswordHash, "password hash is not writable through UpdateFields")

	_, err = repo.UpdateFields(ctx, user.ID, map[string]any{"email": "taken@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.UpdateFields(ctx, uuid.New(), map[string]any{"full_name": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "rehashed"))
	creds, err = repo.GetCredentialsByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rehashed", creds.PasswordHash)
}

func TestUserRepository_AppendWatchHistory(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	first, second := uuid.New(), uuid.New()

	require.NoError(t, repo.AppendWatchHistory(ctx, user.ID, first))
	require.NoError(t, repo.AppendWatchHistory(ctx, user.ID, second))
	require.NoError(t, repo.AppendWatchHistory(ctx, user.ID, first))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second, first}, []uuid.UUID(got.WatchHistory))

	err = repo.AppendWatchHistory(ctx, uuid.New(), first)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepository_Rotate(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	now := time.Now()
	session := &domain.UserSession{
		ID:            uuid.New(),
		UserID:        user.ID,
		TokenHash:     "hash-1",
		UserAgent:     "curl",
		ExpiresAt:     now.Add(time.Hour),
		LastRotatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, session))

	ok, err := repo.Rotate(ctx, session.ID, "hash-1", "hash-2", now.Add(2*time.Hour), now)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second rotation from the same stale hash loses the race.
	ok, err = repo.Rotate(ctx, session.ID, "hash-1", "hash-3", now.Add(2*time.Hour), now)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", stored.TokenHash)
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSessionRepository(testDB.DB)
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	intruder, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	now := time.Now()

	mk := func(expiresAt time.Time) *domain.UserSession {
		s := &domain.UserSession{
			ID:            uuid.New(),
			UserID:        owner.ID,
			TokenHash:     uuid.NewString(),
			ExpiresAt:     expiresAt,
			LastRotatedAt: now,
		}
		require.NoError(t, repo.Create(ctx, s))
		return s
	}

	active := mk(now.Add(time.Hour))
	mk(now.Add(-time.Hour))
	other := mk(now.Add(time.Hour))

	sessions, err := repo.ListActiveByUserID(ctx, owner.ID, now)
	require.NoError(t, err)
	assert.Len(t, sessions, 2, "expired sessions are not listed")

	require.NoError(t, repo.DeleteForUser(ctx, active.ID, intruder.ID))
	_, err = repo.GetByID(ctx, active.ID)
	require.NoError(t, err, "another user cannot delete the session")

	require.NoError(t, repo.DeleteForUser(ctx, active.ID, owner.ID))
	_, err = repo.GetByID(ctx, active.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.DeleteByUserID(ctx, owner.ID))
	_, err = repo.GetByID(ctx, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubscriptionRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewSubscriptionRepository(testDB.DB)
	ctx := context.Background()

	fan, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	channel, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	require.NoError(t, repo.Create(ctx, fan.ID, channel.ID))
	require.NoError(t, repo.Create(ctx, fan.ID, channel.ID), "duplicate edges are ignored")

	count, err := repo.CountSubscribers(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountSubscribedTo(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	ok, err := repo.Exists(ctx, fan.ID, channel.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, channel.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")

	removed, err := repo.Delete(ctx, fan.ID, channel.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, fan.ID, channel.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
