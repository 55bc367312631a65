package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/repository/postgres"
	"github.com/dom/watchnest/internal/service"
	"github.com/dom/watchnest/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notification struct {
	userID uuid.UUID
	event  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Notify(userID uuid.UUID, event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{userID: userID, event: event})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.events...)
}

func TestSubscriptionService_Toggle(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	notifier := &recordingNotifier{}
	subService := service.NewSubscriptionService(repos.User, repos.Subscription, notifier)
	ctx := context.Background()

	fan, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	channel, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	testutil.Subscribe(t, testDB.DB, other, channel)

	on, err := subService.Toggle(ctx, fan.ID, channel.ID.String())
	require.NoError(t, err)
	assert.True(t, on.IsSubscribed)
	assert.Equal(t, int64(2), on.SubscribersCount)

	off, err := subService.Toggle(ctx, fan.ID, channel.ID.String())
	require.NoError(t, err)
	assert.False(t, off.IsSubscribed)
	assert.Equal(t, int64(1), off.SubscribersCount, "toggling twice restores the count")

	assert.Equal(t, []notification{
		{userID: channel.ID, event: service.EventSubscribed},
		{userID: channel.ID, event: service.EventUnsubscribed},
	}, notifier.all())
}

func TestSubscriptionService_ToggleErrors(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	subService := service.NewSubscriptionService(repos.User, repos.Subscription, nil)
	ctx := context.Background()

	fan, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	ghost := uuid.New()

	tests := []struct {
		name        string
		subscriber  uuid.UUID
		channel     string
		wantErr     error
		wantMessage string
	}{
		{name: "anonymous", subscriber: uuid.Nil, channel: fan.ID.String(), wantErr: domain.ErrUnauthorized},
		{name: "missing id", subscriber: fan.ID, channel: "", wantErr: domain.ErrValidation, wantMessage: "Channel ID is required"},
		{name: "malformed id", subscriber: fan.ID, channel: "abc", wantErr: domain.ErrValidation, wantMessage: "Invalid Channel ID"},
		{name: "self", subscriber: fan.ID, channel: fan.ID.String(), wantErr: domain.ErrValidation, wantMessage: "You cannot subscribe to your own channel"},
		// Self-subscription is rejected before the channel is looked up.
		{name: "self on unknown user", subscriber: ghost, channel: ghost.String(), wantErr: domain.ErrValidation},
		{name: "unknown channel", subscriber: fan.ID, channel: ghost.String(), wantErr: domain.ErrNotFound, wantMessage: "Channel not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := subService.Toggle(ctx, tt.subscriber, tt.channel)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMessage != "" {
				msg, _ := domain.PublicMessage(err)
				assert.Equal(t, tt.wantMessage, msg)
			}
		})
	}
}

func TestSubscriptionService_Lists(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	subService := service.NewSubscriptionService(repos.User, repos.Subscription, nil)
	ctx := context.Background()

	a, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	b, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	c, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	testutil.Subscribe(t, testDB.DB, a, c)
	testutil.Subscribe(t, testDB.DB, b, c)
	testutil.Subscribe(t, testDB.DB, a, b)

	subscribers, err := subService.ListSubscribers(ctx, c.ID.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, userIDs(subscribers))
	for _, u := range subscribers {
		assert.Empty(t, u.PasswordHash)
		assert.Empty(t, u.Email, "only the public summary is loaded")
	}

	channels, err := subService.ListSubscribedChannels(ctx, a.ID.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{b.ID, c.ID}, userIDs(channels))

	none, err := subService.ListSubscribers(ctx, a.ID.String())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func userIDs(users []*domain.User) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
