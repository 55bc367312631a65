package service

import (
	"context"

	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/repository"
	"github.com/google/uuid"
)

type SubscriptionService struct {
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
	notifier Notifier
}

func NewSubscriptionService(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository, notifier Notifier) *SubscriptionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &SubscriptionService{userRepo: userRepo, subRepo: subRepo, notifier: notifier}
}

// Toggle flips the subscription edge between subscriber and channel and
// returns the new state with a fresh subscriber count.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID uuid.UUID, rawChannelID string) (*domain.ToggleResult, error) {
	if subscriberID == uuid.Nil {
		return nil, domain.NewUnauthorizedError("Unauthorized request")
	}

	channelID, err := requireID(rawChannelID, "Channel")
	if err != nil {
		return nil, err
	}
	if channelID == subscriberID {
		return nil, domain.NewValidationError("You cannot subscribe to your own channel")
	}

	exists, err := s.userRepo.Exists(ctx, channelID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load channel", err)
	}
	if !exists {
		return nil, domain.NewNotFoundError("Channel not found")
	}

	removed, err := s.subRepo.Delete(ctx, subscriberID, channelID)
	if err != nil {
		return nil, domain.NewInternalError("failed to unsubscribe", err)
	}
	if !removed {
		if err := s.subRepo.Create(ctx, subscriberID, channelID); err != nil {
			return nil, domain.NewInternalError("failed to subscribe", err)
		}
	}

	count, err := s.subRepo.CountSubscribers(ctx, channelID)
	if err != nil {
		return nil, domain.NewInternalError("failed to count subscribers", err)
	}

	result := &domain.ToggleResult{IsSubscribed: !removed, SubscribersCount: count}

	event := EventSubscribed
	if removed {
		event = EventUnsubscribed
	}
	s.notifier.Notify(channelID, event, map[string]any{
		"subscriberId":     subscriberID,
		"subscribersCount": count,
	})

	return result, nil
}

func (s *SubscriptionService) ListSubscribers(ctx context.Context, rawChannelID string) ([]*domain.User, error) {
	channelID, err := requireID(rawChannelID, "Channel")
	if err != nil {
		return nil, err
	}
	subs, err := s.subRepo.ListSubscribers(ctx, channelID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list subscribers", err)
	}
	users := make([]*domain.User, 0, len(subs))
	for _, sub := range subs {
		if sub.Subscriber != nil {
			users = append(users, sub.Subscriber)
		}
	}
	return users, nil
}

func (s *SubscriptionService) ListSubscribedChannels(ctx context.Context, rawUserID string) ([]*domain.User, error) {
	userID, err := requireID(rawUserID, "User")
	if err != nil {
		return nil, err
	}
	subs, err := s.subRepo.ListSubscribedTo(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list subscribed channels", err)
	}
	channels := make([]*domain.User, 0, len(subs))
	for _, sub := range subs {
		if sub.Channel != nil {
			channels = append(channels, sub.Channel)
		}
	}
	return channels, nil
}
