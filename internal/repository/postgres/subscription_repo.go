package postgres

import (
	"context"

	"github.com/dom/watchnest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *subscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscriberID, channelID uuid.UUID) error {
	sub := &domain.Subscription{
		ID:           uuid.New(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}
	err := r.db.WithContext(ctx).
		Omit("Subscriber", "Channel").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscriber_id"}, {Name: "channel_id"}},
			DoNothing: true,
		}).
		Create(sub).Error
	return translate("create subscription", err)
}

func (r *subscriptionRepository) Delete(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Delete(&domain.Subscription{})
	if result.Error != nil {
		return false, translate("delete subscription", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *subscriptionRepository) Exists(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Count(&count).Error
	if err != nil {
		return false, translate("check subscription", err)
	}
	return count > 0, nil
}

func (r *subscriptionRepository) CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("channel_id = ?", channelID).
		Count(&count).Error
	if err != nil {
		return 0, translate("count subscribers", err)
	}
	return count, nil
}

func (r *subscriptionRepository) CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Count(&count).Error
	if err != nil {
		return 0, translate("count subscriptions", err)
	}
	return count, nil
}

func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]*domain.Subscription, error) {
	var subs []*domain.Subscription
	err := r.db.WithContext(ctx).
		Preload("Subscriber", ownerSummary).
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, translate("list subscribers", err)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListSubscribedTo(ctx context.Context, subscriberID uuid.UUID) ([]*domain.Subscription, error) {
	var subs []*domain.Subscription
	err := r.db.WithContext(ctx).
		Preload("Channel", ownerSummary).
		Where("subscriber_id = ?", subscriberID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, translate("list subscribed channels", err)
	}
	return subs, nil
}
