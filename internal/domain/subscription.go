package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a directed edge from a subscriber to a channel (both users).
type Subscription struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SubscriberID uuid.UUID `json:"subscriberId" gorm:"type:uuid;not null;uniqueIndex:idx_subscriber_channel"`
	ChannelID    uuid.UUID `json:"channelId" gorm:"type:uuid;not null;uniqueIndex:idx_subscriber_channel;index"`
	Subscriber   *User     `json:"-" gorm:"foreignKey:SubscriberID"`
	Channel      *User     `json:"-" gorm:"foreignKey:ChannelID"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ToggleResult struct {
	IsSubscribed     bool  `json:"isSubscribed"`
	SubscribersCount int64 `json:"subscribersCount"`
}

type ChannelProfile struct {
	User              *User `json:"user"`
	SubscribersCount  int64 `json:"subscribersCount"`
	SubscribedToCount int64 `json:"subscribedToCount"`
	IsSubscribed      bool  `json:"isSubscribed"`
}
