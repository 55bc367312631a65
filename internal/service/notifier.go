package service

import "github.com/google/uuid"

const (
	EventSubscribed   = "SUBSCRIBED"
	EventUnsubscribed = "UNSUBSCRIBED"
	EventCommentAdded = "COMMENT_ADDED"
)

// Notifier delivers realtime events to a user's open connections. Delivery is
// best effort.
type Notifier interface {
	Notify(userID uuid.UUID, event string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Notify(uuid.UUID, string, any) {}
