package repository

import (
	"context"
	"time"

	"github.com/dom/watchnest/internal/domain"
	"github.com/google/uuid"
)

// Implementations return errors wrapping domain.ErrNotFound for missing rows
// and domain.ErrConflict for unique violations.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// GetByID loads the user without the password hash.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetCredentialsByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetCredentialsByLogin(ctx context.Context, username, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.User, error)
	AppendWatchHistory(ctx context.Context, id uuid.UUID, videoID uuid.UUID) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error)
	// Rotate swaps the token digest only if it still equals oldHash and
	// reports whether a row was updated.
	Rotate(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt, rotatedAt time.Time) (bool, error)
	ListActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.UserSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Video, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter domain.VideoFilter) ([]*domain.Video, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.Video, error)
	IncrementViews(ctx context.Context, id uuid.UUID) (*domain.Video, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByVideo(ctx context.Context, videoID uuid.UUID, limit, offset int) ([]*domain.Comment, int64, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVideo(ctx context.Context, videoID uuid.UUID) error
}

type SubscriptionRepository interface {
	// Create inserts the edge, doing nothing if it already exists.
	Create(ctx context.Context, subscriberID, channelID uuid.UUID) error
	// Delete removes the edge and reports whether one existed.
	Delete(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	Exists(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error)
	ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]*domain.Subscription, error)
	ListSubscribedTo(ctx context.Context, subscriberID uuid.UUID) ([]*domain.Subscription, error)
}

type Repositories struct {
	User         UserRepository
	Session      SessionRepository
	Video        VideoRepository
	Comment      CommentRepository
	Subscription SubscriptionRepository
}
