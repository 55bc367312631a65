package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/media"
	"github.com/dom/watchnest/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type UserService struct {
	userRepo  repository.UserRepository
	videoRepo repository.VideoRepository
	subRepo   repository.SubscriptionRepository
	uploader  media.Uploader
}

func NewUserService(userRepo repository.UserRepository, videoRepo repository.VideoRepository, subRepo repository.SubscriptionRepository, uploader media.Uploader) *UserService {
	return &UserService{
		userRepo:  userRepo,
		videoRepo: videoRepo,
		subRepo:   subRepo,
		uploader:  uploader,
	}
}

type UpdateAccountInput struct {
	FullName *string
	Email    *string
}

func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, input UpdateAccountInput) (*domain.User, error) {
	fields := map[string]any{}
	if input.FullName != nil {
		if name := strings.TrimSpace(*input.FullName); name != "" {
			fields["full_name"] = name
		}
	}
	if input.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*input.Email)); email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, domain.NewValidationError("Invalid email address")
			}
			fields["email"] = email
		}
	}
	if len(fields) == 0 {
		return nil, domain.NewValidationError("Full name or email is required")
	}

	user, err := s.userRepo.UpdateFields(ctx, userID, fields)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			return nil, domain.NewConflictError("Email is already in use")
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, domain.NewInternalError("failed to update account", err)
	}
	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (*domain.User, error) {
	if localPath == "" {
		return nil, domain.NewValidationError("Avatar file is required")
	}
	return s.replaceImage(ctx, userID, localPath, "avatar", "Error while uploading avatar")
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (*domain.User, error) {
	if localPath == "" {
		return nil, domain.NewValidationError("Cover image file is required")
	}
	return s.replaceImage(ctx, userID, localPath, "cover_image", "Error while uploading cover image")
}

func (s *UserService) replaceImage(ctx context.Context, userID uuid.UUID, localPath, column, failure string) (*domain.User, error) {
	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return nil, domain.NewInternalError(failure, err)
	}
	user, err := s.userRepo.UpdateFields(ctx, userID, map[string]any{column: url})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, domain.NewInternalError("failed to update user", err)
	}
	return user, nil
}

// UploadMedia stores a registration image. Empty paths yield an empty URL.
func (s *UserService) UploadMedia(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", nil
	}
	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return "", domain.NewInternalError("failed to upload image", err)
	}
	return url, nil
}

// GetChannelProfile loads a channel by username with its subscription counts.
// viewerID may be uuid.Nil for anonymous viewers.
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*domain.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, domain.NewValidationError("Username is missing")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("Channel does not exist")
		}
		return nil, domain.NewInternalError("failed to load channel", err)
	}

	profile := &domain.ChannelProfile{User: user}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.subRepo.CountSubscribers(gctx, user.ID)
		profile.SubscribersCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.subRepo.CountSubscribedTo(gctx, user.ID)
		profile.SubscribedToCount = n
		return err
	})
	if viewerID != uuid.Nil {
		g.Go(func() error {
			ok, err := s.subRepo.Exists(gctx, viewerID, user.ID)
			profile.IsSubscribed = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.NewInternalError("failed to load channel counts", err)
	}

	return profile, nil
}

// GetWatchHistory returns the watched videos in history order. Videos deleted
// since are skipped.
func (s *UserService) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]*domain.Video, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("User not found")
		}
		return nil, domain.NewInternalError("failed to load user", err)
	}

	videos, err := s.videoRepo.GetByIDs(ctx, user.WatchHistory)
	if err != nil {
		return nil, domain.NewInternalError("failed to load watch history", err)
	}

	byID := make(map[uuid.UUID]*domain.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	history := make([]*domain.Video, 0, len(user.WatchHistory))
	for _, id := range user.WatchHistory {
		if v, ok := byID[id]; ok {
			history = append(history, v)
		}
	}
	return history, nil
}
