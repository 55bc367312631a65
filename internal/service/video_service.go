package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/media"
	"github.com/dom/watchnest/internal/repository"
	"github.com/google/uuid"
)

type VideoService struct {
	videoRepo   repository.VideoRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	uploader    media.Uploader
	logger      *log.Logger
}

func NewVideoService(videoRepo repository.VideoRepository, commentRepo repository.CommentRepository, userRepo repository.UserRepository, uploader media.Uploader, logger *log.Logger) *VideoService {
	return &VideoService{
		videoRepo:   videoRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		uploader:    uploader,
		logger:      logger,
	}
}

type PublishInput struct {
	Title         string
	Description   string
	Duration      float64
	IsPublished   *bool
	VideoPath     string
	ThumbnailPath string
}

type ListVideosInput struct {
	Page
	Query    string
	SortBy   string
	SortType string
}

type UpdateVideoInput struct {
	Title         string
	Description   string
	ThumbnailPath string
}

func (s *VideoService) Publish(ctx context.Context, ownerID uuid.UUID, input PublishInput) (*domain.Video, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, domain.NewValidationError("Title and description are required")
	}
	if input.VideoPath == "" {
		return nil, domain.NewValidationError("Video file is required")
	}
	if math.IsNaN(input.Duration) || math.IsInf(input.Duration, 0) {
		return nil, domain.NewValidationError("Duration must be a finite number of seconds")
	}
	if input.Duration < 0 {
		return nil, domain.NewValidationError("Duration must not be negative")
	}

	videoURL, err := s.uploader.Upload(ctx, input.VideoPath)
	if err != nil {
		return nil, domain.NewInternalError("Failed to upload video", err)
	}

	var thumbnailURL string
	if input.ThumbnailPath != "" {
		thumbnailURL, err = s.uploader.Upload(ctx, input.ThumbnailPath)
		if err != nil {
			return nil, domain.NewInternalError("Failed to upload thumbnail", err)
		}
	}

	published := true
	if input.IsPublished != nil {
		published = *input.IsPublished
	}

	video := &domain.Video{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		VideoFile:   videoURL,
		Thumbnail:   thumbnailURL,
		Duration:    input.Duration,
		IsPublished: published,
		OwnerID:     ownerID,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, domain.NewInternalError("failed to save video", err)
	}

	return s.videoRepo.GetByID(ctx, video.ID)
}

func (s *VideoService) Get(ctx context.Context, rawID string) (*domain.Video, error) {
	id, err := requireID(rawID, "Video")
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *VideoService) load(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("Video not found")
		}
		return nil, domain.NewInternalError("failed to load video", err)
	}
	return video, nil
}

// List returns published videos filtered by a case-insensitive match on title
// or description.
func (s *VideoService) List(ctx context.Context, input ListVideosInput) (*Paginated[*domain.Video], error) {
	page := input.Page.normalize()

	column := domain.VideoSortFields["createdAt"]
	if input.SortBy != "" {
		c, ok := domain.VideoSortFields[input.SortBy]
		if !ok {
			return nil, domain.NewValidationError("Invalid sort field", "sortBy must be one of createdAt, views, title, duration")
		}
		column = c
	}

	descending := true
	switch strings.ToLower(input.SortType) {
	case "", "desc":
	case "asc":
		descending = false
	default:
		return nil, domain.NewValidationError("Invalid sort type", "sortType must be asc or desc")
	}

	videos, total, err := s.videoRepo.List(ctx, domain.VideoFilter{
		Query:         input.Query,
		PublishedOnly: true,
		SortColumn:    column,
		Descending:    descending,
		Limit:         page.Limit,
		Offset:        page.offset(),
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to list videos", err)
	}
	return newPaginated(videos, page, total), nil
}

// ListByOwner includes unpublished videos.
func (s *VideoService) ListByOwner(ctx context.Context, ownerID uuid.UUID, p Page) (*Paginated[*domain.Video], error) {
	page := p.normalize()
	videos, total, err := s.videoRepo.List(ctx, domain.VideoFilter{
		OwnerID:    &ownerID,
		SortColumn: "created_at",
		Descending: true,
		Limit:      page.Limit,
		Offset:     page.offset(),
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to list videos", err)
	}
	return newPaginated(videos, page, total), nil
}

func (s *VideoService) Update(ctx context.Context, rawID string, callerID uuid.UUID, input UpdateVideoInput) (*domain.Video, error) {
	id, err := requireID(rawID, "Video")
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, domain.NewValidationError("Title and description are required")
	}

	video, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.AssertOwner(video, callerID, "You can only update your own videos"); err != nil {
		return nil, err
	}

	fields := map[string]any{"title": title, "description": description}
	if input.ThumbnailPath != "" {
		url, err := s.uploader.Upload(ctx, input.ThumbnailPath)
		if err != nil {
			return nil, domain.NewInternalError("Failed to upload thumbnail", err)
		}
		fields["thumbnail"] = url
	}

	updated, err := s.videoRepo.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, domain.NewInternalError("failed to update video", err)
	}
	return updated, nil
}

func (s *VideoService) Delete(ctx context.Context, rawID string, callerID uuid.UUID) error {
	id, err := requireID(rawID, "Video")
	if err != nil {
		return err
	}
	video, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := domain.AssertOwner(video, callerID, "You can only delete your own videos"); err != nil {
		return err
	}

	if err := s.videoRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewNotFoundError("Video not found")
		}
		return domain.NewInternalError("failed to delete video", err)
	}
	if err := s.commentRepo.DeleteByVideo(ctx, id); err != nil {
		s.logger.Error("ERROR [service.VideoService.Delete] failed to delete comments", "video", id, "err", err)
	}
	return nil
}

func (s *VideoService) TogglePublish(ctx context.Context, rawID string, callerID uuid.UUID) (*domain.Video, error) {
	id, err := requireID(rawID, "Video")
	if err != nil {
		return nil, err
	}
	video, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.AssertOwner(video, callerID, "You can only toggle publish status of your own videos"); err != nil {
		return nil, err
	}

	updated, err := s.videoRepo.UpdateFields(ctx, id, map[string]any{"is_published": !video.IsPublished})
	if err != nil {
		return nil, domain.NewInternalError("failed to toggle publish status", err)
	}
	return updated, nil
}

// RecordView increments the view count and, for signed-in viewers, appends
// the video to their watch history.
func (s *VideoService) RecordView(ctx context.Context, rawID string, viewerID uuid.UUID) (*domain.Video, error) {
	id, err := requireID(rawID, "Video")
	if err != nil {
		return nil, err
	}

	video, err := s.videoRepo.IncrementViews(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("Video not found")
		}
		return nil, domain.NewInternalError("failed to record view", err)
	}

	if viewerID != uuid.Nil {
		if err := s.userRepo.AppendWatchHistory(ctx, viewerID, id); err != nil {
			s.logger.Error("ERROR [service.VideoService.RecordView] failed to append watch history", "user", viewerID, "video", id, "err", err)
		}
	}
	return video, nil
}
