package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/repository"
	"github.com/google/uuid"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	videoRepo   repository.VideoRepository
	notifier    Notifier
}

func NewCommentService(commentRepo repository.CommentRepository, videoRepo repository.VideoRepository, notifier Notifier) *CommentService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &CommentService{commentRepo: commentRepo, videoRepo: videoRepo, notifier: notifier}
}

func (s *CommentService) ListForVideo(ctx context.Context, rawVideoID string, p Page) (*Paginated[*domain.Comment], error) {
	videoID, err := requireID(rawVideoID, "Video")
	if err != nil {
		return nil, err
	}
	if _, err := s.loadVideo(ctx, videoID); err != nil {
		return nil, err
	}

	page := p.normalize()
	comments, total, err := s.commentRepo.ListByVideo(ctx, videoID, page.Limit, page.offset())
	if err != nil {
		return nil, domain.NewInternalError("failed to list comments", err)
	}
	return newPaginated(comments, page, total), nil
}

func (s *CommentService) Add(ctx context.Context, rawVideoID string, callerID uuid.UUID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("Comment cannot be empty")
	}
	videoID, err := requireID(rawVideoID, "Video")
	if err != nil {
		return nil, err
	}
	video, err := s.loadVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:      uuid.New(),
		Content: content,
		VideoID: videoID,
		OwnerID: callerID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, domain.NewInternalError("failed to add comment", err)
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load comment", err)
	}

	if video.OwnerID != callerID {
		s.notifier.Notify(video.OwnerID, EventCommentAdded, map[string]any{
			"videoId":   video.ID,
			"commentId": created.ID,
			"content":   created.Content,
			"ownerId":   callerID,
		})
	}
	return created, nil
}

func (s *CommentService) Update(ctx context.Context, rawCommentID string, callerID uuid.UUID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("Comment cannot be empty")
	}
	comment, err := s.load(ctx, rawCommentID)
	if err != nil {
		return nil, err
	}
	if err := domain.AssertOwner(comment, callerID, "You can only update your own comments"); err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.UpdateContent(ctx, comment.ID, content)
	if err != nil {
		return nil, domain.NewInternalError("failed to update comment", err)
	}
	return updated, nil
}

func (s *CommentService) Delete(ctx context.Context, rawCommentID string, callerID uuid.UUID) error {
	comment, err := s.load(ctx, rawCommentID)
	if err != nil {
		return err
	}
	if err := domain.AssertOwner(comment, callerID, "You can only delete your own comments"); err != nil {
		return err
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewNotFoundError("Comment not found")
		}
		return domain.NewInternalError("failed to delete comment", err)
	}
	return nil
}

func (s *CommentService) load(ctx context.Context, rawID string) (*domain.Comment, error) {
	id, err := requireID(rawID, "Comment")
	if err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("Comment not found")
		}
		return nil, domain.NewInternalError("failed to load comment", err)
	}
	return comment, nil
}

func (s *CommentService) loadVideo(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("Video not found")
		}
		return nil, domain.NewInternalError("failed to load video", err)
	}
	return video, nil
}
