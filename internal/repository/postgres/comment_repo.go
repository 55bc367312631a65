package postgres

import (
	"context"

	"github.com/dom/watchnest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *commentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	return translate("create comment", r.db.WithContext(ctx).Omit("Owner").Create(comment).Error)
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.WithContext(ctx).
		Preload("Owner", ownerSummary).
		First(&comment, "id = ?", id).Error
	if err != nil {
		return nil, translate("get comment", err)
	}
	return &comment, nil
}

// ListByVideo returns comments newest first.
func (r *commentRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, limit, offset int) ([]*domain.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Comment{}).Where("video_id = ?", videoID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count comments", err)
	}

	var comments []*domain.Comment
	err := query.
		Preload("Owner", ownerSummary).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, translate("list comments", err)
	}
	return comments, total, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*domain.Comment, error) {
	result := r.db.WithContext(ctx).Model(&domain.Comment{}).Where("id = ?", id).Update("content", content)
	if result.Error != nil {
		return nil, translate("update comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, translate("update comment", gorm.ErrRecordNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Comment{}, "id = ?", id)
	if result.Error != nil {
		return translate("delete comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("delete comment", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *commentRepository) DeleteByVideo(ctx context.Context, videoID uuid.UUID) error {
	return translate("delete video comments", r.db.WithContext(ctx).Delete(&domain.Comment{}, "video_id = ?", videoID).Error)
}
