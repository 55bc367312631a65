package postgres

import (
	"context"
	"strings"

	"github.com/dom/watchnest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type videoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *videoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *domain.Video) error {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(video).Error; err != nil {
		return translate("create video", err)
	}
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	var video domain.Video
	err := r.db.WithContext(ctx).
		Preload("Owner", ownerSummary).
		First(&video, "id = ?", id).Error
	if err != nil {
		return nil, translate("get video", err)
	}
	return &video, nil
}

// GetByIDs returns the videos that still exist, in no particular order.
func (r *videoRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Video, error) {
	var videos []*domain.Video
	if len(ids) == 0 {
		return videos, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Owner", ownerSummary).
		Where("id IN ?", ids).
		Find(&videos).Error
	if err != nil {
		return nil, translate("get videos", err)
	}
	return videos, nil
}

func (r *videoRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Video{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, translate("check video exists", err)
	}
	return count > 0, nil
}

func (r *videoRepository) List(ctx context.Context, filter domain.VideoFilter) ([]*domain.Video, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Video{})

	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count videos", err)
	}

	column := filter.SortColumn
	if column == "" {
		column = "created_at"
	}

	var videos []*domain.Video
	err := query.
		Preload("Owner", ownerSummary).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.Descending}).
		Order("id").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&videos).Error
	if err != nil {
		return nil, 0, translate("list videos", err)
	}
	return videos, total, nil
}

// UpdateFields never writes owner_id.
func (r *videoRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.Video, error) {
	delete(fields, "owner_id")
	delete(fields, "id")

	result := r.db.WithContext(ctx).Model(&domain.Video{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, translate("update video", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, translate("update video", gorm.ErrRecordNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *videoRepository) IncrementViews(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	result := r.db.WithContext(ctx).Model(&domain.Video{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if result.Error != nil {
		return nil, translate("increment views", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, translate("increment views", gorm.ErrRecordNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *videoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Video{}, "id = ?", id)
	if result.Error != nil {
		return translate("delete video", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("delete video", gorm.ErrRecordNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
