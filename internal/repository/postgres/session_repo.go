package postgres

import (
	"context"
	"time"

	"github.com/dom/watchnest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.UserSession) error {
	return translate("create session", r.db.WithContext(ctx).Create(session).Error)
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error) {
	var session domain.UserSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		return nil, translate("get session", err)
	}
	return &session, nil
}

func (r *sessionRepository) Rotate(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt, rotatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.UserSession{}).
		Where("id = ? AND token_hash = ?", id, oldHash).
		Updates(map[string]any{
			"token_hash":      newHash,
			"expires_at":      expiresAt,
			"last_rotated_at": rotatedAt,
		})
	if result.Error != nil {
		return false, translate("rotate session", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *sessionRepository) ListActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.UserSession, error) {
	var sessions []*domain.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, translate("list sessions", err)
	}
	return sessions, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translate("delete session", r.db.WithContext(ctx).Delete(&domain.UserSession{}, "id = ?", id).Error)
}

func (r *sessionRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Delete(&domain.UserSession{}, "id = ? AND user_id = ?", id, userID).Error
	return translate("delete session", err)
}

func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return translate("delete sessions", r.db.WithContext(ctx).Delete(&domain.UserSession{}, "user_id = ?", userID).Error)
}
