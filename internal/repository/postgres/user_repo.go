package postgres

import (
	"context"
	"encoding/json"

	"github.com/dom/watchnest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.WatchHistory == nil {
		user.WatchHistory = []uuid.UUID{}
	}
	return translate("create user", r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Omit("password_hash").First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetCredentialsByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate("get user credentials", err)
	}
	return &user, nil
}

// GetCredentialsByLogin matches either the username or the email. Empty
// arguments never match.
func (r *userRepository) GetCredentialsByLogin(ctx context.Context, username, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("(username = ? AND username <> '') OR (email = ? AND email <> '')", username, email).
		First(&user).Error
	if err != nil {
		return nil, translate("get user by login", err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Omit("password_hash").First(&user, "username = ?", username).Error
	if err != nil {
		return nil, translate("get user by username", err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, translate("check user exists", err)
	}
	return count > 0, nil
}

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, translate("check user exists", err)
	}
	return count > 0, nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if result.Error != nil {
		return translate("update password", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("update password", gorm.ErrRecordNotFound)
	}
	return nil
}

// UpdateFields writes the given columns and returns the refreshed user.
func (r *userRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (*domain.User, error) {
	delete(fields, "password_hash")
	delete(fields, "id")

	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, translate("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, translate("update user", gorm.ErrRecordNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) AppendWatchHistory(ctx context.Context, id uuid.UUID, videoID uuid.UUID) error {
	entry, err := json.Marshal([]uuid.UUID{videoID})
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("watch_history",
			gorm.Expr("COALESCE(NULLIF(watch_history, 'null'::jsonb), '[]'::jsonb) || ?::jsonb", string(entry)))
	if result.Error != nil {
		return translate("append watch history", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("append watch history", gorm.ErrRecordNotFound)
	}
	return nil
}
