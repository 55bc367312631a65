package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewLogger returns a gorm logger that prints statements with their
// placeholders intact. Bound values carry password hashes and token digests
// and never reach the log.
func NewLogger(w logger.Writer, level logger.LogLevel) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	})
}

func NewConnection(databaseURL string, logLevel logger.LogLevel, w logger.Writer) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         NewLogger(w, logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table the repositories use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.UserSession{},
		&domain.Video{},
		&domain.Comment{},
		&domain.Subscription{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Video:        NewVideoRepository(db),
		Comment:      NewCommentRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}

// translate maps gorm errors onto the domain kinds the services check for.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// ownerSummary preloads only the public profile columns of a user.
func ownerSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "full_name", "avatar")
}
