package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID           uuid.UUID                      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username     string                         `json:"username" gorm:"uniqueIndex;not null"`
	Email        string                         `json:"email" gorm:"uniqueIndex;not null"`
	FullName     string                         `json:"fullName" gorm:"index;not null"`
	PasswordHash string                         `json:"-" gorm:"not null"`
	Avatar       string                         `json:"avatar"`
	CoverImage   string                         `json:"coverImage"`
	WatchHistory datatypes.JSONSlice[uuid.UUID] `json:"watchHistory" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt    time.Time                      `json:"createdAt"`
	UpdatedAt    time.Time                      `json:"updatedAt"`
}

// UserSession is one logged-in device. ID doubles as the refresh token's
// session claim; TokenHash always holds the digest of the newest refresh token.
type UserSession struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID        uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	TokenHash     string    `json:"-" gorm:"not null"`
	UserAgent     string    `json:"userAgent" gorm:"size:255"`
	ExpiresAt     time.Time `json:"expiresAt" gorm:"not null"`
	LastRotatedAt time.Time `json:"lastRotatedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (s *UserSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Caller is the identity resolved from an access token for one request.
type Caller struct {
	User      *User
	SessionID uuid.UUID
}

func (c *Caller) UserID() uuid.UUID {
	if c == nil || c.User == nil {
		return uuid.Nil
	}
	return c.User.ID
}
