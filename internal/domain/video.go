package domain

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title       string    `json:"title" gorm:"not null;index"`
	Description string    `json:"description" gorm:"not null"`
	VideoFile   string    `json:"videoFile" gorm:"not null"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views" gorm:"not null;default:0"`
	IsPublished bool      `json:"isPublished" gorm:"not null"`
	OwnerID     uuid.UUID `json:"ownerId" gorm:"type:uuid;not null;index"`
	Owner       *User     `json:"-" gorm:"foreignKey:OwnerID"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (v *Video) OwnedBy() uuid.UUID {
	return v.OwnerID
}

// VideoSortFields maps the sort keys accepted by the API to columns.
var VideoSortFields = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"title":     "title",
	"duration":  "duration",
}

type VideoFilter struct {
	Query         string
	OwnerID       *uuid.UUID
	PublishedOnly bool
	SortColumn    string
	Descending    bool
	Limit         int
	Offset        int
}
