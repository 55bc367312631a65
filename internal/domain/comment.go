package domain

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	VideoID   uuid.UUID `json:"videoId" gorm:"type:uuid;not null;index"`
	OwnerID   uuid.UUID `json:"ownerId" gorm:"type:uuid;not null;index"`
	Owner     *User     `json:"-" gorm:"foreignKey:OwnerID"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Comment) OwnedBy() uuid.UUID {
	return c.OwnerID
}
