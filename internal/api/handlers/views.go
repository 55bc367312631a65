package handlers

import (
	"time"

	"github.com/dom/watchnest/internal/domain"
	"github.com/dom/watchnest/internal/service"
)

// OwnerResponse is the single public shape of a user embedded in other
// resources.
type OwnerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

type VideoResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	VideoFile   string         `json:"videoFile"`
	Thumbnail   string         `json:"thumbnail"`
	Duration    float64        `json:"duration"`
	Views       int64          `json:"views"`
	IsPublished bool           `json:"isPublished"`
	Owner       *OwnerResponse `json:"owner"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type CommentResponse struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	VideoID   string         `json:"videoId"`
	Owner     *OwnerResponse `json:"owner"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type SessionResponse struct {
	ID            string    `json:"id"`
	UserAgent     string    `json:"userAgent"`
	Current       bool      `json:"current"`
	CreatedAt     time.Time `json:"createdAt"`
	LastRotatedAt time.Time `json:"lastRotatedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func toOwner(u *domain.User) *OwnerResponse {
	if u == nil {
		return nil
	}
	return &OwnerResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

func toOwners(users []*domain.User) []*OwnerResponse {
	out := make([]*OwnerResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toOwner(u))
	}
	return out
}

func toVideo(v *domain.Video) *VideoResponse {
	owner := toOwner(v.Owner)
	if owner == nil {
		owner = &OwnerResponse{ID: v.OwnerID.String()}
	}
	return &VideoResponse{
		ID:          v.ID.String(),
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		Owner:       owner,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func toVideos(videos []*domain.Video) []*VideoResponse {
	out := make([]*VideoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, toVideo(v))
	}
	return out
}

func toComment(c *domain.Comment) *CommentResponse {
	owner := toOwner(c.Owner)
	if owner == nil {
		owner = &OwnerResponse{ID: c.OwnerID.String()}
	}
	return &CommentResponse{
		ID:        c.ID.String(),
		Content:   c.Content,
		VideoID:   c.VideoID.String(),
		Owner:     owner,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toPage[S any, T any](p *service.Paginated[S], convert func(S) T) *PageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, convert(item))
	}
	return &PageResponse[T]{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}
