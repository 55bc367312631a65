package service

import (
	"github.com/dom/watchnest/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// requireID parses a path or body id. what names the resource in messages,
// e.g. "Video".
func requireID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(what + " ID is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, domain.NewValidationError("Invalid " + what + " ID")
	}
	return id, nil
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func newPaginated[T any](items []T, p Page, total int64) *Paginated[T] {
	if items == nil {
		items = []T{}
	}
	pages := (total + int64(p.Limit) - 1) / int64(p.Limit)
	return &Paginated[T]{Items: items, Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
