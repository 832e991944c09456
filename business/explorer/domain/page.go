package domain

import (
	"fmt"

	"github.com/evstack/atlas-sub000/internal/apperror"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is the list envelope returned by every collection endpoint.
type Page[T any] struct {
	Data       []T    `json:"data"`
	Page       uint32 `json:"page"`
	Limit      uint32 `json:"limit"`
	Total      uint64 `json:"total"`
	TotalPages uint32 `json:"total_pages"`
}

// HasNext reports whether another page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// PageRequest selects a 1-based page.
type PageRequest struct {
	Page  uint32
	Limit uint32
}

func FirstPage() PageRequest {
	return PageRequest{Page: 1, Limit: DefaultPageLimit}
}

func (r PageRequest) Next() PageRequest {
	return PageRequest{Page: r.Page + 1, Limit: r.Limit}
}

func (r PageRequest) Validate() error {
	if r.Page < 1 {
		return apperror.New(apperror.CodeInvalidPage,
			apperror.WithContext(fmt.Sprintf("page must be >= 1, got %d", r.Page)))
	}
	if r.Limit < 1 || r.Limit > MaxPageLimit {
		return apperror.New(apperror.CodeInvalidPage,
			apperror.WithContext(fmt.Sprintf("limit must be in 1..%d, got %d", MaxPageLimit, r.Limit)))
	}
	return nil
}
