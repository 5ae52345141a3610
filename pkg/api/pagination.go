// Package api holds the HTTP envelope types shared by list endpoints.
package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest carries the page and pageSize pair every list endpoint accepts
type PageRequest struct {
	Page     int64
	PageSize int64
}

// ParsePagination reads page and pageSize from the query string, falling
// back to defaults on missing or unparsable values and clamping pageSize
// to the maximum
func ParsePagination(c *gin.Context) PageRequest {
	return PageRequest{
		Page:     parseQueryInt(c, "page", defaultPage, 0),
		PageSize: parseQueryInt(c, "pageSize", defaultPageSize, maxPageSize),
	}
}

// parseQueryInt parses one positive integer query parameter. A max of zero
// means unclamped.
func parseQueryInt(c *gin.Context, key string, fallback, max int64) int64 {
	value, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil || value < 1 {
		return fallback
	}
	if max > 0 && value > max {
		return max
	}
	return value
}

// GetOffset converts the page number into a skip count
func (p PageRequest) GetOffset() int64 {
	return (p.Page - 1) * p.PageSize
}

// GetLimit returns the page size
func (p PageRequest) GetLimit() int64 {
	return p.PageSize
}

// PageResponse is the envelope list endpoints respond with
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int64 `json:"page"`
	PageSize   int64 `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPageResponse wraps one page of data with its paging metadata. An empty
// result still reports one total page so clients can stop iterating.
func NewPageResponse[T any](data []T, page, pageSize, totalItems int64) PageResponse[T] {
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
