package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Paginator reads page and limit query parameters
type Paginator struct {
	DefaultSize int
	MaxSize     int
}

func (p Paginator) parse(c *gin.Context) service.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return service.NewPagination(page, limit, p.DefaultSize, p.MaxSize)
}

// newPage wraps results with the count and links to the neighbouring pages
func newPage[T any](c *gin.Context, p service.Pagination, count int64, results []T) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := types.Page[T]{Count: count, Results: results}
	if p.HasNext(count) {
		next := pageURL(c, p.Page+1)
		page.Next = &next
	}
	if p.HasPrevious() {
		previous := pageURL(c, p.Page-1)
		page.Previous = &previous
	}
	return page
}

func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	query := url.Values{}
	for k, v := range c.Request.URL.Query() {
		query[k] = v
	}
	query.Set("page", strconv.Itoa(page))

	return fmt.Sprintf("%s://%s%s?%s", scheme, c.Request.Host, c.Request.URL.Path, query.Encode())
}

// recipesLimit reads the optional recipes_limit parameter, 0 means unlimited
func recipesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, false
	}
	return limit, true
}
