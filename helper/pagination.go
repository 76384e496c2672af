package helper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jemaltech/app2automate/models"
)

const (
	headerTotalCount = "X-Total-Count"
	headerLink       = "Link"

	// MaxPageOffset bounds page*size. It matches the default result window
	// of the search index and keeps the offset far from overflow.
	MaxPageOffset = 1000000
)

// ParsePageRequest binds page, size, sort and eagerload from the query
// string. Page is zero-based; size falls back to DefaultPageSize and is
// capped at MaxPageSize. A page starting beyond MaxPageOffset is an error.
func (u *HTTPHelper) ParsePageRequest(c *gin.Context) (models.PageRequest, error) {
	var page models.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, err
	}

	if page.Page < 0 {
		page.Page = 0
	}
	if page.Size <= 0 {
		page.Size = u.DefaultPageSize
	}
	if u.MaxPageSize > 0 && page.Size > u.MaxPageSize {
		page.Size = u.MaxPageSize
	}
	if page.Size > 0 && page.Page > MaxPageOffset/page.Size {
		return page, fmt.Errorf("page %d out of range: offset may not exceed %d", page.Page, MaxPageOffset)
	}
	return page, nil
}

// get pagination URL
func (u *HTTPHelper) GetPagingUrl(c *gin.Context, page, size int) string {
	r := c.Request
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	query := r.URL.Query()
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	return scheme + "://" + r.Host + r.URL.Path + "?" + query.Encode()
}

// SetPaginationHeaders writes X-Total-Count and an RFC 5988 Link header with
// next, prev, last and first relations.
func (u *HTTPHelper) SetPaginationHeaders(c *gin.Context, page, size int, total int64) {
	c.Header(headerTotalCount, strconv.FormatInt(total, 10))

	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}

	links := make([]string, 0, 4)
	if page+1 < totalPages {
		links = append(links, u.link(c, page+1, size, "next"))
	}
	if page > 0 {
		links = append(links, u.link(c, page-1, size, "prev"))
	}
	lastPage := 0
	if totalPages > 0 {
		lastPage = totalPages - 1
	}
	links = append(links, u.link(c, lastPage, size, "last"))
	links = append(links, u.link(c, 0, size, "first"))

	c.Header(headerLink, strings.Join(links, ","))
}

func (u *HTTPHelper) link(c *gin.Context, page, size int, rel string) string {
	return fmt.Sprintf(`<%s>; rel="%s"`, u.GetPagingUrl(c, page, size), rel)
}
