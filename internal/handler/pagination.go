package handler

import (
	"net/http"
	"strconv"
)

// Pagination describes one page of a 1-based page sequence.
type Pagination struct {
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
}

// HasPrev reports whether an earlier page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a later page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage returns the previous page number.
func (p Pagination) PrevPage() int { return p.Page - 1 }

// NextPage returns the next page number.
func (p Pagination) NextPage() int { return p.Page + 1 }

// Offset returns the item offset of the page start.
func (p Pagination) Offset() int64 { return int64(p.Page-1) * int64(p.PageSize) }

// paginate reads the page query parameter and clamps it into the valid
// range. Malformed or out-of-range values never 404; they resolve to the
// nearest valid page. An empty result set still has one (empty) page.
func paginate(r *http.Request, pageSize int, totalItems int64) Pagination {
	totalPages := int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
