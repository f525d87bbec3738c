package models

import (
	"math"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

type SortField string

const (
	SortByNone     SortField = ""
	SortByTitle    SortField = "title"
	SortByPriority SortField = "priority"
	SortByDueDate  SortField = "dueDate"
	SortByStatus   SortField = "status"
	SortByUserID   SortField = "userId"
)

// ParseSortField returns SortByNone for anything it does not recognize.
func ParseSortField(s string) SortField {
	switch f := SortField(s); f {
	case SortByTitle, SortByPriority, SortByDueDate, SortByStatus, SortByUserID:
		return f
	default:
		return SortByNone
	}
}

// TaskQuery describes one page of the task listing.
// It is shared by the service, storage and delivery layers.
type TaskQuery struct {
	Page       int
	PageSize   int
	SortBy     SortField
	Descending bool
	// Search is matched as a case-sensitive substring of the title or
	// description. Empty means no filter.
	Search string
}

func NewTaskQuery(page, pageSize int, sortBy, sortDir, search string) TaskQuery {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if strings.TrimSpace(search) == "" {
		search = ""
	}

	return TaskQuery{
		Page:       page,
		PageSize:   pageSize,
		SortBy:     ParseSortField(sortBy),
		Descending: strings.EqualFold(sortDir, "desc"),
		Search:     search,
	}
}

// OutOfRange reports whether the page can never contain rows.
func (q TaskQuery) OutOfRange() bool {
	if q.Page < 1 || q.PageSize < 1 {
		return true
	}
	return q.Page-1 > math.MaxInt32/q.PageSize
}

func (q TaskQuery) Offset() int {
	if q.OutOfRange() {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

func (q TaskQuery) Limit() int {
	return q.PageSize
}

// Matches reports whether the task passes the search filter.
func (q TaskQuery) Matches(t *Task) bool {
	if q.Search == "" {
		return true
	}
	if strings.Contains(t.Title, q.Search) {
		return true
	}
	return t.Description != nil && strings.Contains(*t.Description, q.Search)
}
