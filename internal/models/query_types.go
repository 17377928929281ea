// internal/models/query_types.go
package models

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// IdeaQuery filters an owner's ideas. Empty fields do not filter.
type IdeaQuery struct {
	UserID   string
	Category Category
	Status   IdeaStatus
	Page     int
	Limit    int
}

// PlanQuery filters an owner's plans. Empty fields do not filter.
type PlanQuery struct {
	UserID string
	IdeaID string
	Status PlanStatus
	Type   PlanType
	Page   int
	Limit  int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NormalizePage clamps page and limit to their accepted ranges.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// NewPagination computes the page count for total results.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Offset returns the row offset for a normalized page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}
