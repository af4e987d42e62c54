package services

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is one slice of a longer listing.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// normalizePage clamps page and size and returns them with the matching offset.
func normalizePage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, (page - 1) * size
}
