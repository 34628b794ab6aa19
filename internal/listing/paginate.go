package listing

// Page is one page of a listing plus the unpaged total.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Window returns items[offset:offset+limit], clamped to the slice bounds.
func Window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Paginate slices a 1-based page out of items.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return Page[T]{
		Items:    Window(items, (page-1)*pageSize, pageSize),
		Total:    len(items),
		Page:     page,
		PageSize: pageSize,
	}
}
