package services

// PagedList is one page of rows plus totals.
type PagedList[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
}

func newPagedList[T any](data []T, total int64, page, size int) PagedList[T] {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	if data == nil {
		data = []T{}
	}
	return PagedList[T]{Data: data, TotalCount: total, TotalPages: pages, Page: page, Size: size}
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 15
	}
	return page, size
}
