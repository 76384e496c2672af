package models

// Page is one slice of a larger result set plus what is needed to build
// pagination headers.
type Page[T any] struct {
	Content []T
	Total   int64
	Page    int
	Size    int
}

// TotalPages reports how many pages of Size the result set spans.
func (p *Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}
