package utils

import "strconv"

// Pagination limits shared by every list view
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page describes one page of a list
type Page struct {
	Number     int   `json:"page"`        // 1-based page number
	Size       int   `json:"page_size"`   // Rows per page
	Total      int64 `json:"total"`       // Rows across all pages
	TotalPages int   `json:"total_pages"` // Number of pages
}

// ParsePage reads page and page_size query values, falling back to defaults
func ParsePage(pageParam, sizeParam string) (page, size int) {
	page = 1                // Default page
	size = DefaultPageSize // Default page size
	if v, err := strconv.Atoi(pageParam); err == nil && v > 0 {
		page = v // Set page if valid
	}
	if v, err := strconv.Atoi(sizeParam); err == nil && v > 0 && v <= MaxPageSize {
		size = v // Set page size if valid
	}
	return page, size
}

// NewPage computes page metadata for total rows
func NewPage(number, size int, total int64) Page {
	totalPages := (int(total) + size - 1) / size // Calculate total pages
	if totalPages == 0 {
		totalPages = 1
	}
	// Past the end serves the last page; this also bounds Offset
	if number > totalPages {
		number = totalPages
	}
	if number < 1 {
		number = 1
	}
	return Page{Number: number, Size: size, Total: total, TotalPages: totalPages}
}

// Offset is the number of rows before this page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasPrevious reports whether a previous page exists
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// HasNext reports whether a next page exists
func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

// Previous is the previous page number
func (p Page) Previous() int {
	return p.Number - 1
}

// Next is the next page number
func (p Page) Next() int {
	return p.Number + 1
}
