package catalog

// DefaultPageSize is the number of entries per page.
const DefaultPageSize = 12

// Page is one fixed-size slice of a filtered catalog.
type Page struct {
	Items       []Entry `json:"items"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
	TotalItems  int     `json:"total_items"`
	PageSize    int     `json:"page_size"`
}

// HasNext reports whether a page follows this one.
func (p Page) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

// HasPrev reports whether a page precedes this one.
func (p Page) HasPrev() bool {
	return p.CurrentPage > 1
}

// TotalPages returns max(1, ceil(count/pageSize)).
func TotalPages(count, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage moves requested into [1, totalPages].
func ClampPage(requested, totalPages int) int {
	if requested < 1 {
		return 1
	}
	if requested > totalPages {
		return totalPages
	}
	return requested
}

// Paginate slices filtered into the requested page.
// Out-of-range pages are clamped; a pageSize below 1 uses DefaultPageSize.
func Paginate(filtered []Entry, pageSize, requestedPage int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(filtered), pageSize)
	current := ClampPage(requestedPage, total)

	start := (current - 1) * pageSize
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	items := make([]Entry, end-start)
	copy(items, filtered[start:end])

	return Page{
		Items:       items,
		CurrentPage: current,
		TotalPages:  total,
		TotalItems:  len(filtered),
		PageSize:    pageSize,
	}
}
