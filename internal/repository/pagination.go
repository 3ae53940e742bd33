package repository

// Paginator is the metadata block returned with every paginated listing.
// Field names follow the API's pagination labels.
type Paginator struct {
	ItemsCount      int64 `json:"items_count"`
	ItemsPerPage    int   `json:"items_per_page"`
	CurrentPage     int   `json:"current_page"`
	NextPage        *int  `json:"next_page"`
	PreviousPage    *int  `json:"previous_page"`
	TotalPages      int   `json:"total_pages"`
	SerialNumber    int   `json:"serial_number"`
	HasPreviousPage bool  `json:"has_previous_page"`
	HasNextPage     bool  `json:"has_next_page"`
}

// Page is one page of results plus its paginator.
type Page[T any] struct {
	Data      []T       `json:"data"`
	Paginator Paginator `json:"paginator"`
}

// NewPaginator computes pagination metadata for a total row count.
// Invariants: TotalPages == ceil(ItemsCount/ItemsPerPage) and
// HasNextPage == (CurrentPage < TotalPages). SerialNumber is the 1-based
// position of the page's first item.
func NewPaginator(total int64, perPage, page int) Paginator {
	if perPage < 1 {
		perPage = DefaultLimit
	}
	if page < 1 {
		page = 1
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	p := Paginator{
		ItemsCount:      total,
		ItemsPerPage:    perPage,
		CurrentPage:     page,
		TotalPages:      totalPages,
		SerialNumber:    (page-1)*perPage + 1,
		HasPreviousPage: page > 1,
		HasNextPage:     page < totalPages,
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPreviousPage {
		prev := page - 1
		p.PreviousPage = &prev
	}
	return p
}
