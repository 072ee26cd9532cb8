package pagination

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

// Page is one page of a list endpoint
type Page[T any] struct {
	Items      []T   `json:"items" validate:"dive"`
	Total      int64 `json:"total" validate:"min=0"`
	Page       int   `json:"page" validate:"min=1"`
	Limit      int   `json:"limit" validate:"min=1"`
	TotalPages int   `json:"total_pages"`
}

// Normalize applies the default page and limit and clamps the limit
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Slice cuts one page out of an already filtered and ordered list
func Slice[T any](all []T, page, limit int) Page[T] {
	page, limit = Normalize(page, limit)

	total := len(all)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	items := make([]T, end-start)
	copy(items, all[start:end])

	return Page[T]{
		Items:      items,
		Total:      int64(total),
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}
