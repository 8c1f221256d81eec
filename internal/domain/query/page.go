package query

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

type Sort struct {
	Field string
	Desc  bool
}

// Page is the skip/limit/sort window passed to FindMany.
type Page struct {
	Skip  int64
	Limit int64
	Sort  []Sort
}

// FromPageNumber converts the 1-based page/per_page pair used by the API.
// Out-of-range values fall back to page 1 and DefaultPerPage.
func FromPageNumber(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{
		Skip:  int64(page-1) * int64(perPage),
		Limit: int64(perPage),
	}
}

// WithSort returns p ordered by the given fields.
func (p Page) WithSort(s ...Sort) Page {
	p.Sort = append([]Sort(nil), s...)
	return p
}

// TotalPages mirrors ceil(total / perPage).
func TotalPages(total int64, perPage int) int64 {
	if perPage <= 0 {
		return 0
	}
	return (total + int64(perPage) - 1) / int64(perPage)
}
