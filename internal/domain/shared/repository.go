package shared

// Filter carries the list-query options common to every tenant-scoped
// repository. Bounded contexts that need richer predicates embed it in
// their own filter type.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// Paginated reports whether the filter requests a bounded page
func (f Filter) Paginated() bool {
	return f.Page > 0 && f.PageSize > 0
}

// Offset returns the row offset implied by Page and PageSize
func (f Filter) Offset() int {
	if !f.Paginated() {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
