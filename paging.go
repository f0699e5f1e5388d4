package parley

// DefaultPageSize is the default number of items per page in find operations.
const DefaultPageSize = 20

// MaxPageSize is the maximum number of items per page in find operations.
const MaxPageSize = 100

// FindOptions represents options passed to all find methods with multiple results.
type FindOptions struct {
	Limit      int
	Offset     int
	Descending bool
}
