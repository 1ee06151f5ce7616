package request

import (
	"net/http"
	"strconv"
)

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Cursor string
}

const (
	DefaultLimit = 50
	MaxLimit     = 200

	DefaultLogLimit = 500
	MaxLogLimit     = 5000
)

// ParsePagination extracts limit and cursor from query parameters.
func ParsePagination(r *http.Request) Pagination {
	return Pagination{
		Limit:  parseLimit(r, DefaultLimit, MaxLimit),
		Cursor: r.URL.Query().Get("cursor"),
	}
}

// LogPage selects log entries with a sequence number above After.
type LogPage struct {
	After int64
	Limit int
}

// ParseLogPage reads the after and limit query parameters of a log listing.
// An unparsable or negative after starts from the beginning.
func ParseLogPage(r *http.Request) LogPage {
	p := LogPage{Limit: parseLimit(r, DefaultLogLimit, MaxLogLimit)}
	if s := r.URL.Query().Get("after"); s != "" {
		if after, err := strconv.ParseInt(s, 10, 64); err == nil && after > 0 {
			p.After = after
		}
	}
	return p
}

func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}
