// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default listing window, and the "load more" step.
const PageSize = 24

// MaxLimit caps a caller-supplied limit.
const MaxLimit = 96

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	return parsePositive(query.Get(r, "start"), 1)
}

// ParseLimit extracts "limit", defaulting to PageSize and clamping to MaxLimit.
func ParseLimit(r *http.Request) int {
	return min(parsePositive(query.Get(r, "limit"), PageSize), MaxLimit)
}

func parsePositive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Range describes one window over a ranked list.
type Range struct {
	Start     int  `json:"start"` // 1-based index of the first row (0 when empty)
	End       int  `json:"end"`   // 1-based index of the last row (0 when empty)
	Total     int  `json:"total"`
	HasMore   bool `json:"has_more"`
	NextStart int  `json:"next_start,omitempty"`
}

// Window returns rows[start-1 : start-1+limit] clipped to bounds, plus the
// range it covers. start is 1-based.
func Window[T any](rows []T, start, limit int) ([]T, Range) {
	if start < 1 {
		start = 1
	}
	if limit < 1 {
		limit = PageSize
	}
	total := len(rows)
	lo := min(start-1, total)
	hi := min(lo+limit, total)

	r := Range{Total: total, HasMore: hi < total}
	if hi > lo {
		r.Start = lo + 1
		r.End = hi
	}
	if r.HasMore {
		r.NextStart = hi + 1
	}
	return rows[lo:hi], r
}
