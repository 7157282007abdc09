package utils

import (
	"fmt"
	"strings"
	"time"
)

// MaxPageSize caps any requested page size.
const MaxPageSize = 500

// DefaultPageSize is served when no pageSize parameter is supplied.
const DefaultPageSize = 50

// PageWindow turns a 1-based page number and a requested page size into a
// LIMIT/OFFSET pair. The size is clamped to [1, MaxPageSize] and the page
// to >= 1.
func PageWindow(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}

// DayStart parses a "2006-01-02" date and returns local midnight of that
// day. DayEnd returns the last representable instant of the day, so a
// date-only filter covers the full calendar day inclusively.
func DayStart(date string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return d, nil
}

func DayEnd(date string) (time.Time, error) {
	d, err := DayStart(date)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Microsecond), nil
}

// Rebind rewrites "?" placeholders into "$1..$n" form. The primary store
// runs the same SQL against SQLite and PostgreSQL; lib/pq only accepts the
// numbered form.
func Rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
