package utils

import (
	"net/url"
	"strconv"
)

// LimitOffset is a parsed ?limit=&offset= pair. Paged is false when the
// client sent no usable limit, in which case the full list is returned.
type LimitOffset struct {
	Limit  int
	Offset int
	Paged  bool
}

// ParseLimitOffset reads limit/offset query values. Limits above
// MAX_PAGE_LIMIT are clamped; invalid values fall back to "not paged".
func ParseLimitOffset(limit, offset string) LimitOffset {
	lo := LimitOffset{Offset: parseNonNegative(offset, 0)}
	if v, err := strconv.Atoi(limit); err == nil && v > 0 {
		lo.Paged = true
		lo.Limit = v
		if lo.Limit > MAX_PAGE_LIMIT {
			lo.Limit = MAX_PAGE_LIMIT
		}
	}
	return lo
}

// PageLinks builds the next/previous URLs for a page of a count-sized list.
func PageLinks(u url.URL, lo LimitOffset, count int64) (next, previous *string) {
	if int64(lo.Offset+lo.Limit) < count {
		s := withOffset(u, lo.Limit, lo.Offset+lo.Limit)
		next = &s
	}
	if lo.Offset > 0 {
		prev := lo.Offset - lo.Limit
		if prev < 0 {
			prev = 0
		}
		s := withOffset(u, lo.Limit, prev)
		previous = &s
	}
	return next, previous
}

func withOffset(u url.URL, limit, offset int) string {
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func parseNonNegative(value string, defaultVal int) int {
	if v, err := strconv.Atoi(value); err == nil && v >= 0 {
		return v
	}
	return defaultVal
}
