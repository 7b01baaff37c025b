package service

import (
	"strconv"
	"strings"
)

// DefaultPostsPerPage is used when a service is built with a non-positive page size.
const DefaultPostsPerPage = 10

// numPages returns how many pages total items fill; an empty listing still has one page.
func numPages(total int64, perPage int) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// resolvePage turns the raw page query value into a valid page number.
// Non-numeric input selects the first page; a number outside 1..pages selects the last.
func resolvePage(raw string, pages int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	if n < 1 || n > pages {
		return pages
	}
	return n
}
