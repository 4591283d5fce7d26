package transcribe

import (
	"fmt"
	"strconv"
	"strings"
)

// maxPageSpan bounds a single "a-b" range in a page list
const maxPageSpan = 100000

// ParsePages parses a page list such as "1,3,5-7" into 1-indexed page
// numbers, keeping the given order. An empty string selects every page and
// returns nil.
func ParsePages(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		start, err := parsePage(lo)
		if err != nil {
			return nil, err
		}
		if !isRange {
			pages = append(pages, start)
			continue
		}

		end, err := parsePage(hi)
		if err != nil {
			return nil, err
		}
		if end < start || end-start >= maxPageSpan {
			return nil, fmt.Errorf("%w: page range %q", ErrInvalidOption, part)
		}
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: page %q", ErrInvalidOption, s)
	}
	return n, nil
}
