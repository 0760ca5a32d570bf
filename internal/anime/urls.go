package anime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var listURLRe = regexp.MustCompile(`/ajax/episode/list/(\d+)\s*$`)

// IDFromURL extracts the numeric identifier from an episode-list URL,
// the inverse of Client.URL. Saved error lists round-trip through this
// for retry runs.
func IDFromURL(raw string) (int, error) {
	match := listURLRe.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return 0, fmt.Errorf("not an episode-list URL: %q", raw)
	}
	id, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("invalid identifier in URL %q: %w", raw, err)
	}
	return id, nil
}
