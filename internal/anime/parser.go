package anime

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EpisodeList is the structured result of parsing one episode-list fragment.
// First == Last for single-episode titles.
type EpisodeList struct {
	Slug  string
	First int
	Last  int
}

var watchSlugRe = regexp.MustCompile(`/watch/([^?]+)`)

// Parser adapts Parse to the interface shape pipeline collaborators use.
type Parser struct{}

// Parse implements the parse collaborator contract.
func (Parser) Parse(doc []byte) (EpisodeList, error) {
	return Parse(doc)
}

// Parse extracts the episode range and title slug from an HTML fragment.
// It is a pure function: same input, same output, no network.
//
// The fragment is expected to hold li.ep-item entries whose data-id
// attributes carry episode numbers, with the first entry linking to
// /watch/<slug>?ep=N. Non-numeric data-id values are skipped; a fragment
// yielding no usable numbers or no slug is a *ParseError.
func Parse(doc []byte) (EpisodeList, error) {
	if len(doc) == 0 {
		return EpisodeList{}, &ParseError{Reason: "empty document"}
	}

	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return EpisodeList{}, &ParseError{Reason: "unreadable HTML: " + err.Error()}
	}

	items := root.Find("li.ep-item")
	if items.Length() == 0 {
		return EpisodeList{}, &ParseError{Reason: "no ep-item entries"}
	}

	first, last := 0, 0
	found := false
	items.Each(func(_ int, item *goquery.Selection) {
		raw, ok := item.Attr("data-id")
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return
		}
		if !found {
			first, last = n, n
			found = true
			return
		}
		if n < first {
			first = n
		}
		if n > last {
			last = n
		}
	})
	if !found {
		return EpisodeList{}, &ParseError{Reason: "no numeric data-id values"}
	}

	href, ok := items.First().Find("a").Attr("href")
	if !ok {
		return EpisodeList{}, &ParseError{Reason: "first episode has no link"}
	}
	match := watchSlugRe.FindStringSubmatch(href)
	if match == nil {
		return EpisodeList{}, &ParseError{Reason: "episode link has no /watch/ slug: " + href}
	}

	return EpisodeList{Slug: match[1], First: first, Last: last}, nil
}
