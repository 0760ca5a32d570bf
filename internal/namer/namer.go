// Package namer turns site slugs into human-readable query names.
package namer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var trailingIDRe = regexp.MustCompile(`-\d+$`)

var titleCaser = cases.Title(language.English)

// Clean derives a metadata-lookup query name from a raw site slug.
// The site appends its numeric identifier to the slug
// ("example-show-12345"); that suffix is stripped and the remaining
// dashes become spaces. Clean is deterministic and pure.
func Clean(slug string) string {
	name := trailingIDRe.ReplaceAllString(strings.TrimSpace(slug), "")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

// FallbackTitle produces the display title used when metadata lookup
// fails or finds no match: the cleaned slug in English title case.
func FallbackTitle(slug string) string {
	clean := Clean(slug)
	if clean == "" {
		return "Unknown Title"
	}
	return titleCaser.String(clean)
}
