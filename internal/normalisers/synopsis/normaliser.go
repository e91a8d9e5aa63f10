// Package synopsis cleans free-text catalog fields scraped from anime
// databases: markup is removed, entities are decoded and trailing source
// credits are dropped so they do not leak into embeddings or answers.
package synopsis

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for catalog text cleanup.
var (
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	breakTags    = regexp.MustCompile(`(?i)<br\s*/?>|</p>|<p[^>]*>`)
	allTags      = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	multiSpaces  = regexp.MustCompile(`[ \t\r\f\v]+`)

	// Credits such as "(Source: ANN)" or "[Written by MAL Rewrite]" at the end.
	sourceCredit = regexp.MustCompile(`(?i)\s*[\(\[]\s*(source:[^\)\]]*|written by [^\)\]]*)[\)\]]\s*$`)
)

// Clean returns s as plain text. Line breaks are kept, blank lines and
// repeated spaces are removed, and the result is trimmed.
func Clean(s string) string {
	if s == "" {
		return ""
	}

	if strings.ContainsRune(s, '<') {
		s = htmlComments.ReplaceAllString(s, "")
		s = breakTags.ReplaceAllString(s, "\n")
		s = allTags.ReplaceAllString(s, "")
	}
	if strings.ContainsRune(s, '&') {
		s = html.UnescapeString(s)
	}

	for {
		trimmed := sourceCredit.ReplaceAllString(s, "")
		if trimmed == s {
			break
		}
		s = trimmed
	}

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(multiSpaces.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
