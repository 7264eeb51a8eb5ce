// Package manuscript splits already-extracted manuscript text into pages.
// File-format extraction (PDF/DOCX) happens upstream; this package only sees
// plain text.
package manuscript

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"storybook-backend/internal/apperrors"
)

// ParsedPage is one page of the manuscript before it becomes a Page row.
type ParsedPage struct {
	PageNumber       int
	StoryText        string
	SceneDescription string
}

var (
	pageMarker = regexp.MustCompile(`(?mi)^\s*(?:page|seite)\s+(\d+)\s*[:.]?\s*$`)
	sceneLine  = regexp.MustCompile(`(?mi)^\s*(?:scene|illustration)\s*:\s*(.+)$`)
	sanitizer  = bluemonday.StrictPolicy()
)

// Parse splits manuscript text into pages. Explicit "Page N" markers win;
// otherwise pages are split on blank-line-separated blocks or "---" rules. A
// line of the form "Scene: ..." inside a page becomes its scene description.
func Parse(text string) ([]ParsedPage, error) {
	cleaned := sanitize(text)
	if strings.TrimSpace(cleaned) == "" {
		return nil, apperrors.NewValidationError("text", "manuscript text must not be empty")
	}

	blocks := splitBlocks(cleaned)
	if len(blocks) == 0 {
		return nil, apperrors.NewValidationError("text", "manuscript contains no pages")
	}

	pages := make([]ParsedPage, 0, len(blocks))
	for i, block := range blocks {
		page := ParsedPage{PageNumber: i + 1}

		var storyLines []string
		for _, line := range strings.Split(block, "\n") {
			if m := sceneLine.FindStringSubmatch(line); m != nil {
				if page.SceneDescription != "" {
					page.SceneDescription += " "
				}
				page.SceneDescription += strings.TrimSpace(m[1])
				continue
			}
			storyLines = append(storyLines, line)
		}
		page.StoryText = strings.TrimSpace(strings.Join(storyLines, "\n"))

		if page.StoryText == "" && page.SceneDescription == "" {
			continue
		}
		page.PageNumber = len(pages) + 1
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		return nil, apperrors.NewValidationError("text", "manuscript contains no pages")
	}
	return pages, nil
}

// Sanitize strips any markup from customer-submitted text.
func Sanitize(text string) string {
	return sanitize(text)
}

func sanitize(text string) string {
	out := sanitizer.Sanitize(text)
	// bluemonday escapes a handful of entities in plain text; undo the
	// common ones so story text round-trips.
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&#34;", `"`,
		"&#39;", "'",
	)
	return replacer.Replace(out)
}

func splitBlocks(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	if pageMarker.MatchString(normalized) {
		parts := pageMarker.Split(normalized, -1)
		// Text before the first marker is front matter, not a page.
		if len(parts) > 0 {
			parts = parts[1:]
		}
		return trimNonEmpty(parts)
	}

	hr := regexp.MustCompile(`(?m)^\s*-{3,}\s*$`)
	if hr.MatchString(normalized) {
		return trimNonEmpty(hr.Split(normalized, -1))
	}

	return trimNonEmpty(regexp.MustCompile(`\n\s*\n`).Split(normalized, -1))
}

func trimNonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}
