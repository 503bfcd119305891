package hansard

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/openparl/hansard/internal/domain"
)

// extractRunes is the target length of a search result extract.
const extractRunes = 400

// stripTags reduces stored markup to plain text, collapsing whitespace.
// Tag boundaries become spaces so adjacent paragraphs do not run together.
func stripTags(body string) string {
	if !strings.Contains(body, "<") {
		return strings.Join(strings.Fields(body), " ")
	}
	spaced := strings.ReplaceAll(body, "<", " <")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(spaced))
	if err != nil {
		return strings.Join(strings.Fields(body), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// prepareExtract builds the highlighted extract for a search result: plain
// text, windowed around the first query term, terms marked up.
func prepareExtract(hl domain.Highlighter, body string) string {
	text := stripTags(body)
	if hl == nil {
		window, _, _ := textWindow(text, 0)
		return window
	}
	window, cutFront, cutBack := textWindow(text, hl.FirstMatch(text))
	window = hl.Highlight(window)
	if cutFront {
		window = "..." + window
	}
	if cutBack {
		window += "..."
	}
	return window
}

// textWindow slices up to extractRunes runes of text around byte offset,
// snapping the cut edges to word boundaries.
func textWindow(text string, offset int) (window string, cutFront, cutBack bool) {
	runes := []rune(text)
	if len(runes) <= extractRunes {
		return text, false, false
	}

	if offset > len(text) {
		offset = len(text)
	}
	at := utf8.RuneCountInString(text[:offset])

	start := at - extractRunes/4
	if start < 0 {
		start = 0
	}
	if start > len(runes)-extractRunes {
		start = len(runes) - extractRunes
	}
	end := start + extractRunes

	// Snap to whitespace so the window never splits a word.
	for start > 0 && runes[start] != ' ' {
		start--
	}
	for end < len(runes) && runes[end] != ' ' {
		end++
	}

	return strings.TrimSpace(string(runes[start:end])), start > 0, end < len(runes)
}
