package searchindex

import (
	"regexp"
	"strings"
)

// termHighlighter marks whole-word, case-insensitive occurrences of the
// matched query terms.
type termHighlighter struct {
	re *regexp.Regexp
}

func newTermHighlighter(terms []string) termHighlighter {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	if len(quoted) == 0 {
		return termHighlighter{}
	}
	return termHighlighter{
		re: regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`),
	}
}

func (h termHighlighter) Highlight(text string) string {
	if h.re == nil {
		return text
	}
	return h.re.ReplaceAllString(text, `<span class="hi">$1</span>`)
}

func (h termHighlighter) FirstMatch(text string) int {
	if h.re == nil {
		return 0
	}
	if loc := h.re.FindStringIndex(text); loc != nil {
		return loc[0]
	}
	return 0
}
