package extract

import "strings"

// Extractor defines one strategy for locating a JSON payload in pasted text.
// Implementations must be deterministic and report ok=false when they do
// not apply, so strategies can be chained.
type Extractor interface {
	Extract(text string) (out string, ok bool)
}

// HTMLExtractor applies FromHTML to text that starts with a tag.
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(text string) (string, bool) {
	if !looksLikeHTML(text) {
		return "", false
	}
	return FromHTML([]byte(text))
}

// FenceExtractor unwraps Markdown code fences.
type FenceExtractor struct{}

func (FenceExtractor) Extract(text string) (string, bool) {
	return FromFence(text)
}

// SpanExtractor trims surrounding prose.
type SpanExtractor struct{}

func (SpanExtractor) Extract(text string) (string, bool) {
	return FromSpan(text)
}

func looksLikeHTML(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") || len(s) < 3 {
		return false
	}
	c := s[1]
	return c == '!' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
