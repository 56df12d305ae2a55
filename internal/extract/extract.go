package extract

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Candidate narrows pasted text down to the part most likely to be the JSON
// payload. It runs the HTML, fence and span extractors in that order, each on
// the previous result, and never fails: text nothing applies to is returned
// trimmed.
func Candidate(text string) string {
	s := strings.TrimSpace(text)
	for _, ex := range defaultChain {
		if out, ok := ex.Extract(s); ok {
			s = strings.TrimSpace(out)
		}
	}
	return s
}

var defaultChain = []Extractor{HTMLExtractor{}, FenceExtractor{}, SpanExtractor{}}

// FromHTML returns the JSON-looking content of an HTML document, preferring
// <script type="application/json"> (or ld+json), then the first <pre>, then
// the first <code>, falling back to the body text.
func FromHTML(input []byte) (string, bool) {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return "", false
	}
	if s := findJSONScript(node); s != nil {
		return rawText(s), true
	}
	for _, tag := range []string{"pre", "code"} {
		if n := findFirst(node, tag); n != nil {
			var b strings.Builder
			collectText(&b, n)
			return b.String(), true
		}
	}
	if body := findFirst(node, "body"); body != nil {
		var b strings.Builder
		collectText(&b, body)
		return b.String(), true
	}
	return "", false
}

func findJSONScript(n *html.Node) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, "script") {
			for _, a := range cur.Attr {
				if strings.EqualFold(a.Key, "type") && strings.Contains(strings.ToLower(a.Val), "json") {
					res = cur
					return
				}
			}
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return res
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

// rawText concatenates the direct text children of a raw-text element.
func rawText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// collectText writes all text below n verbatim. Entities are already decoded
// by the parser, so &quot; in pasted markup comes back as a real quote.
func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			return
		case "br":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

var fenceRe = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n(.*?)```")

// FromFence returns the body of the first Markdown code fence. An opening
// fence without a closing one yields everything after the opening line.
func FromFence(text string) (string, bool) {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	i := strings.Index(text, "```")
	if i < 0 {
		return "", false
	}
	rest := text[i+3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", false
	}
	return rest[nl+1:], true
}

// FromSpan drops prose before the first '{' or '[' and after the last '}'
// or ']'. When no closer follows the opener the tail is kept, since a
// missing closer is something the repair engine can fix.
func FromSpan(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}
	s := text[start:]
	if end := strings.LastIndexAny(s, "}]"); end >= 0 {
		s = s[:end+1]
	}
	if s == text {
		return "", false
	}
	return s, true
}
