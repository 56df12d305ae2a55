package extract

import (
	"strings"
	"testing"
)

func TestFromHTML_PrefersJSONScript(t *testing.T) {
	page := `<!doctype html>
    <html>
      <head><title>Test Page</title>
        <script type="application/ld+json">{"@type": "Thing", "name": "x"}</script>
      </head>
      <body><pre>{"ignored": true}</pre></body>
    </html>`

	got, ok := FromHTML([]byte(page))
	if !ok {
		t.Fatalf("expected extraction")
	}
	if got != `{"@type": "Thing", "name": "x"}` {
		t.Fatalf("unexpected script content %q", got)
	}
}

func TestFromHTML_PreDecodesEntities(t *testing.T) {
	page := `<html><body><p>Response:</p><pre>{&quot;a&quot;: 1,}</pre></body></html>`
	got, ok := FromHTML([]byte(page))
	if !ok || got != `{"a": 1,}` {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestFromHTML_FallbackToBody(t *testing.T) {
	page := `<html><body><div>{a: 1}<script>var x = 1;</script></div></body></html>`
	got, ok := FromHTML([]byte(page))
	if !ok {
		t.Fatalf("expected extraction")
	}
	if strings.Contains(got, "var x") {
		t.Fatalf("script text must be skipped: %q", got)
	}
	if strings.TrimSpace(got) != "{a: 1}" {
		t.Fatalf("unexpected body text %q", got)
	}
}

func TestFromFence(t *testing.T) {
	in := "Here you go:\n```json\n{\"a\": 1}\n```\nThanks"
	got, ok := FromFence(in)
	if !ok || got != "{\"a\": 1}\n" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
	got, ok = FromFence("```\n{\"a\": 1")
	if !ok || got != "{\"a\": 1" {
		t.Fatalf("unclosed fence: got %q ok=%v", got, ok)
	}
	if _, ok := FromFence(`{"a": 1}`); ok {
		t.Fatalf("no fence must not apply")
	}
}

func TestFromSpan(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{`Result: {"a": 1} done.`, `{"a": 1}`, true},
		{`list [1, 2] end`, `[1, 2]`, true},
		{`partial {"a": 1`, `{"a": 1`, true},
		{`{"a": 1}`, "", false},
		{`no json here`, "", false},
	}
	for _, tc := range cases {
		got, ok := FromSpan(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("FromSpan(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCandidate_Chain(t *testing.T) {
	cases := map[string]string{
		"Sure! ```json\n{name: 'x'}\n``` hope it helps": "{name: 'x'}",
		`<div><pre>Answer: {"a": [1,]}</pre></div>`:     `{"a": [1,]}`,
		`  {"a": 1}  `:                                   `{"a": 1}`,
		`plain words`:                                    `plain words`,
	}
	for in, want := range cases {
		if got := Candidate(in); got != want {
			t.Fatalf("Candidate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLooksLikeHTML(t *testing.T) {
	if !looksLikeHTML("<!doctype html>") || !looksLikeHTML(" <div>") {
		t.Fatalf("expected html detection")
	}
	if looksLikeHTML(`{"a": "<b>"}`) || looksLikeHTML("< 3") {
		t.Fatalf("false positive")
	}
}
