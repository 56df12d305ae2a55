package jsonrepair

import (
	"strings"
	"testing"
	"time"
)

func BenchmarkRepair_AlreadyValid(b *testing.B) {
	in := `{"items":[` + strings.Repeat(`{"id":1,"name":"x","ok":true},`, 500) + `{"id":2}]}`
	for i := 0; i < b.N; i++ {
		_ = Repair(in)
	}
}

func BenchmarkRepair_Malformed(b *testing.B) {
	in := "{items: [" + strings.Repeat("{id: 1, name: 'x', ok: True,} ", 500) + "]"
	for i := 0; i < b.N; i++ {
		_ = Repair(in)
	}
}

// Every "/*" starts a lazy scan for "*/" that runs to the end of the input,
// so n unclosed openers cost O(n^2) steps in strip_comments.
func unclosedComments(n int) string {
	return "{" + strings.Repeat("/* ", n)
}

func BenchmarkRepair_UnclosedComments(b *testing.B) {
	e, err := New(Options{MatchTimeout: -1})
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	in := unclosedComments(2000)
	for i := 0; i < b.N; i++ {
		_ = e.Repair(in)
	}
}

func TestRepair_MatchTimeoutIsUnrecoverable(t *testing.T) {
	if testing.Short() {
		t.Skip("slow")
	}
	e, err := New(Options{MatchTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	start := time.Now()
	res := e.Repair(unclosedComments(100000))
	elapsed := time.Since(start)

	if res.Succeeded || res.FixedText != "" {
		t.Fatalf("expected unrecoverable result, got %+v", res)
	}
	if !strings.Contains(res.Reason, "rule "+RuleStripComments) {
		t.Fatalf("reason should name the timed-out rule, got %q", res.Reason)
	}
	if !strings.Contains(strings.ToLower(res.Reason), "timeout") {
		t.Fatalf("reason should mention the timeout, got %q", res.Reason)
	}
	if len(res.Reason) > maxReasonLen {
		t.Fatalf("reason not clipped: %d bytes", len(res.Reason))
	}
	if elapsed > 10*time.Second {
		t.Fatalf("repair took %s despite the match timeout", elapsed)
	}
}
