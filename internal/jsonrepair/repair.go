// Package jsonrepair coaxes malformed JSON-like text into valid JSON with an
// ordered set of regex rewrites, then re-validates by parsing.
//
// The engine is heuristic on purpose. It has no grammar: quote conversion and
// bare-value quoting can corrupt string contents that contain quotes or
// delimiter-like text, and bracket balancing only compares counts so it may
// add a bracket in the wrong place for nested input. Callers that need a
// structural repair should not use this package.
package jsonrepair

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Version identifies the rule semantics. Bump it whenever a rule changes
// output so cached results keyed by Fingerprint are invalidated.
const Version = "1.0.0"

// NoChangesNeeded is the sole change note for input that already parses.
const NoChangesNeeded = "No changes needed"

const (
	defaultIndent       = "  "
	defaultMatchTimeout = 2 * time.Second
)

// Result is the outcome of one Repair call. It is either a success carrying
// valid JSON text, or unrecoverable with an empty FixedText.
type Result struct {
	FixedText    string   `json:"fixed_text"`
	AppliedRules []string `json:"applied_rules"`
	Changes      []string `json:"changes"`
	Succeeded    bool     `json:"succeeded"`
	AlreadyValid bool     `json:"already_valid"`
	// Reason explains an unrecoverable result. Empty on success.
	Reason string `json:"reason,omitempty"`
}

// Options tunes an Engine. The zero value gives the default behavior.
type Options struct {
	// Indent is the per-level indent of the pretty-printed output. Two spaces when empty.
	Indent string
	// MatchTimeout bounds each regex evaluation. Defaults to 2s; negative disables.
	MatchTimeout time.Duration
	// MaxInputBytes rejects larger inputs as unrecoverable. Zero means unlimited.
	MaxInputBytes int
	// Disabled lists rule names to skip. Unknown names make New fail.
	Disabled []string
}

// Engine runs a fixed rule pipeline. It holds no mutable state after New and
// is safe for concurrent use.
type Engine struct {
	rules       *RuleSet
	indent      string
	maxInput    int
	fingerprint string
}

// New compiles the default rules with the given options.
func New(opts Options) (*Engine, error) {
	timeout := opts.MatchTimeout
	switch {
	case timeout == 0:
		timeout = defaultMatchTimeout
	case timeout < 0:
		timeout = 0
	}
	rules, err := DefaultRules(timeout)
	if err != nil {
		return nil, fmt.Errorf("jsonrepair: %w", err)
	}
	if len(opts.Disabled) > 0 {
		if rules, err = rules.Without(opts.Disabled...); err != nil {
			return nil, fmt.Errorf("jsonrepair: %w", err)
		}
	}
	return newEngine(rules, opts)
}

func newEngine(rules *RuleSet, opts Options) (*Engine, error) {
	if opts.MaxInputBytes < 0 {
		return nil, fmt.Errorf("jsonrepair: negative MaxInputBytes %d", opts.MaxInputBytes)
	}
	indent := opts.Indent
	if indent == "" {
		indent = defaultIndent
	}
	if strings.Trim(indent, " \t") != "" {
		return nil, fmt.Errorf("jsonrepair: indent must be spaces or tabs, got %q", indent)
	}
	e := &Engine{rules: rules, indent: indent, maxInput: opts.MaxInputBytes}
	e.fingerprint = fingerprint(e)
	return e, nil
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Repair runs the default engine. See (*Engine).Repair.
func Repair(input string) Result {
	defaultOnce.Do(func() {
		e, err := New(Options{})
		if err != nil {
			// Patterns are constants; failing here is a programming error.
			panic(err)
		}
		defaultEngine = e
	})
	return defaultEngine.Repair(input)
}

// Rules returns the enabled rules in execution order.
func (e *Engine) Rules() []RuleMeta {
	return e.rules.Catalog()
}

// Fingerprint identifies version, options and enabled rules. Two engines
// with the same fingerprint produce identical results for any input.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

// Repair returns valid JSON for input on a best-effort basis. It never
// panics and never returns an error; anything that goes wrong inside the
// pipeline becomes an unrecoverable Result.
func (e *Engine) Repair(input string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Sprintf("internal error: %v", r))
		}
	}()

	if e.maxInput > 0 && len(input) > e.maxInput {
		return failure(fmt.Sprintf("input is %d bytes, limit is %d", len(input), e.maxInput))
	}

	if out, err := e.canonical(input); err == nil {
		return Result{
			FixedText:    out,
			AppliedRules: []string{},
			Changes:      []string{NoChangesNeeded},
			Succeeded:    true,
			AlreadyValid: true,
		}
	}

	text := input
	applied := make([]string, 0, e.rules.Len())
	changes := make([]string, 0, e.rules.Len())
	for _, r := range e.rules.each() {
		next, err := r.Rewrite(text)
		if err != nil {
			return failure(clip(fmt.Sprintf("rule %s: %v", r.Name, err)))
		}
		if next != text {
			applied = append(applied, r.Name)
			changes = append(changes, r.Description)
			text = next
		}
	}

	out, err := e.canonical(text)
	if err != nil {
		fail := failure("still invalid after repair: " + err.Error())
		fail.AppliedRules = applied
		fail.Changes = changes
		return fail
	}
	return Result{
		FixedText:    out,
		AppliedRules: applied,
		Changes:      changes,
		Succeeded:    true,
	}
}

// canonical parses text and pretty-prints it. Key order, duplicate keys and
// number spelling are kept exactly as written.
func (e *Engine) canonical(text string) (string, error) {
	src := []byte(text)
	if !json.Valid(src) {
		// Decode to get a positioned error message.
		var v any
		if err := json.Unmarshal(src, &v); err != nil {
			return "", err
		}
		return "", fmt.Errorf("invalid JSON")
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, src); err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", e.indent); err != nil {
		return "", err
	}
	return out.String(), nil
}

// maxReasonLen caps Reason. regexp2 timeout errors quote the whole input.
const maxReasonLen = 256

func clip(s string) string {
	if len(s) <= maxReasonLen {
		return s
	}
	cut := maxReasonLen - len("...")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func failure(reason string) Result {
	return Result{
		AppliedRules: []string{},
		Changes:      []string{},
		Reason:       reason,
	}
}

func fingerprint(e *Engine) string {
	h := sha256.New()
	fmt.Fprintf(h, "v=%s\nindent=%q\nmax=%d\n", Version, e.indent, e.maxInput)
	for _, n := range e.rules.Names() {
		h.Write([]byte(n))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
