package jsonrepair

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Stable rule names, in execution order.
const (
	RuleStripComments     = "strip_comments"
	RuleQuoteKeys         = "quote_keys"
	RuleSingleQuotes      = "single_quotes"
	RuleTrailingCommas    = "trailing_commas"
	RuleMissingCommas     = "missing_commas"
	RuleQuoteValues       = "quote_values"
	RuleNormalizeLiterals = "normalize_literals"
	RuleBalanceBrackets   = "balance_brackets"
)

// Patterns use .NET syntax (regexp2) because several rules need lookbehind
// and negative lookahead, which RE2 lacks. None of them is aware of string
// literals: text inside quotes is rewritten like any other text.
const (
	blockCommentPattern = `/\*[\s\S]*?\*/`
	// "//" right after ':' is kept so scheme separators like http:// survive.
	lineCommentPattern = `(?<!:)//[^\r\n]*`
	bareKeyPattern     = `(?<=[{,]\s*)([A-Za-z_$][\w$-]*)(?=\s*:)`
	singleQuotePattern = `'((?:[^'\\]|\\.)*)'`
	trailingComma      = `,(?=\s*[}\]])`
	// }/] followed by {, [ or a quote.
	bracketNoComma = `(?<=[}\]])(?=\s*[{\["])`
	// scalar at end of line followed by a quoted key on the next line.
	lineNoComma       = `(?<=(?:"|\d|\btrue|\bfalse|\bnull))(?=[ \t]*\r?\n\s*")`
	bareValuePattern  = `(?<=:\s*)(?!(?i:true|false|null|undefined|none)\b)([A-Za-z_][\w .-]*?)(?=\s*[,}\]])`
	literalPattern    = `(?<=[:\[,]\s*)((?i:true|false|null|undefined|none))(?=\s*[,}\]])`
)

// DefaultRules builds the fixed, ordered pipeline. timeout bounds every
// single regex evaluation; zero leaves regexp2's default (no timeout).
func DefaultRules(timeout time.Duration) (*RuleSet, error) {
	c := &compiler{timeout: timeout}
	blockComment := c.compile(blockCommentPattern)
	lineComment := c.compile(lineCommentPattern)
	bareKey := c.compile(bareKeyPattern)
	singleQuoted := c.compile(singleQuotePattern)
	trailing := c.compile(trailingComma)
	bracketGap := c.compile(bracketNoComma)
	lineGap := c.compile(lineNoComma)
	bareValue := c.compile(bareValuePattern)
	literal := c.compile(literalPattern)
	if c.err != nil {
		return nil, c.err
	}

	set := NewRuleSet()
	rules := []Rule{
		{
			Name:        RuleStripComments,
			Description: "Removed comments",
			Rewrite: func(s string) (string, error) {
				s, err := replace(blockComment, s, "")
				if err != nil {
					return "", err
				}
				return replace(lineComment, s, "")
			},
		},
		{
			Name:        RuleQuoteKeys,
			Description: "Added quotes to unquoted keys",
			Rewrite: func(s string) (string, error) {
				return replace(bareKey, s, `"$1"`)
			},
		},
		{
			Name:        RuleSingleQuotes,
			Description: "Converted single quotes to double quotes",
			Rewrite: func(s string) (string, error) {
				return singleQuoted.ReplaceFunc(s, func(m regexp2.Match) string {
					inner := m.GroupByNumber(1).String()
					return `"` + strings.ReplaceAll(inner, `\'`, `'`) + `"`
				}, -1, -1)
			},
		},
		{
			Name:        RuleTrailingCommas,
			Description: "Removed trailing commas",
			Rewrite: func(s string) (string, error) {
				return replace(trailing, s, "")
			},
		},
		{
			Name:        RuleMissingCommas,
			Description: "Added missing commas",
			Rewrite: func(s string) (string, error) {
				s, err := replace(bracketGap, s, ",")
				if err != nil {
					return "", err
				}
				return replace(lineGap, s, ",")
			},
		},
		{
			Name:        RuleQuoteValues,
			Description: "Added quotes to unquoted string values",
			Rewrite: func(s string) (string, error) {
				return replace(bareValue, s, `"$1"`)
			},
		},
		{
			Name:        RuleNormalizeLiterals,
			Description: "Normalized boolean and null literals",
			Rewrite: func(s string) (string, error) {
				return literal.ReplaceFunc(s, func(m regexp2.Match) string {
					switch v := strings.ToLower(m.String()); v {
					case "undefined", "none":
						return "null"
					default:
						return v
					}
				}, -1, -1)
			},
		},
		{
			Name:        RuleBalanceBrackets,
			Description: "Balanced brackets and braces",
			Rewrite:     balanceBrackets,
		},
	}
	for _, r := range rules {
		if err := set.Register(r); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// balanceBrackets compares total counts only. Missing closers are appended
// (all braces, then all brackets) and missing openers are prepended; the
// position of the actual imbalance is never searched for.
func balanceBrackets(s string) (string, error) {
	if d := strings.Count(s, "{") - strings.Count(s, "}"); d > 0 {
		s += strings.Repeat("}", d)
	} else if d < 0 {
		s = strings.Repeat("{", -d) + s
	}
	if d := strings.Count(s, "[") - strings.Count(s, "]"); d > 0 {
		s += strings.Repeat("]", d)
	} else if d < 0 {
		s = strings.Repeat("[", -d) + s
	}
	return s, nil
}

type compiler struct {
	timeout time.Duration
	err     error
}

func (c *compiler) compile(pattern string) *regexp2.Regexp {
	if c.err != nil {
		return nil
	}
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		c.err = fmt.Errorf("compile %q: %w", pattern, err)
		return nil
	}
	if c.timeout > 0 {
		re.MatchTimeout = c.timeout
	}
	return re
}

func replace(re *regexp2.Regexp, s, repl string) (string, error) {
	return re.Replace(s, repl, -1, -1)
}
