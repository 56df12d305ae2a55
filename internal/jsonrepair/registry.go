package jsonrepair

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// RewriteFunc rewrites the whole text in one pass. It must be a pure function
// of its input. An error aborts the repair and is reported as unrecoverable.
type RewriteFunc func(text string) (string, error)

// Rule is one ordered text rewrite step of the repair pipeline.
// Name must be lowercase snake_case and never change across versions since it
// appears in reports and in the --disable flag.
type Rule struct {
	Name        string      // stable, lowercase snake_case identifier
	Description string      // human-readable change description
	Rewrite     RewriteFunc // function implementing the rule
}

// RuleMeta is a minimal, serializable view of a rule for catalogs and reports.
type RuleMeta struct {
	Position    int    `json:"position"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RuleSet holds rules in registration order. Unlike a lookup table the order
// is significant: rules run, and are reported, exactly in this order.
type RuleSet struct {
	rules  []Rule
	byName map[string]int
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{byName: make(map[string]int)}
}

var ruleNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Register appends a rule after validation. Names are unique; registering a
// name twice is an error because it would make the report ambiguous.
func (s *RuleSet) Register(r Rule) error {
	if r.Name == "" || !ruleNameRe.MatchString(r.Name) {
		return fmt.Errorf("invalid rule name %q: must be lowercase snake_case starting with a letter", r.Name)
	}
	if r.Rewrite == nil {
		return errors.New("rewrite must not be nil")
	}
	if s.byName == nil {
		s.byName = make(map[string]int)
	}
	if _, dup := s.byName[r.Name]; dup {
		return fmt.Errorf("rule %q already registered", r.Name)
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		r.Description = r.Name
	}
	s.byName[r.Name] = len(s.rules)
	s.rules = append(s.rules, r)
	return nil
}

// Len returns the number of registered rules.
func (s *RuleSet) Len() int { return len(s.rules) }

// Get returns a rule by name if present.
func (s *RuleSet) Get(name string) (Rule, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Names returns rule names in execution order.
func (s *RuleSet) Names() []string {
	out := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Name)
	}
	return out
}

// Catalog returns RuleMeta entries in execution order, 1-based positions.
func (s *RuleSet) Catalog() []RuleMeta {
	out := make([]RuleMeta, 0, len(s.rules))
	for i, r := range s.rules {
		out = append(out, RuleMeta{Position: i + 1, Name: r.Name, Description: r.Description})
	}
	return out
}

// Without returns a copy of the set minus the named rules, keeping the
// relative order of the rest. Unknown names are rejected so a typo in
// configuration does not silently leave a rule enabled.
func (s *RuleSet) Without(names ...string) (*RuleSet, error) {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := s.byName[n]; !ok {
			return nil, fmt.Errorf("unknown rule %q", n)
		}
		skip[n] = struct{}{}
	}
	out := NewRuleSet()
	for _, r := range s.rules {
		if _, drop := skip[r.Name]; drop {
			continue
		}
		if err := out.Register(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *RuleSet) each() []Rule {
	return s.rules
}
