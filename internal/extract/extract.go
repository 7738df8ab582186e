// Package extract turns free-form model output into a single answer letter.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Strategy extracts an answer letter from raw model output. Implementations
// must be pure: the same output always yields the same answer.
type Strategy interface {
	Name() string
	Extract(output string) (string, bool)
}

// Registry stores extraction strategies by name.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// DefaultRegistry returns a registry with the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPatternStrategy())
	r.Register(NewBoxStrategy())
	return r
}

// Register adds a strategy to the registry.
func (r *Registry) Register(s Strategy) {
	if r == nil || s == nil {
		return
	}
	name := strings.TrimSpace(s.Name())
	if name == "" {
		return
	}
	if r.strategies == nil {
		r.strategies = make(map[string]Strategy)
	}
	r.strategies[name] = s
}

// Get returns a named strategy if present.
func (r *Registry) Get(name string) (Strategy, bool) {
	if r == nil || r.strategies == nil {
		return nil, false
	}
	s, ok := r.strategies[strings.TrimSpace(name)]
	return s, ok
}

// Names lists the registered strategy names.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		out = append(out, name)
	}
	return out
}

// Extract runs the named strategy against the output. It reports no answer
// when the output is empty or whitespace, the strategy is unknown, or no
// rule matches.
func (r *Registry) Extract(output string, strategyName string) (string, bool) {
	if strings.TrimSpace(output) == "" {
		return "", false
	}
	s, ok := r.Get(strategyName)
	if !ok {
		return "", false
	}
	return s.Extract(output)
}

// regexStrategy tries an ordered list of patterns and returns the first
// capture group of the first pattern that matches anywhere in the output.
type regexStrategy struct {
	name     string
	patterns []*regexp.Regexp
}

// NewRegexStrategy builds a strategy from custom patterns. Each pattern must
// compile and contain at least one capture group.
func NewRegexStrategy(name string, patterns []string) (Strategy, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("extract: empty strategy name")
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("extract: strategy %q: no patterns", name)
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("extract: strategy %q: compile %q: %w", name, p, err)
		}
		compiled = append(compiled, re)
	}
	return &regexStrategy{name: name, patterns: compiled}, nil
}

func (s *regexStrategy) Name() string { return s.name }

func (s *regexStrategy) Extract(output string) (string, bool) {
	if strings.TrimSpace(output) == "" {
		return "", false
	}
	for _, re := range s.patterns {
		m := re.FindStringSubmatch(output)
		if len(m) > 1 {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func mustRegexStrategy(name string, patterns []string) Strategy {
	s, err := NewRegexStrategy(name, patterns)
	if err != nil {
		panic(err)
	}
	return s
}
