package config

import (
	"path/filepath"
	"slices"
	"sync"

	"github.com/moby/patternmatcher"
)

// ignoreMatcher caches the compiled ignore patterns and recompiles when the
// pattern list changes. A PatternMatcher compiles lazily, so matching is
// serialized.
type ignoreMatcher struct {
	mu       sync.Mutex
	patterns []string
	pm       *patternmatcher.PatternMatcher
	err      error
}

func (m *ignoreMatcher) matches(patterns []string, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pm == nil && m.err == nil || !slices.Equal(m.patterns, patterns) {
		m.patterns = slices.Clone(patterns)
		m.pm, m.err = patternmatcher.New(patterns)
	}
	if m.err != nil {
		return false, m.err
	}
	return m.pm.MatchesOrParentMatches(path)
}

// ShouldIgnore reports whether path, or one of its parents, matches an
// ignore pattern. Patterns use "**" for any number of path segments.
func (c *Config) ShouldIgnore(path string) bool {
	if len(c.IgnorePatterns) == 0 {
		return false
	}

	m := c.ignore
	if m == nil {
		m = &ignoreMatcher{}
	}
	ok, err := m.matches(c.IgnorePatterns, filepath.ToSlash(path))
	return err == nil && ok
}

// ValidateIgnorePatterns reports the first malformed ignore pattern.
func (c *Config) ValidateIgnorePatterns() error {
	_, err := patternmatcher.New(c.IgnorePatterns)
	return err
}
