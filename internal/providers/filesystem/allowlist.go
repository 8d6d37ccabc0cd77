package filesystem

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// AllowList holds glob patterns (doublestar syntax, slash separated) of
// absolute paths that may be read besides the document directory
type AllowList struct {
	patterns []string
}

// NewAllowList validates the patterns
func NewAllowList(patterns []string) (*AllowList, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid allow pattern %q", p)
		}
		out = append(out, p)
	}
	return &AllowList{patterns: out}, nil
}

// Allowed reports whether path matches a pattern. The path is cleaned first
// so traversal segments cannot escape a pattern.
func (a *AllowList) Allowed(path string) bool {
	if a == nil || !filepath.IsAbs(path) {
		return false
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	for _, p := range a.patterns {
		if ok, _ := doublestar.Match(p, clean); ok {
			return true
		}
	}
	return false
}

// Patterns returns a copy of the configured patterns
func (a *AllowList) Patterns() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.patterns...)
}

// Glob lists existing files under root matching a relative pattern
func Glob(root, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob failed: %w", err)
	}
	rel := make([]string, 0, len(matches))
	for _, m := range matches {
		if r, err := filepath.Rel(root, m); err == nil {
			rel = append(rel, r)
		}
	}
	return rel, nil
}
