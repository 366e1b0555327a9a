package watcher

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/gobwas/glob"
)

// IgnoreSet matches paths against compiled ignore globs. Patterns use '/' as the separator, so
// `*` stays within one path segment and `**` crosses segments.
type IgnoreSet []glob.Glob

// CompileIgnore compiles patterns into an IgnoreSet.
func CompileIgnore(patterns []string) (IgnoreSet, error) {
	set := make(IgnoreSet, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		set = append(set, g)
	}
	return set, nil
}

// Match reports whether path matches any pattern.
func (s IgnoreSet) Match(path string) bool {
	slash := filepath.ToSlash(path)
	return slices.ContainsFunc(s, func(g glob.Glob) bool { return g.Match(slash) })
}

// MatchDir reports whether everything under dir is ignored. A pattern like `**/target/**`
// matches the directory itself with a trailing slash.
func (s IgnoreSet) MatchDir(dir string) bool {
	return s.Match(filepath.ToSlash(dir) + "/")
}
