package imports

import (
	"path/filepath"
	"strings"
)

// NewRust returns the Rust classifier. Paths under crate:: are local without probing; other
// unknown roots are local only when a matching file exists under src/.
func NewRust(p Prober) *Classifier {
	return &Classifier{
		RelativePrefixes:   []string{"super::", "self::"},
		LocalPrefixes:      []string{"crate::"},
		StandardPrefixes:   []string{"std::", "core::", "alloc::"},
		ClassifyCandidates: rustClassifyCandidates,
		ResolveCandidates:  rustResolveCandidates,
		Prober:             p,
	}
}

func rustClassifyCandidates(module, projectRoot, _ string) []string {
	first, _, _ := strings.Cut(module, "::")
	src := filepath.Join(projectRoot, "src")
	return []string{
		filepath.Join(src, first+".rs"),
		filepath.Join(src, first, "mod.rs"),
	}
}

func rustResolveCandidates(module, projectRoot, _ string) []string {
	path := strings.TrimPrefix(module, "crate::")
	parts := strings.Split(path, "::")
	src := filepath.Join(projectRoot, "src")
	joined := filepath.Join(parts...)
	return []string{
		filepath.Join(src, joined+".rs"),
		filepath.Join(src, joined, "mod.rs"),
		filepath.Join(src, parts[0]+".rs"),
		filepath.Join(src, parts[0], "mod.rs"),
	}
}
