package analyzer

import (
	"path/filepath"
	"slices"
	"strings"
)

// ProbeRules scores how confidently an engine claims a file. The tiers are checked in order and
// the first that applies decides the result.
type ProbeRules struct {
	Extensions []string
	Filenames  []string
	Shebangs   []string
	// Indicators are substrings counted in the content preview.
	Indicators []string

	ExtensionConfidence float64
	FilenameConfidence  float64
	ShebangConfidence   float64

	// StrongHits indicator hits give StrongConfidence; fewer but at least one gives WeakConfidence.
	StrongHits       int
	StrongConfidence float64
	WeakConfidence   float64
}

// Probe applies the rules to path and preview.
func (r ProbeRules) Probe(path, preview string) Probe {
	if slices.Contains(r.Extensions, filepath.Ext(path)) {
		return Probe{Matches: true, Confidence: r.ExtensionConfidence}
	}

	base := filepath.Base(path)
	for _, name := range r.Filenames {
		if strings.EqualFold(name, base) {
			return Probe{Matches: true, Confidence: r.FilenameConfidence}
		}
	}

	for _, shebang := range r.Shebangs {
		if strings.HasPrefix(preview, shebang) {
			return Probe{Matches: true, Confidence: r.ShebangConfidence}
		}
	}

	hits := 0
	for _, indicator := range r.Indicators {
		if strings.Contains(preview, indicator) {
			hits++
		}
	}
	switch {
	case hits == 0:
		return Probe{}
	case hits >= r.StrongHits:
		return Probe{Matches: true, Confidence: r.StrongConfidence}
	default:
		return Probe{Matches: true, Confidence: r.WeakConfidence}
	}
}
