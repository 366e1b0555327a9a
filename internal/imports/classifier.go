// Package imports classifies module references and resolves local ones to project files.
package imports

import (
	"path/filepath"
	"strings"

	"github.com/mvp-joe/csd-analyzers/internal/ir"
)

// CandidateFunc lists filesystem paths that could hold module, in priority order.
type CandidateFunc func(module, projectRoot, filePath string) []string

// Classifier is parameterized per language.
type Classifier struct {
	// RelativePrefixes mark a reference relative to the current module.
	RelativePrefixes []string
	// LocalPrefixes mark a project-local reference without probing the filesystem.
	LocalPrefixes []string
	// StandardPrefixes mark a standard library reference.
	StandardPrefixes []string
	// StandardModules lists standard library root modules, matched against RootModule.
	StandardModules map[string]bool
	// RootModule extracts the top-level module name of a reference.
	RootModule func(module string) string
	// ProbeBeforeStandard runs the local probe ahead of the standard library check, so a
	// project file shadows a standard module of the same name.
	ProbeBeforeStandard bool

	// ClassifyCandidates are probed to decide whether a reference is local.
	ClassifyCandidates CandidateFunc
	// ResolveCandidates are probed to find the file a local reference points at.
	ResolveCandidates CandidateFunc

	Prober Prober
}

// Classify returns the import type of module as seen from filePath.
func (c *Classifier) Classify(module, projectRoot, filePath string) ir.ImportType {
	if hasAnyPrefix(module, c.RelativePrefixes) {
		return ir.ImportRelative
	}
	if hasAnyPrefix(module, c.LocalPrefixes) {
		return ir.ImportLocal
	}
	if c.ProbeBeforeStandard && c.probe(c.ClassifyCandidates, module, projectRoot, filePath) {
		return ir.ImportLocal
	}
	if c.isStandard(module) {
		return ir.ImportStandard
	}
	if !c.ProbeBeforeStandard && c.probe(c.ClassifyCandidates, module, projectRoot, filePath) {
		return ir.ImportLocal
	}
	return ir.ImportThirdParty
}

// Resolve finds the file a local module reference points at. The path is relative to
// projectRoot when it lies underneath it, otherwise absolute.
func (c *Classifier) Resolve(module, projectRoot, filePath string) (string, bool) {
	if c.ResolveCandidates == nil {
		return "", false
	}
	for _, candidate := range c.ResolveCandidates(module, projectRoot, filePath) {
		if c.prober().Exists(candidate) {
			return relativeTo(projectRoot, candidate), true
		}
	}
	return "", false
}

func (c *Classifier) isStandard(module string) bool {
	if hasAnyPrefix(module, c.StandardPrefixes) {
		return true
	}
	if c.StandardModules == nil {
		return false
	}
	root := module
	if c.RootModule != nil {
		root = c.RootModule(module)
	}
	return c.StandardModules[root]
}

func (c *Classifier) probe(candidates CandidateFunc, module, projectRoot, filePath string) bool {
	if candidates == nil {
		return false
	}
	for _, candidate := range candidates(module, projectRoot, filePath) {
		if c.prober().Exists(candidate) {
			return true
		}
	}
	return false
}

func (c *Classifier) prober() Prober {
	if c.Prober == nil {
		return OSProber{}
	}
	return c.Prober
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func relativeTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			return path
		}
		return abs
	}
	return filepath.ToSlash(rel)
}
