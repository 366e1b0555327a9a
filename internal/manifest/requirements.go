// Package manifest parses dependency manifests and lockfiles into external dependencies.
//
// Parsers never fail: malformed entries are skipped and whatever could be read is returned.
package manifest

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/csd-analyzers/internal/ir"
)

const (
	EcosystemPip   = "pip"
	EcosystemCargo = "cargo"
)

// operatorChars start every version operator (==, >=, <=, ~=, !=, >, <).
const operatorChars = "=<>!~"

// ParseRequirements reads a pip requirements file, one dependency per line.
func ParseRequirements(content, sourceFile string) []ir.ExternalDependency {
	deps := []ir.ExternalDependency{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if dep, ok := ParseRequirement(line, sourceFile); ok {
			deps = append(deps, dep)
		}
	}
	return deps
}

// ParseRequirement parses a single requirement specifier such as "pkg[extra]==1.2; python_version>'3'".
func ParseRequirement(spec, sourceFile string) (ir.ExternalDependency, bool) {
	if i := strings.Index(spec, " #"); i >= 0 {
		spec = spec[:i]
	}
	if i := strings.Index(spec, ";"); i >= 0 {
		spec = spec[:i]
	}
	spec = strings.TrimSpace(spec)

	// The name ends at the first operator; only "==" pins a version, up to the next clause.
	name := spec
	if i := strings.IndexAny(spec, operatorChars); i >= 0 {
		name = spec[:i]
	}
	var version *string
	if _, after, found := strings.Cut(spec, "=="); found {
		after, _, _ = strings.Cut(after, ",")
		if v := strings.TrimSpace(after); v != "" {
			version = ir.String(v)
		}
	}

	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ir.ExternalDependency{}, false
	}

	return ir.ExternalDependency{
		Name:           name,
		Version:        version,
		Ecosystem:      EcosystemPip,
		DependencyType: ir.DependencyRuntime,
		SourceFile:     sourceFile,
	}, true
}

var (
	setupListPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\binstall_requires\s*=\s*\[(.*?)\]`),
		regexp.MustCompile(`(?s)\brequires\s*=\s*\[(.*?)\]`),
	}
	quotedLiteral = regexp.MustCompile(`["']([^"']+)["']`)
)

// ParseSetupPy scans a setup.py for bracketed install_requires/requires lists of string literals.
func ParseSetupPy(content, sourceFile string) []ir.ExternalDependency {
	deps := []ir.ExternalDependency{}
	for _, pattern := range setupListPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			for _, lit := range quotedLiteral.FindAllStringSubmatch(m[1], -1) {
				if dep, ok := ParseRequirement(lit[1], sourceFile); ok {
					deps = append(deps, dep)
				}
			}
		}
	}
	return deps
}

// ParsePyproject extracts dependency names from the poetry or project dependency tables of a
// pyproject.toml. It is a line scanner rather than a TOML decoder; versions are not recorded.
func ParsePyproject(content, sourceFile string) []ir.ExternalDependency {
	deps := []ir.ExternalDependency{}
	inDeps := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if strings.Contains(line, "[tool.poetry.dependencies]") || strings.Contains(line, "[project.dependencies]") {
			inDeps = true
			continue
		}
		if inDeps && strings.HasPrefix(line, "[") {
			inDeps = false
			continue
		}
		if !inDeps || strings.HasPrefix(line, "#") {
			continue
		}

		key, _, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		name := strings.Trim(strings.TrimSpace(key), `"'`)
		if name == "python" {
			continue
		}
		deps = append(deps, ir.ExternalDependency{
			Name:           name,
			Ecosystem:      EcosystemPip,
			DependencyType: ir.DependencyRuntime,
			SourceFile:     sourceFile,
		})
	}
	return deps
}
