package manifest

import (
	"fmt"

	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/pelletier/go-toml/v2"
)

// cargoSections maps Cargo.toml dependency tables to dependency types, in output order.
var cargoSections = []struct {
	name string
	kind ir.DependencyType
}{
	{"dependencies", ir.DependencyRuntime},
	{"dev-dependencies", ir.DependencyDevelopment},
	{"build-dependencies", ir.DependencyBuild},
}

// CargoManifest is what ParseCargoToml extracts from a Cargo.toml.
type CargoManifest struct {
	PackageName    *string
	PackageVersion *string
	Dependencies   []ir.ExternalDependency
}

// ParseCargoToml reads dependency tables from a Cargo.toml using the minimal TOML parser.
// The version comes from a bare string or from an inline table's version key; path and git
// dependencies without one have no version.
func ParseCargoToml(content, sourceFile string) CargoManifest {
	doc := ParseSimpleTOML(content)
	m := CargoManifest{Dependencies: []ir.ExternalDependency{}}

	if pkg := doc.Section("package"); pkg != nil {
		if v, ok := pkg.Get("name"); ok && !v.IsTable() {
			m.PackageName = ir.String(v.Scalar)
		}
		if v, ok := pkg.Get("version"); ok && !v.IsTable() {
			m.PackageVersion = ir.String(v.Scalar)
		}
	}

	for _, s := range cargoSections {
		sec := doc.Section(s.name)
		if sec == nil {
			continue
		}
		for _, name := range sec.Keys() {
			v, _ := sec.Get(name)
			var version *string
			if v.IsTable() {
				if ver, ok := v.Table["version"]; ok {
					version = ir.String(ver)
				}
			} else {
				version = ir.String(v.Scalar)
			}
			m.Dependencies = append(m.Dependencies, ir.ExternalDependency{
				Name:           name,
				Version:        version,
				Ecosystem:      EcosystemCargo,
				DependencyType: s.kind,
				SourceFile:     sourceFile,
			})
		}
	}
	return m
}

type cargoLock struct {
	Version int `toml:"version"`
	Package []struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Source  string `toml:"source"`
	} `toml:"package"`
}

// CargoLock is what ParseCargoLock extracts from a Cargo.lock.
type CargoLock struct {
	Version      int
	Dependencies []ir.ExternalDependency
}

// ParseCargoLock decodes a Cargo.lock. Every package with a source is a locked dependency;
// workspace members carry no source and are skipped. A lockfile that fails to decode yields
// no dependencies along with the decode error.
func ParseCargoLock(content, sourceFile string) (CargoLock, error) {
	out := CargoLock{Dependencies: []ir.ExternalDependency{}}

	var lock cargoLock
	if err := toml.Unmarshal([]byte(content), &lock); err != nil {
		return out, fmt.Errorf("failed to decode Cargo.lock: %w", err)
	}
	out.Version = lock.Version

	for _, pkg := range lock.Package {
		if pkg.Source == "" || pkg.Name == "" {
			continue
		}
		var version *string
		if pkg.Version != "" {
			version = ir.String(pkg.Version)
		}
		out.Dependencies = append(out.Dependencies, ir.ExternalDependency{
			Name:           pkg.Name,
			Version:        version,
			Ecosystem:      EcosystemCargo,
			DependencyType: ir.DependencyRuntime,
			SourceFile:     sourceFile,
		})
	}
	return out, nil
}
