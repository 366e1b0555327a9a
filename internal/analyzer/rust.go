package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/mvp-joe/csd-analyzers/internal/imports"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/mvp-joe/csd-analyzers/internal/manifest"
	"github.com/mvp-joe/csd-analyzers/internal/parsers"
	"github.com/sirupsen/logrus"
)

// RustName is the engine name of the Rust analyzer.
const RustName = "rust"

var rustProbe = ProbeRules{
	Extensions: []string{".rs"},
	Filenames: []string{
		"Cargo.toml",
		"Cargo.lock",
		".rustfmt.toml",
		"rust-toolchain.toml",
		"rust-toolchain",
	},
	Indicators: []string{"fn ", "struct ", "impl ", "enum ", "trait ", "mod ", "use ", "pub "},

	ExtensionConfidence: 1.0,
	FilenameConfidence:  0.9,
	StrongHits:          3,
	StrongConfidence:    0.8,
	WeakConfidence:      0.6,
}

// Rust analyzes Rust sources and Cargo manifests.
type Rust struct {
	parser *parsers.RustParser
	log    logrus.FieldLogger
}

// NewRust creates the Rust engine.
func NewRust(opts ...Option) *Rust {
	o := buildOptions(opts)
	return &Rust{
		parser: parsers.NewRustParser(imports.NewRust(o.prober)),
		log:    o.log,
	}
}

// Info implements Analyzer.
func (r *Rust) Info() Info {
	return Info{
		Name:                RustName,
		Version:             EngineVersion,
		PluginType:          PluginTypeInput,
		SupportedExtensions: slices.Clone(rustProbe.Extensions),
		SupportedFilenames:  slices.Clone(rustProbe.Filenames),
	}
}

// Probe implements Analyzer.
func (r *Rust) Probe(path, preview string) Probe {
	return rustProbe.Probe(path, preview)
}

// Analyze implements Analyzer. Cargo file names are matched case-sensitively, as cargo does.
func (r *Rust) Analyze(ctx context.Context, in *ir.Input) *ir.Output {
	if filepath.Ext(in.FilePath) == ".rs" {
		return r.parser.Parse(ctx, in)
	}

	switch filepath.Base(in.FilePath) {
	case "Cargo.toml":
		m := manifest.ParseCargoToml(in.Content, in.RelativePath)
		out := manifestOutput(in, m.Dependencies, fmt.Sprintf("Rust Cargo.toml with %d dependencies", len(m.Dependencies)))
		out.Metadata.PackageName = m.PackageName
		out.Metadata.PackageVersion = m.PackageVersion
		return out
	case "Cargo.lock":
		lock, err := manifest.ParseCargoLock(in.Content, in.RelativePath)
		if err != nil {
			r.log.WithError(err).WithField("file", in.RelativePath).Warn("Cargo.lock could not be decoded")
		}
		out := manifestOutput(in, lock.Dependencies, fmt.Sprintf("Rust Cargo.lock with %d locked", len(lock.Dependencies)))
		out.Metadata.IsLockfile = ir.Bool(true)
		if lock.Version > 0 {
			out.Metadata.LockfileVersion = ir.Int(lock.Version)
		}
		return out
	}
	return r.parser.Parse(ctx, in)
}
