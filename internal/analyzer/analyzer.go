// Package analyzer defines the engine contract and the concrete engines that turn a file into
// the structural IR.
package analyzer

import (
	"context"
	"io"

	"github.com/mvp-joe/csd-analyzers/internal/imports"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/mvp-joe/csd-analyzers/internal/scoring"
	"github.com/sirupsen/logrus"
)

const (
	// PluginTypeInput is the plugin type every engine reports.
	PluginTypeInput = "input"
	// EngineVersion is the version reported by the bundled engines.
	EngineVersion = "2.0.0"
	// DefaultPreviewBytes is the content prefix handed to Probe.
	DefaultPreviewBytes = 500
)

// Info describes an engine.
type Info struct {
	Name                string   `json:"name"`
	Version             string   `json:"version"`
	PluginType          string   `json:"plugin_type"`
	SupportedExtensions []string `json:"supported_extensions"`
	SupportedFilenames  []string `json:"supported_filenames"`
}

// Probe is the result of a capability probe.
type Probe struct {
	Matches    bool    `json:"can_analyze"`
	Confidence float64 `json:"confidence"`
}

// Analyzer is a language engine.
//
// Analyze never fails: source it cannot parse yields an output with empty collections and a
// summary describing the problem.
type Analyzer interface {
	Info() Info
	Probe(path, preview string) Probe
	Analyze(ctx context.Context, in *ir.Input) *ir.Output
}

// Option configures an engine.
type Option func(*options)

type options struct {
	prober       imports.Prober
	log          logrus.FieldLogger
	previewBytes int
}

// WithProber sets the filesystem prober used to resolve local imports.
func WithProber(p imports.Prober) Option {
	return func(o *options) {
		o.prober = p
	}
}

// WithLogger sets the logger for problems that do not fail the analysis, such as a lockfile
// that cannot be decoded.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithPreviewBytes sets how much content the registry probes with when it picks an engine.
func WithPreviewBytes(n int) Option {
	return func(o *options) {
		o.previewBytes = n
	}
}

func buildOptions(opts []Option) options {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	o := options{prober: imports.OSProber{}, log: discard, previewBytes: DefaultPreviewBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// manifestOutput builds the output for a dependency manifest. Manifests have no code structure,
// so the whole content counts as code tokens.
func manifestOutput(in *ir.Input, deps []ir.ExternalDependency, summary string) *ir.Output {
	out := ir.NewOutput(in)
	out.ExternalDependencies = deps
	out.FileSummary = ir.String(summary)

	total := scoring.EstimateText(in.Content)
	out.TokenInfo = &ir.TokenInfo{TotalTokens: total, CodeTokens: total}
	return out
}

// Preview returns the first n bytes of content.
func Preview(content string, n int) string {
	if n < 0 || len(content) <= n {
		return content
	}
	return content[:n]
}
