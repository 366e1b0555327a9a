package analyzer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mvp-joe/csd-analyzers/internal/ir"
)

// RegistryName is the name the registry reports when it stands in for its engines.
const RegistryName = "csd-analyzer"

// ErrUnknownEngine is returned by NewRegistry for an engine name it cannot build.
var ErrUnknownEngine = errors.New("unknown engine")

// Selector picks the engine for a file.
type Selector interface {
	Select(path, preview string) (Analyzer, Probe)
}

// Registry holds engines ranked by probe confidence. It is itself an Analyzer that dispatches
// each file to the engine that claims it most confidently.
type Registry struct {
	engines      []Analyzer
	previewBytes int
}

// NewRegistry builds a registry holding the named engines in the given order.
func NewRegistry(enabled []string, opts ...Option) (*Registry, error) {
	o := buildOptions(opts)
	r := &Registry{previewBytes: o.previewBytes}
	for _, name := range enabled {
		switch name {
		case PythonName:
			r.Register(NewPython(opts...))
		case RustName:
			r.Register(NewRust(opts...))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
		}
	}
	return r, nil
}

// Register appends an engine. Earlier engines win confidence ties.
func (r *Registry) Register(a Analyzer) {
	r.engines = append(r.engines, a)
}

// Engines returns the registered engines in registration order.
func (r *Registry) Engines() []Analyzer {
	return slices.Clone(r.engines)
}

// Select returns the engine with the highest confidence for the file, or nil when none matches.
func (r *Registry) Select(path, preview string) (Analyzer, Probe) {
	var (
		best      Analyzer
		bestProbe Probe
	)
	for _, a := range r.engines {
		p := a.Probe(path, preview)
		if !p.Matches {
			continue
		}
		if best == nil || p.Confidence > bestProbe.Confidence {
			best, bestProbe = a, p
		}
	}
	return best, bestProbe
}

// Info implements Analyzer. Extensions and filenames are the union over every engine.
func (r *Registry) Info() Info {
	info := Info{
		Name:                RegistryName,
		Version:             EngineVersion,
		PluginType:          PluginTypeInput,
		SupportedExtensions: []string{},
		SupportedFilenames:  []string{},
	}
	for _, a := range r.engines {
		ei := a.Info()
		info.SupportedExtensions = appendMissing(info.SupportedExtensions, ei.SupportedExtensions)
		info.SupportedFilenames = appendMissing(info.SupportedFilenames, ei.SupportedFilenames)
	}
	return info
}

// Probe implements Analyzer.
func (r *Registry) Probe(path, preview string) Probe {
	_, p := r.Select(path, preview)
	return p
}

// Analyze implements Analyzer. A file no engine claims gets an empty output with a summary.
func (r *Registry) Analyze(ctx context.Context, in *ir.Input) *ir.Output {
	a, _ := r.Select(in.FilePath, Preview(in.Content, r.previewBytes))
	if a == nil {
		out := ir.NewOutput(in)
		out.FileSummary = ir.String("No engine can analyze " + in.RelativePath)
		return out
	}
	return a.Analyze(ctx, in)
}

// Resolve returns the engine that serves in: the selected engine when a is a Selector, a
// otherwise. ok is false when a Selector has no engine for the file.
func Resolve(a Analyzer, in *ir.Input, previewBytes int) (Analyzer, bool) {
	s, isSelector := a.(Selector)
	if !isSelector {
		return a, true
	}
	engine, _ := s.Select(in.FilePath, Preview(in.Content, previewBytes))
	return engine, engine != nil
}

func appendMissing(dst, src []string) []string {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
