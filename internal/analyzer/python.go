package analyzer

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mvp-joe/csd-analyzers/internal/imports"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/mvp-joe/csd-analyzers/internal/manifest"
	"github.com/mvp-joe/csd-analyzers/internal/parsers"
	"github.com/sirupsen/logrus"
)

// PythonName is the engine name of the Python analyzer.
const PythonName = "python"

var pythonProbe = ProbeRules{
	Extensions: []string{".py"},
	Filenames: []string{
		"requirements.txt",
		"setup.py",
		"pyproject.toml",
		"Pipfile",
		"poetry.lock",
		"tox.ini",
		"pytest.ini",
		".flake8",
		".pylintrc",
	},
	Shebangs:   []string{"#!/usr/bin/env python", "#!/usr/bin/python"},
	Indicators: []string{"def ", "class ", "import ", "from ", "__name__"},

	ExtensionConfidence: 1.0,
	FilenameConfidence:  0.9,
	ShebangConfidence:   0.8,
	StrongHits:          2,
	StrongConfidence:    0.7,
	WeakConfidence:      0.5,
}

// Python analyzes Python sources and pip manifests.
type Python struct {
	parser *parsers.PythonParser
	log    logrus.FieldLogger
}

// NewPython creates the Python engine.
func NewPython(opts ...Option) *Python {
	o := buildOptions(opts)
	return &Python{
		parser: parsers.NewPythonParser(imports.NewPython(o.prober)),
		log:    o.log,
	}
}

// Info implements Analyzer.
func (p *Python) Info() Info {
	return Info{
		Name:                PythonName,
		Version:             EngineVersion,
		PluginType:          PluginTypeInput,
		SupportedExtensions: slices.Clone(pythonProbe.Extensions),
		SupportedFilenames:  slices.Clone(pythonProbe.Filenames),
	}
}

// Probe implements Analyzer.
func (p *Python) Probe(path, preview string) Probe {
	return pythonProbe.Probe(path, preview)
}

// Analyze implements Analyzer. Manifests get their dependency parsers; everything else, including
// files with no recognized name, goes through the code engine.
func (p *Python) Analyze(ctx context.Context, in *ir.Input) *ir.Output {
	base := strings.ToLower(filepath.Base(in.FilePath))

	switch base {
	case "setup.py":
		out := p.parser.Parse(ctx, in)
		deps := manifest.ParseSetupPy(in.Content, in.RelativePath)
		out.ExternalDependencies = append(out.ExternalDependencies, deps...)
		out.FileSummary = ir.String(fmt.Sprintf("Python setup file with %d dependencies", len(deps)))
		return out
	case "requirements.txt":
		deps := manifest.ParseRequirements(in.Content, in.RelativePath)
		return manifestOutput(in, deps, fmt.Sprintf("Python requirements with %d dependencies", len(deps)))
	case "pyproject.toml":
		deps := manifest.ParsePyproject(in.Content, in.RelativePath)
		return manifestOutput(in, deps, fmt.Sprintf("Python project config with %d dependencies", len(deps)))
	}

	out := p.parser.Parse(ctx, in)
	if out.FileSummary != nil {
		p.log.WithField("file", in.RelativePath).Debug(*out.FileSummary)
	}
	return out
}
