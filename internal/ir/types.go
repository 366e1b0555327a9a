// Package ir defines the structural description every analyzer emits for a single file.
//
// The JSON field names are the wire format consumed by the downstream matrix builder and
// persisted in the analysis cache, so they must stay stable.
package ir

import (
	"errors"
	"fmt"
)

// ElementType identifies the kind of declaration a CodeElement describes.
type ElementType string

const (
	ElementFunction  ElementType = "function"
	ElementClass     ElementType = "class"
	ElementStruct    ElementType = "struct"
	ElementEnum      ElementType = "enum"
	ElementTrait     ElementType = "trait"
	ElementImpl      ElementType = "impl"
	ElementModule    ElementType = "module"
	ElementTypeAlias ElementType = "type"
	ElementConstant  ElementType = "constant"
	ElementVariable  ElementType = "variable"
)

// ImportType classifies where an imported module lives.
type ImportType string

const (
	ImportStandard   ImportType = "standard"
	ImportLocal      ImportType = "local"
	ImportRelative   ImportType = "relative"
	ImportThirdParty ImportType = "third_party"
)

// DependencyType classifies an external dependency by the phase that needs it.
type DependencyType string

const (
	DependencyRuntime     DependencyType = "runtime"
	DependencyDevelopment DependencyType = "development"
	DependencyBuild       DependencyType = "build"
)

// RelationshipImport is the only relationship type currently produced.
const RelationshipImport = "import"

// ImportStrength is the fixed strength assigned to relationships from resolved imports.
const ImportStrength = 0.8

// CodeElement is one discovered declaration.
type CodeElement struct {
	ElementType     ElementType     `json:"element_type"`
	Name            string          `json:"name"`
	Signature       *string         `json:"signature"`
	LineStart       int             `json:"line_start"`
	LineEnd         int             `json:"line_end"`
	Summary         *string         `json:"summary"`
	ComplexityScore *int            `json:"complexity_score"`
	Calls           []string        `json:"calls"`
	Metadata        ElementMetadata `json:"metadata"`
	Tokens          *int            `json:"tokens"`
}

// Import is one import/use statement. Items holds named sub-imports and may contain the
// single wildcard sentinel "*".
type Import struct {
	Module     string     `json:"module"`
	Items      []string   `json:"items"`
	Alias      *string    `json:"alias"`
	LineNumber int        `json:"line_number"`
	ImportType ImportType `json:"import_type"`
}

// Relationship is a directed edge between two project files.
type Relationship struct {
	FromFile         string  `json:"from_file"`
	ToFile           string  `json:"to_file"`
	RelationshipType string  `json:"relationship_type"`
	Details          string  `json:"details"`
	LineNumber       *int    `json:"line_number"`
	Strength         float64 `json:"strength"`
}

// ExternalDependency is a package declared in a manifest or lockfile.
type ExternalDependency struct {
	Name           string         `json:"name"`
	Version        *string        `json:"version"`
	Ecosystem      string         `json:"ecosystem"`
	DependencyType DependencyType `json:"dependency_type"`
	SourceFile     string         `json:"source_file"`
}

// TokenInfo is the per-file token breakdown.
type TokenInfo struct {
	TotalTokens         int `json:"total_tokens"`
	CodeTokens          int `json:"code_tokens"`
	DocumentationTokens int `json:"documentation_tokens"`
	CommentTokens       int `json:"comment_tokens"`
}

// Input is the request payload of an analyze call.
type Input struct {
	FilePath     string         `json:"file_path"`
	RelativePath string         `json:"relative_path"`
	Content      string         `json:"content"`
	ProjectRoot  string         `json:"project_root"`
	CacheDir     string         `json:"cache_dir"`
	PluginConfig map[string]any `json:"plugin_config,omitempty"`
}

// Output is the full analysis result for one file.
type Output struct {
	FilePath             string               `json:"file_path"`
	FileHash             string               `json:"file_hash"`
	Elements             []CodeElement        `json:"elements"`
	Imports              []Import             `json:"imports"`
	Exports              []string             `json:"exports"`
	Relationships        []Relationship       `json:"relationships"`
	ExternalDependencies []ExternalDependency `json:"external_dependencies"`
	FileSummary          *string              `json:"file_summary"`
	ProcessingTimeMs     int64                `json:"processing_time_ms"`
	PluginVersion        string               `json:"plugin_version"`
	TokenInfo            *TokenInfo           `json:"token_info"`
	Metadata             FileMetadata         `json:"metadata"`
}

// NewOutput returns an empty output for the given input. Every collection is allocated so it
// serializes as an empty array rather than null.
func NewOutput(in *Input) *Output {
	return &Output{
		FilePath:             in.FilePath,
		Elements:             []CodeElement{},
		Imports:              []Import{},
		Exports:              []string{},
		Relationships:        []Relationship{},
		ExternalDependencies: []ExternalDependency{},
	}
}

// ErrInvalidElement is returned by Validate when an element violates an IR invariant.
var ErrInvalidElement = errors.New("invalid code element")

// Validate checks the invariants every element must satisfy.
func (e *CodeElement) Validate() error {
	var errs []error
	if e.LineEnd < e.LineStart {
		errs = append(errs, fmt.Errorf("%w: %s line_end %d < line_start %d", ErrInvalidElement, e.Name, e.LineEnd, e.LineStart))
	}
	if e.Tokens != nil && *e.Tokens < 1 {
		errs = append(errs, fmt.Errorf("%w: %s tokens %d < 1", ErrInvalidElement, e.Name, *e.Tokens))
	}
	if e.ComplexityScore != nil && *e.ComplexityScore < 1 {
		errs = append(errs, fmt.Errorf("%w: %s complexity %d < 1", ErrInvalidElement, e.Name, *e.ComplexityScore))
	}
	seen := make(map[string]bool, len(e.Calls))
	for _, c := range e.Calls {
		if seen[c] {
			errs = append(errs, fmt.Errorf("%w: %s duplicate call %q", ErrInvalidElement, e.Name, c))
		}
		seen[c] = true
	}
	return errors.Join(errs...)
}

// Validate checks every element of the output.
func (o *Output) Validate() error {
	var errs []error
	for i := range o.Elements {
		if err := o.Elements[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// String returns a pointer to s. Used when filling optional fields.
func String(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
