package ir

// Test Plan for IR:
// - Full output survives a JSON round trip, including nested element metadata and extras
// - Unset metadata fields are omitted from the JSON object
// - NewOutput serializes collections as empty arrays
// - Validate rejects inverted spans, zero tokens and duplicate calls

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOutput() *Output {
	return &Output{
		FilePath: "/proj/src/app.py",
		FileHash: "abc123",
		Elements: []CodeElement{
			{
				ElementType:     ElementFunction,
				Name:            "handler",
				Signature:       String("async def handler(req)"),
				LineStart:       3,
				LineEnd:         9,
				Summary:         String("Handle a request."),
				ComplexityScore: Int(2),
				Calls:           []string{"json.dumps", "log"},
				Metadata: ElementMetadata{
					IsAsync:         Bool(true),
					Decorators:      []string{"app.route"},
					ArgCount:        Int(1),
					HasDocstring:    Bool(true),
					DocstringTokens: Int(4),
					Extra:           map[string]any{"custom": "value"},
				},
				Tokens: Int(30),
			},
			{
				ElementType: ElementVariable,
				Name:        "LIMIT",
				LineStart:   1,
				LineEnd:     1,
				Calls:       []string{},
				Metadata:    ElementMetadata{IsConstant: Bool(true), Visibility: "pub"},
				Tokens:      Int(3),
			},
		},
		Imports: []Import{
			{Module: "os", Items: []string{}, LineNumber: 1, ImportType: ImportStandard},
			{Module: "utils", Items: []string{"*"}, Alias: String("u"), LineNumber: 2, ImportType: ImportLocal},
		},
		Exports: []string{"handler", "LIMIT"},
		Relationships: []Relationship{
			{FromFile: "src/app.py", ToFile: "src/utils.py", RelationshipType: RelationshipImport, Details: "import utils", LineNumber: Int(2), Strength: ImportStrength},
		},
		ExternalDependencies: []ExternalDependency{
			{Name: "requests", Version: String("2.31.0"), Ecosystem: "pip", DependencyType: DependencyRuntime, SourceFile: "requirements.txt"},
			{Name: "flask", Ecosystem: "pip", DependencyType: DependencyRuntime, SourceFile: "requirements.txt"},
		},
		ProcessingTimeMs: 12,
		PluginVersion:    "2.0.0",
		TokenInfo:        &TokenInfo{TotalTokens: 50, CodeTokens: 40, DocumentationTokens: 6, CommentTokens: 4},
		Metadata:         FileMetadata{HasMainCheck: Bool(false), ModuleDocstring: String("App module.")},
	}
}

func TestOutput_RoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleOutput()
	data, err := json.MarshalIndent(want, "", "  ")
	require.NoError(t, err)

	var got Output
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *want, got)
}

func TestElementMetadata_OmitsUnsetFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ElementMetadata{IsPublic: Bool(false), Visibility: "private"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_public": false, "visibility": "private"}`, string(data))

	data, err = json.Marshal(ElementMetadata{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestElementMetadata_UnknownKeysGoToExtra(t *testing.T) {
	t.Parallel()

	var m ElementMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"arg_count": 2, "lifetime": "'a", "generic": true}`), &m))
	require.NotNil(t, m.ArgCount)
	assert.Equal(t, 2, *m.ArgCount)
	assert.Equal(t, map[string]any{"lifetime": "'a", "generic": true}, m.Extra)
}

func TestFileMetadata_RoundTrip(t *testing.T) {
	t.Parallel()

	want := FileMetadata{PackageName: String("demo"), PackageVersion: String("0.1.0"), LockfileVersion: Int(3)}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	var got FileMetadata
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, want, got)
}

func TestNewOutput_EmptyCollections(t *testing.T) {
	t.Parallel()

	out := NewOutput(&Input{FilePath: "/p/a.rs"})
	data, err := json.Marshal(out)
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(data, &obj))
	for _, key := range []string{"elements", "imports", "exports", "relationships", "external_dependencies"} {
		assert.Equal(t, []any{}, obj[key], key)
	}
	assert.Equal(t, "/p/a.rs", obj["file_path"])
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ok := CodeElement{Name: "f", LineStart: 1, LineEnd: 1, Tokens: Int(1), ComplexityScore: Int(1), Calls: []string{"a", "b"}}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name string
		el   CodeElement
	}{
		{"inverted span", CodeElement{Name: "f", LineStart: 5, LineEnd: 4}},
		{"zero tokens", CodeElement{Name: "f", LineStart: 1, LineEnd: 1, Tokens: Int(0)}},
		{"zero complexity", CodeElement{Name: "f", LineStart: 1, LineEnd: 1, ComplexityScore: Int(0)}},
		{"duplicate calls", CodeElement{Name: "f", LineStart: 1, LineEnd: 2, Calls: []string{"x", "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.el.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidElement)
		})
	}

	out := &Output{Elements: []CodeElement{ok, tests[0].el}}
	assert.ErrorIs(t, out.Validate(), ErrInvalidElement)
}
