package parsers

// Test Plan for RustParser:
// - Element table: const, struct (braced and unit), enum, trait, trait fn, impl, fn, type, mod
// - "impl Trait for Type" records the trait name
// - Terminated declarations report line_end = line_start + 1
// - Brace balancing finds the closing line; unbalanced blocks stop at 20 lines
// - Visibility and async flags, doc comments above attributes, plain comments stop the scan
// - Call extraction over the element body with the keyword stoplist
// - use/extern crate shapes, classification and relationships
// - Exports, file metadata and token breakdown
// - Every element satisfies the IR invariants

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mvp-joe/csd-analyzers/internal/imports"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRustParser() *RustParser {
	return NewRustParser(imports.NewRust(imports.OSProber{}))
}

func parseLib(t *testing.T) *ir.Output {
	t.Helper()
	return newTestRustParser().Parse(context.Background(), loadInput(t, "rust", "src/lib.rs"))
}

func TestRustParser_Elements(t *testing.T) {
	t.Parallel()

	out := parseLib(t)
	require.Len(t, out.Elements, 11)

	kinds := make([]string, 0, len(out.Elements))
	for _, el := range out.Elements {
		kinds = append(kinds, fmt.Sprintf("%s:%s", el.ElementType, el.Name))
	}
	assert.Equal(t, []string{
		"constant:MAX_ITEMS",
		"struct:Item",
		"struct:Marker",
		"enum:Kind",
		"trait:Storage",
		"function:load",
		"impl:Storage",
		"function:load",
		"function:build",
		"type:Result",
		"module:store",
	}, kinds)
}

func TestRustParser_Spans(t *testing.T) {
	t.Parallel()

	out := parseLib(t)

	c := findElement(t, out, ir.ElementConstant, "MAX_ITEMS")
	assert.Equal(t, 10, c.LineStart)
	assert.Equal(t, 11, c.LineEnd)
	assert.Equal(t, "pub const MAX_ITEMS: usize = 100;", *c.Signature)

	item := findElement(t, out, ir.ElementStruct, "Item")
	assert.Equal(t, 15, item.LineStart)
	assert.Equal(t, 18, item.LineEnd)

	marker := findElement(t, out, ir.ElementStruct, "Marker")
	assert.Equal(t, marker.LineStart+1, marker.LineEnd)

	impl := findElement(t, out, ir.ElementImpl, "Storage")
	assert.Equal(t, 32, impl.LineStart)
	assert.Equal(t, 36, impl.LineEnd)

	mod := findElement(t, out, ir.ElementModule, "store")
	assert.Equal(t, 49, mod.LineStart)
	assert.Equal(t, 50, mod.LineEnd)
}

func TestRustParser_FunctionMetadata(t *testing.T) {
	t.Parallel()

	out := parseLib(t)
	build := findElement(t, out, ir.ElementFunction, "build")

	assert.Equal(t, 39, build.LineStart)
	assert.Equal(t, 45, build.LineEnd)
	assert.True(t, *build.Metadata.IsPublic)
	assert.True(t, *build.Metadata.IsAsync)
	assert.Equal(t, "pub", build.Metadata.Visibility)
	assert.Equal(t, []string{"HashMap", "Inventory", "build", "new", "with_capacity"}, build.Calls)
	assert.Equal(t, 2, *build.ComplexityScore)

	require.NotNil(t, build.Summary)
	assert.Equal(t, "Create an inventory.", *build.Summary)
	assert.True(t, *build.Metadata.HasDocumentation)
	assert.Equal(t, 5, *build.Metadata.DocTokens)
}

func TestRustParser_Documentation(t *testing.T) {
	t.Parallel()

	out := parseLib(t)

	item := findElement(t, out, ir.ElementStruct, "Item")
	require.NotNil(t, item.Summary)
	assert.Equal(t, "An item held in stock.\nKeyed by SKU.", *item.Summary)

	kind := findElement(t, out, ir.ElementEnum, "Kind")
	assert.Nil(t, kind.Summary)
	assert.False(t, *kind.Metadata.HasDocumentation)
	assert.Equal(t, 0, *kind.Metadata.DocTokens)
	assert.False(t, *kind.Metadata.IsPublic)
	assert.False(t, *kind.Metadata.IsAsync)
	assert.Equal(t, "private", kind.Metadata.Visibility)
}

func TestRustParser_ImplCalls(t *testing.T) {
	t.Parallel()

	src := "impl Storage for Inventory {\n    fn load(&self, sku: &str) -> Option<Item> {\n        self.items.get(sku).cloned()\n    }\n}\n"
	out := newTestRustParser().Parse(context.Background(), inlineInput(t, "impl.rs", src))

	require.Len(t, out.Elements, 2)
	assert.Equal(t, "Storage", out.Elements[0].Name)

	load := out.Elements[1]
	assert.Equal(t, ir.ElementFunction, load.ElementType)
	assert.Equal(t, []string{"cloned", "get", "load"}, load.Calls)
	assert.False(t, *load.Metadata.IsPublic)
}

func TestRustParser_SingleLineTerminated(t *testing.T) {
	t.Parallel()

	out := newTestRustParser().Parse(context.Background(), inlineInput(t, "one.rs", "pub fn declared(x: i32) -> i32;\n"))

	require.Len(t, out.Elements, 1)
	fn := out.Elements[0]
	assert.Equal(t, ir.ElementFunction, fn.ElementType)
	assert.True(t, *fn.Metadata.IsPublic)
	assert.Equal(t, fn.LineStart+1, fn.LineEnd)
	assert.Empty(t, fn.Calls)
	assert.NoError(t, fn.Validate())
}

func TestRustParser_UnbalancedCap(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("fn runaway() {\n")
	for i := range 40 {
		fmt.Fprintf(&b, "    let v%d = %d;\n", i, i)
	}
	out := newTestRustParser().Parse(context.Background(), inlineInput(t, "open.rs", b.String()))

	require.Len(t, out.Elements, 1)
	fn := out.Elements[0]
	assert.LessOrEqual(t, fn.LineEnd, fn.LineStart+20)
	assert.Equal(t, 20, fn.LineEnd)
}

func TestRustParser_NoBraceNoTerminator(t *testing.T) {
	t.Parallel()

	src := "fn where_clause<T>(x: T)\nwhere\n    T: Clone,\n{\n    x.clone();\n}\n"
	out := newTestRustParser().Parse(context.Background(), inlineInput(t, "where.rs", src))

	require.Len(t, out.Elements, 1)
	assert.Equal(t, 6, out.Elements[0].LineEnd)
	assert.Equal(t, []string{"clone"}, out.Elements[0].Calls)
}

func TestRustParser_CallStoplist(t *testing.T) {
	t.Parallel()

	src := "fn f() {\n    if (a) { x(1); }\n    while (b) {}\n    match (c) {}\n    go();\n}\n"
	out := newTestRustParser().Parse(context.Background(), inlineInput(t, "stop.rs", src))

	require.Len(t, out.Elements, 1)
	assert.Equal(t, []string{"go"}, out.Elements[0].Calls)
}

func TestRustParser_Imports(t *testing.T) {
	t.Parallel()

	out := parseLib(t)
	require.Len(t, out.Imports, 6)

	hm := findImport(t, out, "std::collections")
	assert.Equal(t, []string{"HashMap"}, hm.Items)
	assert.Equal(t, ir.ImportStandard, hm.ImportType)
	assert.Equal(t, 3, hm.LineNumber)

	io := findImport(t, out, "std::io")
	assert.Equal(t, []string{"self", "Read"}, io.Items)

	serde := findImport(t, out, "serde")
	assert.Equal(t, []string{"*"}, serde.Items)
	assert.Equal(t, ir.ImportThirdParty, serde.ImportType)

	store := findImport(t, out, "crate::store")
	assert.Equal(t, ir.ImportLocal, store.ImportType)
	assert.Equal(t, []string{"Backend"}, store.Items)

	logCrate := findImport(t, out, "log")
	assert.Empty(t, logCrate.Items)
	assert.Equal(t, 8, logCrate.LineNumber)

	require.Len(t, out.Relationships, 1)
	rel := out.Relationships[0]
	assert.Equal(t, "src/lib.rs", rel.FromFile)
	assert.Equal(t, "src/store.rs", rel.ToFile)
	assert.Equal(t, "use crate::store", rel.Details)
	assert.Equal(t, 6, *rel.LineNumber)
	assert.Equal(t, 0.8, rel.Strength)
}

func TestRustParser_UnresolvedLocalImportDropped(t *testing.T) {
	t.Parallel()

	out := newTestRustParser().Parse(context.Background(), inlineInput(t, "src/main.rs", "use crate::nowhere::Thing;\nfn main() {}\n"))

	require.Len(t, out.Imports, 1)
	assert.Equal(t, ir.ImportLocal, out.Imports[0].ImportType)
	assert.Empty(t, out.Relationships)
	assert.True(t, *out.Metadata.HasMainFn)
	assert.True(t, *out.Metadata.IsMainRs)
}

func TestParseUseTree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stmt   string
		module string
		items  []string
	}{
		{"serde", "serde", []string{}},
		{"std::fmt::Display", "std::fmt", []string{"Display"}},
		{"std::io::{Read, Write}", "std::io", []string{"Read", "Write"}},
		{"crate::prelude::*", "crate::prelude", []string{"*"}},
		{"a::b::c::D", "a::b::c", []string{"D"}},
	}
	for _, tt := range tests {
		module, items := parseUseTree(tt.stmt)
		assert.Equal(t, tt.module, module, tt.stmt)
		assert.Equal(t, tt.items, items, tt.stmt)
	}
}

func TestRustParser_ExportsAndMetadata(t *testing.T) {
	t.Parallel()

	out := parseLib(t)
	assert.Equal(t, []string{"Item", "MAX_ITEMS", "Marker", "Result", "Storage"}, out.Exports)
	assert.False(t, *out.Metadata.HasMainFn)
	assert.True(t, *out.Metadata.IsLibRs)
	assert.False(t, *out.Metadata.IsMainRs)

	require.NotNil(t, out.TokenInfo)
	assert.Equal(t, 17, out.TokenInfo.DocumentationTokens)
	assert.Equal(t, 3, out.TokenInfo.CommentTokens)
	assert.Equal(t, out.TokenInfo.TotalTokens-20, out.TokenInfo.CodeTokens)
	assert.Nil(t, out.FileSummary)
}

func TestRustParser_Invariants(t *testing.T) {
	t.Parallel()

	out := parseLib(t)
	assert.NoError(t, out.Validate())
}

func TestRustParser_UnicodeIdentifiers(t *testing.T) {
	t.Parallel()

	out := newTestRustParser().Parse(context.Background(), inlineInput(t, "uni.rs", "pub struct Größe;\n"))
	require.Len(t, out.Elements, 1)
	assert.Equal(t, "Größe", out.Elements[0].Name)
}
