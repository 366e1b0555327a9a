package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/stretchr/testify/require"
)

// loadInput builds an analyze input for a file under testdata/code/<lang>.
func loadInput(t *testing.T, lang, rel string) *ir.Input {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", "..", "testdata", "code", lang))
	require.NoError(t, err)
	path := filepath.Join(root, filepath.FromSlash(rel))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return &ir.Input{
		FilePath:     path,
		RelativePath: rel,
		Content:      string(content),
		ProjectRoot:  root,
		CacheDir:     t.TempDir(),
	}
}

// inlineInput builds an input for source that does not live on disk.
func inlineInput(t *testing.T, name, content string) *ir.Input {
	t.Helper()
	root := t.TempDir()
	return &ir.Input{
		FilePath:     filepath.Join(root, name),
		RelativePath: name,
		Content:      content,
		ProjectRoot:  root,
		CacheDir:     filepath.Join(root, ".cache"),
	}
}

func findElement(t *testing.T, out *ir.Output, kind ir.ElementType, name string) *ir.CodeElement {
	t.Helper()
	for i := range out.Elements {
		if out.Elements[i].ElementType == kind && out.Elements[i].Name == name {
			return &out.Elements[i]
		}
	}
	require.Failf(t, "element not found", "%s %s", kind, name)
	return nil
}

func findImport(t *testing.T, out *ir.Output, module string) *ir.Import {
	t.Helper()
	for i := range out.Imports {
		if out.Imports[i].Module == module {
			return &out.Imports[i]
		}
	}
	require.Failf(t, "import not found", "%s", module)
	return nil
}
