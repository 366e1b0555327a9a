package cache

// Test Plan for cache keys:
// - FileName follows {engine}_{sanitized}_{hash16}.json
// - SanitizePath replaces slashes, backslashes and dots
// - ContentHash is 16 lowercase hex characters and deterministic
// - Changing one content byte or the file path changes the hash
// - FileHash is a 64 character SHA-256 hex digest

import (
	"regexp"
	"testing"

	"github.com/mvp-joe/csd-analyzers/internal/ir"
	"github.com/stretchr/testify/assert"
)

var hex16 = regexp.MustCompile(`^[0-9a-f]{16}$`)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"src/lib.rs", "src_lib_rs"},
		{`pkg\mod.py`, "pkg_mod_py"},
		{"a.b/c.d.e", "a_b_c_d_e"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizePath(tt.input), tt.input)
	}
}

func TestContentHash(t *testing.T) {
	t.Parallel()

	h := ContentHash("/p/a.py", "x = 1\n")
	assert.Regexp(t, hex16, h)
	assert.Equal(t, h, ContentHash("/p/a.py", "x = 1\n"))
	assert.NotEqual(t, h, ContentHash("/p/a.py", "x = 2\n"))
	assert.NotEqual(t, h, ContentHash("/q/a.py", "x = 1\n"))
	assert.Regexp(t, hex16, ContentHash("", ""))
}

func TestFileName(t *testing.T) {
	t.Parallel()

	in := &ir.Input{FilePath: "/proj/app/service.py", RelativePath: "app/service.py", Content: "pass\n"}
	name := FileName("python", in)

	assert.Regexp(t, `^python_app_service_py_[0-9a-f]{16}\.json$`, name)
	assert.Equal(t, "python_app_service_py_"+ContentHash(in.FilePath, in.Content)+".json", name)
	assert.Equal(t, name, FileName("python", in))
	assert.NotEqual(t, name, FileName("rust", in))
}

func TestFileHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", FileHash(""))
	assert.Len(t, FileHash("pass\n"), 64)
}
