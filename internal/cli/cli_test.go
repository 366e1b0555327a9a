package cli

// Test Plan for the command tree:
// - Running without a subcommand serves one protocol request from stdin
// - serve analyze writes the cache file into --cache-dir
// - info prints the get_info response
// - probe reports the selected engine and confidence per file
// - analyze walks directories, skips ignored paths and unclaimed files, and prints a summary
// - analyze honors probe.min_confidence from the config file
// - cache list and cache clean filter by engine; --dry-run keeps files
// - watch re-analyzes a changed file into the cache and stops on cancel
// - version prints the ldflags variables
// - An invalid config file fails before any command runs

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mvp-joe/csd-analyzers/internal/analyzer"
	"github.com/mvp-joe/csd-analyzers/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pythonFactory(_ *config.Config, opts ...analyzer.Option) (analyzer.Analyzer, error) {
	return analyzer.NewPython(opts...), nil
}

func registryFactory(cfg *config.Config, opts ...analyzer.Option) (analyzer.Analyzer, error) {
	r, err := analyzer.NewRegistry(cfg.Engines.Enabled, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the command tree with args and stdin.
func run(t *testing.T, ctx context.Context, factory EngineFactory, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("csd-test", factory)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(ctx)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func cacheFiles(t *testing.T, dir, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names
}

func TestRoot_ServesGetInfo(t *testing.T) {
	t.Parallel()

	res := run(t, context.Background(), pythonFactory, `{"type":"get_info"}`, "--cache-dir", t.TempDir())
	require.NoError(t, res.err)

	require.Equal(t, 1, strings.Count(res.stdout, "\n"))
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "python", resp["name"])
	assert.Equal(t, "input", resp["plugin_type"])
}

func TestServe_AnalyzeWritesCache(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cacheDir := t.TempDir()
	file := writeFile(t, filepath.Join(root, "app.py"), "def main():\n    pass\n")

	request, err := json.Marshal(map[string]any{
		"type": "analyze",
		"input": map[string]any{
			"file_path":     file,
			"relative_path": "app.py",
			"content":       "def main():\n    pass\n",
			"project_root":  root,
		},
	})
	require.NoError(t, err)

	res := run(t, context.Background(), pythonFactory, string(request), "serve", "--cache-dir", cacheDir)
	require.NoError(t, res.err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "success", resp["status"])

	files := cacheFiles(t, cacheDir, "python_app_py_*.json")
	require.Len(t, files, 1)
	assert.Equal(t, files[0], resp["cache_file"])
}

func TestInfo(t *testing.T) {
	t.Parallel()

	res := run(t, context.Background(), registryFactory, "", "info", "--cache-dir", t.TempDir())
	require.NoError(t, res.err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, analyzer.RegistryName, resp["name"])
	assert.Contains(t, resp["supported_extensions"], ".py")
	assert.Contains(t, resp["supported_extensions"], ".rs")
	assert.Nil(t, resp["supported_formats"])
}

func TestProbe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	py := writeFile(t, filepath.Join(dir, "app.py"), "x = 1\n")
	cargo := writeFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\nname = \"demo\"\n")
	notes := writeFile(t, filepath.Join(dir, "notes.txt"), "nothing to see\n")

	res := run(t, context.Background(), registryFactory, "", "probe", py, cargo, notes, "--cache-dir", t.TempDir())
	require.NoError(t, res.err)

	rows := map[string][]string{}
	for _, line := range strings.Split(strings.TrimSpace(res.stdout), "\n")[1:] {
		fields := strings.Fields(line)
		require.Len(t, fields, 4)
		rows[fields[0]] = fields[1:]
	}
	assert.Equal(t, []string{"python", "true", "1.00"}, rows[py])
	assert.Equal(t, []string{"rust", "true", "0.90"}, rows[cargo])
	assert.Equal(t, []string{"-", "false", "0.00"}, rows[notes])
}

func TestProbe_MissingFile(t *testing.T) {
	t.Parallel()

	res := run(t, context.Background(), pythonFactory, "", "probe", filepath.Join(t.TempDir(), "missing.py"), "--cache-dir", t.TempDir())
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "failed to open")
}

func TestAnalyze_Directory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cacheDir := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "main.py"), "import os\n\ndef main():\n    return os.getcwd()\n")
	writeFile(t, filepath.Join(root, "requirements.txt"), "requests>=2.0\nflask\n")
	writeFile(t, filepath.Join(root, "src", "lib.rs"), "pub fn run() {}\n")
	writeFile(t, filepath.Join(root, "target", "debug", "build.rs"), "fn main() {}\n")
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")

	res := run(t, context.Background(), registryFactory, "",
		"analyze", root, "--project-root", root, "--cache-dir", cacheDir)
	require.NoError(t, res.err, res.stderr)

	assert.Contains(t, res.stdout, "✓ Analyzed 3 files")
	assert.Contains(t, res.stdout, "(1 skipped, 0 failed)")

	assert.Len(t, cacheFiles(t, cacheDir, "python_app_main_py_*.json"), 1)
	assert.Len(t, cacheFiles(t, cacheDir, "python_requirements_txt_*.json"), 1)
	assert.Len(t, cacheFiles(t, cacheDir, "rust_src_lib_rs_*.json"), 1)
	assert.Empty(t, cacheFiles(t, cacheDir, "rust_target_*"))
}

func TestAnalyze_QuietAndMinConfidence(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cacheDir := t.TempDir()
	cfgFile := writeFile(t, filepath.Join(t.TempDir(), "config.yml"), "probe:\n  min_confidence: 0.95\n")
	writeFile(t, filepath.Join(root, "tool.py"), "x = 1\n")
	// Claimed by shebang at 0.8, below the threshold.
	writeFile(t, filepath.Join(root, "tool"), "#!/usr/bin/env python3\nimport sys\n")

	res := run(t, context.Background(), pythonFactory, "",
		"analyze", root, "--project-root", root, "--cache-dir", cacheDir, "--config", cfgFile, "--quiet")
	require.NoError(t, res.err, res.stderr)

	assert.Empty(t, res.stdout)
	assert.Len(t, cacheFiles(t, cacheDir, "python_tool_py_*.json"), 1)
	assert.Len(t, cacheFiles(t, cacheDir, "python_tool_*.json"), 1)
}

func TestCache_ListAndClean(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cacheDir := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "a = 1\n")
	writeFile(t, filepath.Join(root, "b.rs"), "fn b() {}\n")

	res := run(t, context.Background(), registryFactory, "", "analyze", root, "--project-root", root, "--cache-dir", cacheDir, "-q")
	require.NoError(t, res.err, res.stderr)

	res = run(t, context.Background(), registryFactory, "", "cache", "list", "--cache-dir", cacheDir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "python_a_py_")
	assert.Contains(t, res.stdout, "rust_b_rs_")
	assert.Contains(t, res.stdout, "2 results")

	res = run(t, context.Background(), registryFactory, "", "cache", "list", "--engine", "rust", "--cache-dir", cacheDir)
	require.NoError(t, res.err)
	assert.NotContains(t, res.stdout, "python_a_py_")
	assert.Contains(t, res.stdout, "1 results")

	res = run(t, context.Background(), registryFactory, "", "cache", "clean", "--engine", "python", "--dry-run", "--cache-dir", cacheDir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "would remove python_a_py_")
	assert.Len(t, cacheFiles(t, cacheDir, "*.json"), 2)

	res = run(t, context.Background(), registryFactory, "", "cache", "clean", "--engine", "python", "--cache-dir", cacheDir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "✓ Removed 1 results")
	assert.Empty(t, cacheFiles(t, cacheDir, "python_*.json"))
	assert.Len(t, cacheFiles(t, cacheDir, "rust_*.json"), 1)

	res = run(t, context.Background(), registryFactory, "", "cache", "clean", "--cache-dir", cacheDir)
	require.NoError(t, res.err)
	res = run(t, context.Background(), registryFactory, "", "cache", "list", "--cache-dir", cacheDir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No cached results")
}

func TestWatch_ReanalyzesChanges(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cacheDir := t.TempDir()
	cfgFile := writeFile(t, filepath.Join(t.TempDir(), "config.yml"), "watch:\n  debounce_ms: 50\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan result, 1)
	go func() {
		done <- run(t, ctx, pythonFactory, "", "watch", root, "--cache-dir", cacheDir, "--config", cfgFile)
	}()

	// Rewrite until the watcher has registered the directory and picked a change up.
	file := filepath.Join(root, "watched.py")
	n := 0
	require.Eventually(t, func() bool {
		n++
		_ = os.WriteFile(file, []byte("x = "+strings.Repeat("1", n)+"\n"), 0o644)
		return len(cacheFiles(t, cacheDir, "python_watched_py_*.json")) > 0
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "✓ watched.py")
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	res := run(t, context.Background(), pythonFactory, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "csd-test dev\nGit commit: none\nBuild date: unknown\n", res.stdout)
}

func TestInvalidConfig(t *testing.T) {
	t.Parallel()

	cfgFile := writeFile(t, filepath.Join(t.TempDir(), "config.yml"), "logging:\n  level: loud\n")
	res := run(t, context.Background(), pythonFactory, `{"type":"get_info"}`, "--config", cfgFile)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "failed to load config")
	assert.Empty(t, res.stdout)
}

func TestRelativePath(t *testing.T) {
	t.Parallel()

	root := filepath.Join(string(filepath.Separator), "repo")
	assert.Equal(t, "pkg/mod.py", relativePath(root, filepath.Join(root, "pkg", "mod.py")))
	assert.Equal(t, "other.py", relativePath(root, filepath.Join(string(filepath.Separator), "elsewhere", "other.py")))
}
