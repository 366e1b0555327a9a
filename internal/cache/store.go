// Package cache persists analysis outputs as JSON files named by content.
//
// Writes need no locking: a name is derived from (engine, path, content), so two writers of
// the same name write the same bytes, and the rename makes each write all-or-nothing.
package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
)

// ErrCacheDirRequired is returned when a store is used without a directory.
var ErrCacheDirRequired = errors.New("cache directory is required")

// DefaultPattern matches every cache file.
const DefaultPattern = "*.json"

// cacheFileMode is the permission of written cache files.
const cacheFileMode os.FileMode = 0o644

// Store reads and writes cache files in one directory.
type Store struct {
	dir string
}

// Entry describes one cache file.
type Entry struct {
	Name    string
	Engine  string
	Size    int64
	ModTime time.Time
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrCacheDirRequired
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// Write stores out under name, creating the directory when needed. The JSON is indented by two
// spaces and HTML characters are left unescaped.
func (s *Store) Write(name string, out *ir.Output) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	// CreateTemp creates the file 0600.
	if err := os.Chmod(tmpPath, cacheFileMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set cache file mode: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Read loads the output stored under name.
func (s *Store) Read(name string) (*ir.Output, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var out ir.Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", name, err)
	}
	return &out, nil
}

// List returns the cache files whose names match the glob pattern, sorted by name. A missing
// directory is an empty cache.
func (s *Store) List(pattern string) ([]Entry, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	entries := []Entry{}
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !g.Match(name) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		engine, _, _ := strings.Cut(name, "_")
		entries = append(entries, Entry{
			Name:    name,
			Engine:  engine,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Clean removes the cache files matching pattern and returns them. With dryRun nothing is
// removed.
func (s *Store) Clean(pattern string, dryRun bool) ([]Entry, error) {
	entries, err := s.List(pattern)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return entries, nil
	}

	removed := make([]Entry, 0, len(entries))
	var errs []error
	for _, e := range entries {
		if err := os.Remove(filepath.Join(s.dir, e.Name)); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", e.Name, err))
			continue
		}
		removed = append(removed, e)
	}
	return removed, errors.Join(errs...)
}

// EnginePattern returns the glob matching one engine's cache files.
func EnginePattern(engine string) string {
	if engine == "" {
		return DefaultPattern
	}
	return engine + "_*.json"
}
