package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mvp-joe/csd-analyzers/internal/ir"
)

// pathReplacer flattens a relative path into a filename fragment.
var pathReplacer = strings.NewReplacer("/", "_", `\`, "_", ".", "_")

// FileName returns the cache filename for an analysis of in by engine:
// {engine}_{sanitized relative path}_{content hash}.json.
// The name is a pure function of the engine, the paths and the content.
func FileName(engine string, in *ir.Input) string {
	return engine + "_" + SanitizePath(in.RelativePath) + "_" + ContentHash(in.FilePath, in.Content) + ".json"
}

// ContentHash returns the 16 hex character xxhash64 of filePath followed by content.
func ContentHash(filePath, content string) string {
	d := xxhash.New()
	d.WriteString(filePath)
	d.WriteString(content)
	return fmt.Sprintf("%016x", d.Sum64())
}

// SanitizePath replaces path separators and dots with underscores.
func SanitizePath(rel string) string {
	return pathReplacer.Replace(rel)
}

// FileHash returns the SHA-256 hex digest of content.
func FileHash(content string) string {
	return hashString(content)
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
