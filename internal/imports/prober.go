package imports

import (
	"fmt"
	"os"

	"github.com/maypok86/otter"
)

// Prober reports whether a filesystem path exists.
type Prober interface {
	Exists(path string) bool
}

// OSProber checks the real filesystem.
type OSProber struct{}

// Exists implements Prober.
func (OSProber) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CachedProber memoizes another prober's answers. Batch runs analyze many files that import
// the same modules, so the same candidate paths get probed over and over.
type CachedProber struct {
	next  Prober
	cache otter.Cache[string, bool]
}

// NewCachedProber wraps next with a bounded cache holding up to capacity paths.
func NewCachedProber(next Prober, capacity int) (*CachedProber, error) {
	c, err := otter.MustBuilder[string, bool](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build probe cache: %w", err)
	}
	return &CachedProber{next: next, cache: c}, nil
}

// Exists implements Prober.
func (p *CachedProber) Exists(path string) bool {
	if ok, hit := p.cache.Get(path); hit {
		return ok
	}
	ok := p.next.Exists(path)
	p.cache.Set(path, ok)
	return ok
}

// Close releases the cache.
func (p *CachedProber) Close() {
	p.cache.Close()
}
