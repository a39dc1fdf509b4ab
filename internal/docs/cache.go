// Package docs loads and caches the guideline documents that feed outline
// prompt assembly. Entries are invalidated by file modification time.
package docs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/apperr"
)

// Separator joins individual guideline documents in the combined blob.
const Separator = "\n\n---\n\n"

// Cache memoizes guideline document content keyed by filename.
type Cache struct {
	root       string
	guidelines []string

	mu      sync.Mutex
	content map[string]string
	modTime map[string]time.Time
}

// NewCache creates a cache rooted at dir. guidelines is the fixed, ordered
// set of filenames GetAllGuidelines assembles.
func NewCache(dir string, guidelines []string) *Cache {
	return &Cache{
		root:       dir,
		guidelines: guidelines,
		content:    make(map[string]string),
		modTime:    make(map[string]time.Time),
	}
}

// GetDocument returns the content of the named document. The backing file is
// stat'ed on every call; the cached copy is served only while its recorded
// modification time matches the file's current one.
func (c *Cache) GetDocument(filename string) (string, error) {
	path, err := c.safePath(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", apperr.ErrDocumentNotFound, filename, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", apperr.ErrDocumentNotFound, filename, err)
	}
	mod := info.ModTime()

	c.mu.Lock()
	if cached, ok := c.content[filename]; ok && c.modTime[filename].Equal(mod) {
		c.mu.Unlock()
		slog.Debug("docs: cache hit", slog.String("file", filename))
		return cached, nil
	}
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", apperr.ErrDocumentNotFound, filename, err)
	}
	text := string(data)

	// Content and mod time are updated together under one lock so a reader
	// never sees a fresh timestamp paired with stale content.
	c.mu.Lock()
	c.content[filename] = text
	c.modTime[filename] = mod
	c.mu.Unlock()

	slog.Debug("docs: loaded", slog.String("file", filename))
	return text, nil
}

// GetAllGuidelines fetches the configured guideline documents concurrently
// and joins them, in configured order, into one combined text blob. It fails
// if any single fetch fails; a partial guideline set is never returned.
func (c *Cache) GetAllGuidelines() (string, error) {
	parts := make([]string, len(c.guidelines))

	var g errgroup.Group
	for i, name := range c.guidelines {
		g.Go(func() error {
			text, err := c.GetDocument(name)
			if err != nil {
				return err
			}
			parts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(parts, Separator), nil
}

// ClearCache unconditionally drops all cached entries. Idempotent; used when
// guideline documents are edited out-of-band.
func (c *Cache) ClearCache() {
	c.mu.Lock()
	c.content = make(map[string]string)
	c.modTime = make(map[string]time.Time)
	c.mu.Unlock()
	slog.Info("docs: cache cleared")
}

// safePath resolves filename against the docs root and rejects any result
// that escapes it.
func (c *Cache) safePath(filename string) (string, error) {
	cleaned := filepath.Clean(filename)
	if cleaned == "" || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid document name: %s", filename)
	}
	return filepath.Join(c.root, cleaned), nil
}
