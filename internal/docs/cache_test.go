package docs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "seo.md", "# SEO rules\n")
	c := NewCache(dir, []string{"seo.md"})

	got, err := c.GetDocument("seo.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# SEO rules\n" {
		t.Errorf("content = %q", got)
	}
}

func TestGetDocumentMissing(t *testing.T) {
	c := NewCache(t.TempDir(), nil)
	_, err := c.GetDocument("nope.md")
	if !errors.Is(err, apperr.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestGetDocumentRejectsEscapingPaths(t *testing.T) {
	c := NewCache(t.TempDir(), nil)
	for _, name := range []string{"../secrets.md", "/etc/passwd", "a/../../b.md"} {
		if _, err := c.GetDocument(name); !errors.Is(err, apperr.ErrDocumentNotFound) {
			t.Errorf("GetDocument(%q) err = %v, want ErrDocumentNotFound", name, err)
		}
	}
}

func TestGetDocumentServesCacheWhileModTimeUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.md", "v1")
	c := NewCache(dir, []string{"doc.md"})

	if _, err := c.GetDocument("doc.md"); err != nil {
		t.Fatal(err)
	}

	// Rewrite the file but pin the old mod time: the stale cached copy must
	// still be served, since invalidation is modtime-based.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetDocument("doc.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != "v1" {
		t.Errorf("content = %q, want cached v1", got)
	}
}

func TestGetDocumentReloadsOnModTimeChange(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.md", "v1")
	c := NewCache(dir, []string{"doc.md"})

	if _, err := c.GetDocument("doc.md"); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetDocument("doc.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != "v2" {
		t.Errorf("content = %q, want reloaded v2", got)
	}
}

func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "doc.md", "v1")
	c := NewCache(dir, []string{"doc.md"})

	if _, err := c.GetDocument("doc.md"); err != nil {
		t.Fatal(err)
	}

	// Same trick as above: without ClearCache the stale copy would be served.
	info, _ := os.Stat(path)
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		t.Fatal(err)
	}

	c.ClearCache()
	c.ClearCache() // idempotent

	got, err := c.GetDocument("doc.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != "v2" {
		t.Errorf("content = %q, want v2 after cache clear", got)
	}
}

func TestGetAllGuidelines(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md", "alpha")
	writeDoc(t, dir, "b.md", "bravo")
	writeDoc(t, dir, "c.md", "charlie")
	c := NewCache(dir, []string{"a.md", "b.md", "c.md"})

	got, err := c.GetAllGuidelines()
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{"alpha", "bravo", "charlie"}, Separator)
	if got != want {
		t.Errorf("combined = %q, want %q", got, want)
	}
}

func TestGetAllGuidelinesFailsOnAnyMissing(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md", "alpha")
	c := NewCache(dir, []string{"a.md", "missing.md"})

	if _, err := c.GetAllGuidelines(); !errors.Is(err, apperr.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestGetAllGuidelinesConcurrentReaders(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md", "alpha")
	writeDoc(t, dir, "b.md", "bravo")
	c := NewCache(dir, []string{"a.md", "b.md"})

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := c.GetAllGuidelines()
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}
