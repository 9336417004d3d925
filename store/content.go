package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/vetmap/textnorm"
)

// ContentStore keeps the per-clinic artifacts on disk: the combined team
// document as .txt, the screenshot fallback as .png, and unparseable
// extractor replies under failed/ for later inspection.
type ContentStore struct {
	dir string
}

// NewContentStore creates the docs directory (and its failed/ side channel)
// if missing.
func NewContentStore(dir string) (*ContentStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "failed"), 0o755); err != nil {
		return nil, fmt.Errorf("store: create docs dir %s: %w", dir, err)
	}
	return &ContentStore{dir: dir}, nil
}

// TextPath returns where the combined document of a clinic lives.
func (s *ContentStore) TextPath(name string) string {
	return filepath.Join(s.dir, textnorm.SanitizeFilename(name)+".txt")
}

// ScreenshotPath returns where the screenshot fallback of a clinic lives.
func (s *ContentStore) ScreenshotPath(name string) string {
	return filepath.Join(s.dir, textnorm.SanitizeFilename(name)+".png")
}

// HasArtifact reports whether the clinic already produced a text document or
// a screenshot; such sites are skipped on re-runs.
func (s *ContentStore) HasArtifact(name string) bool {
	if _, err := os.Stat(s.TextPath(name)); err == nil {
		return true
	}
	if _, err := os.Stat(s.ScreenshotPath(name)); err == nil {
		return true
	}
	return false
}

// SaveText writes the combined team document.
func (s *ContentStore) SaveText(name, text string) error {
	if err := os.WriteFile(s.TextPath(name), []byte(text), 0o644); err != nil {
		return fmt.Errorf("store: save text for %q: %w", name, err)
	}
	return nil
}

// SaveScreenshot writes the screenshot fallback.
func (s *ContentStore) SaveScreenshot(name string, png []byte) error {
	if err := os.WriteFile(s.ScreenshotPath(name), png, 0o644); err != nil {
		return fmt.Errorf("store: save screenshot for %q: %w", name, err)
	}
	return nil
}

// SaveFailed records a raw extractor reply that could not be parsed.
func (s *ContentStore) SaveFailed(name, raw string) error {
	path := filepath.Join(s.dir, "failed", "Failed_"+textnorm.SanitizeFilename(name)+".json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("store: save failed reply for %q: %w", name, err)
	}
	return nil
}
