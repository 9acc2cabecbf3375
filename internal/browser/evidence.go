package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Screenshotter is the capture half of Driver, all EvidenceStore needs
type Screenshotter interface {
	Screenshot() ([]byte, error)
}

// EvidenceStore saves numbered screenshots under <runDir>/screenshots.
// It implements the harness EvidenceCapturer interface.
type EvidenceStore struct {
	driver Screenshotter
	dir    string

	mu      sync.Mutex
	counter int
}

// NewEvidenceStore creates a store writing under runDir. The screenshots
// directory is created lazily on first capture.
func NewEvidenceStore(driver Screenshotter, runDir string) *EvidenceStore {
	return &EvidenceStore{
		driver: driver,
		dir:    filepath.Join(runDir, "screenshots"),
	}
}

// Capture takes a screenshot and saves it as NN_name-timestamp.png,
// returning the saved path.
func (s *EvidenceStore) Capture(name string) (string, error) {
	buf, err := s.driver.Screenshot()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshots directory: %w", err)
	}

	s.mu.Lock()
	s.counter++
	number := s.counter
	s.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%02d_%s-%s.png", number, sanitize(name), timestamp)
	path := filepath.Join(s.dir, filename)

	if err := os.WriteFile(path, buf, 0644); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}
	return path, nil
}

// sanitize turns a step name into a safe filename fragment
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '/':
			b.WriteRune('_')
		}
	}
	return b.String()
}
