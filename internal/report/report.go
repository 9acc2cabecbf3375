// Package report renders the final run artifacts: a paginated PDF for
// humans and a JSON document for machines, one pair per run.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/models"
)

// Artifacts holds the paths of the rendered report documents
type Artifacts struct {
	PDFPath  string
	JSONPath string
}

// Renderer consumes a finished run summary and produces the report artifacts
type Renderer interface {
	Render(summary *models.RunSummary) (Artifacts, error)
}

// Writer renders a run summary to PDF and JSON files under a run directory
type Writer struct {
	logger arbor.ILogger
	dir    string
	pretty bool
}

// NewWriter creates a writer targeting dir. pretty controls JSON indentation.
func NewWriter(logger arbor.ILogger, dir string, pretty bool) *Writer {
	return &Writer{logger: logger, dir: dir, pretty: pretty}
}

// Render writes both artifacts, named by the run's start timestamp.
// A JSON failure after a successful PDF still returns the error; the
// caller decides how hard to fail.
func (w *Writer) Render(summary *models.RunSummary) (Artifacts, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return Artifacts{}, fmt.Errorf("failed to create reports directory: %w", err)
	}

	stamp := summary.StartedAt.Format("20060102_150405")
	artifacts := Artifacts{
		PDFPath:  filepath.Join(w.dir, fmt.Sprintf("test_report_%s.pdf", stamp)),
		JSONPath: filepath.Join(w.dir, fmt.Sprintf("test_report_%s.json", stamp)),
	}

	if err := writePDF(summary, artifacts.PDFPath); err != nil {
		return Artifacts{}, fmt.Errorf("failed to render PDF report: %w", err)
	}
	w.logger.Info().Str("path", artifacts.PDFPath).Msg("PDF report written")

	if err := WriteJSON(summary, artifacts.JSONPath, w.pretty); err != nil {
		return Artifacts{}, fmt.Errorf("failed to render JSON report: %w", err)
	}
	w.logger.Info().Str("path", artifacts.JSONPath).Msg("JSON report written")

	return artifacts, nil
}
