package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ternarybob/probo/internal/models"
)

// WriteJSON serializes a run summary to path
func WriteJSON(summary *models.RunSummary, path string, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(summary, "", "  ")
	} else {
		data, err = json.Marshal(summary)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}

// ParseSummary reads a JSON report back into a run summary
func ParseSummary(path string) (*models.RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON report: %w", err)
	}

	var summary models.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	return &summary, nil
}
