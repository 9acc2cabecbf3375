package browser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScreenshotter struct {
	data []byte
	err  error
}

func (s *stubScreenshotter) Screenshot() ([]byte, error) {
	return s.data, s.err
}

func TestCapture_SavesNumberedFiles(t *testing.T) {
	runDir := t.TempDir()
	store := NewEvidenceStore(&stubScreenshotter{data: []byte("png")}, runDir)

	first, err := store.Capture("Title Check")
	require.NoError(t, err)
	second, err := store.Capture("Sensor Scan")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(first), "01_title_check-"))
	assert.True(t, strings.HasPrefix(filepath.Base(second), "02_sensor_scan-"))
	assert.Equal(t, filepath.Join(runDir, "screenshots"), filepath.Dir(first))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestCapture_DriverError(t *testing.T) {
	store := NewEvidenceStore(&stubScreenshotter{err: errors.New("display gone")}, t.TempDir())

	_, err := store.Capture("anything")
	require.Error(t, err)

	// No screenshots directory created when capture fails
	_, statErr := os.Stat(filepath.Join(store.dir))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "download_csv_export", sanitize("Download CSV Export"))
	assert.Equal(t, "failure_sensor_scan", sanitize("failure_Sensor Scan"))
	assert.Equal(t, "petengoran_station1", sanitize("petengoran/station1"))
	assert.Equal(t, "100_complete", sanitize("100% complete!"))
}
