package dashboard

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/harness"
	"github.com/ternarybob/probo/internal/runlog"
)

// fakeDriver serves canned page sources keyed by URL and answers script
// evaluations from a substring-matched table.
type fakeDriver struct {
	pages    map[string]string
	openErrs map[string]error
	counts   map[string]int
	evals    map[string]any

	current string
	opened  []string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		pages:    make(map[string]string),
		openErrs: make(map[string]error),
		counts:   make(map[string]int),
		evals:    make(map[string]any),
	}
}

func (f *fakeDriver) Open(url string) error {
	f.opened = append(f.opened, url)
	if err := f.openErrs[url]; err != nil {
		return err
	}
	f.current = url
	return nil
}

func (f *fakeDriver) Title() (string, error) {
	return "Microclimate Dashboard", nil
}

func (f *fakeDriver) WaitVisible(string, time.Duration) error { return nil }

func (f *fakeDriver) Exists(selector string) (bool, error) {
	count, err := f.Count(selector)
	return count > 0, err
}

func (f *fakeDriver) Count(selector string) (int, error) {
	return f.counts[selector], nil
}

func (f *fakeDriver) Click(string) error { return nil }

func (f *fakeDriver) Type(string, string) error { return nil }

func (f *fakeDriver) Evaluate(expression string, result any) error {
	for fragment, value := range f.evals {
		if !strings.Contains(expression, fragment) {
			continue
		}
		switch out := result.(type) {
		case *bool:
			*out = value.(bool)
		case *int:
			*out = value.(int)
		case nil:
		default:
			return fmt.Errorf("unsupported result type %T", result)
		}
		return nil
	}
	return nil
}

func (f *fakeDriver) Source() (string, error) {
	return f.pages[f.current], nil
}

func (f *fakeDriver) Screenshot() ([]byte, error) {
	return []byte("png"), nil
}

func (f *fakeDriver) Close() error { return nil }

func testConfig() *common.Config {
	config := common.NewDefaultConfig()
	config.Target.BaseURL = "http://dash.test/"
	config.Browser.SettleDelay = 0
	return config
}

func testHarness(t *testing.T) (*runlog.Logger, *harness.Recorder) {
	t.Helper()
	log := runlog.New(arbor.NewLogger(), t.TempDir())
	t.Cleanup(log.Close)
	return log, harness.NewRecorder(log, nil)
}
