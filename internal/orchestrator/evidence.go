package orchestrator

import (
	"fmt"
	"sync"

	"github.com/ternarybob/probo/internal/harness"
)

// evidenceProxy lets the recorder exist before the browser does. Capture
// fails softly until a real store is bound after driver init.
type evidenceProxy struct {
	mu    sync.Mutex
	inner harness.EvidenceCapturer
}

func (p *evidenceProxy) set(inner harness.EvidenceCapturer) {
	p.mu.Lock()
	p.inner = inner
	p.mu.Unlock()
}

func (p *evidenceProxy) Capture(name string) (string, error) {
	p.mu.Lock()
	inner := p.inner
	p.mu.Unlock()

	if inner == nil {
		return "", fmt.Errorf("no browser available for capture")
	}
	return inner.Capture(name)
}
