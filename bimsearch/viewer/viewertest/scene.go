// Package viewertest provides a recording SceneViewer for tests.
package viewertest

import (
	"sync"

	"github.com/krew-solutions/bimsearch-go/bimsearch/viewer"
)

// Call records one scene engine invocation.
type Call struct {
	Op      string // "isolate", "setAllVisible", "highlight", "clearHighlight", "fitCameraTo"
	Mapping viewer.Mapping
	Layer   string
	Visible bool
}

// Scene records every call and replays a configurable error.
type Scene struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

func NewScene() *Scene {
	return &Scene{}
}

// Calls returns a copy of the recorded calls.
func (s *Scene) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsOf returns the recorded calls with the given op.
func (s *Scene) CallsOf(op string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets all recorded calls.
func (s *Scene) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Scene) record(c Call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.calls = append(s.calls, c)
	return nil
}

func (s *Scene) Isolate(mapping viewer.Mapping) error {
	return s.record(Call{Op: "isolate", Mapping: mapping})
}

func (s *Scene) SetAllVisible(visible bool) error {
	return s.record(Call{Op: "setAllVisible", Visible: visible})
}

func (s *Scene) Highlight(layer string, mapping viewer.Mapping, additive, exclusive bool) error {
	return s.record(Call{Op: "highlight", Layer: layer, Mapping: mapping})
}

func (s *Scene) ClearHighlight(layer string) error {
	return s.record(Call{Op: "clearHighlight", Layer: layer})
}

func (s *Scene) FitCameraTo(mapping viewer.Mapping) error {
	return s.record(Call{Op: "fitCameraTo", Mapping: mapping})
}
