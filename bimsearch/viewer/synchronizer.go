// Package viewer projects search results onto the 3D scene: isolation,
// show-all restore, and the hover/select highlight layers.
package viewer

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
)

// BuildMapping groups result items into a container -> externalIds mapping.
// Items are assumed deduplicated by identity (the executor guarantees it).
func BuildMapping(items []element.ResultItem) Mapping {
	m := make(Mapping)
	for _, item := range items {
		m[item.ContainerID] = append(m[item.ContainerID], item.ExternalID)
	}
	return m
}

// Synchronizer is the only writer of the scene's visibility and highlight
// state. All calls are serialized under one mutex so a hover update can
// never interleave with an in-progress isolate.
type Synchronizer struct {
	mu       sync.Mutex
	scene    SceneViewer
	isolated Mapping // last applied isolate mapping, nil after ShowAll
}

func NewSynchronizer(scene SceneViewer) *Synchronizer {
	return &Synchronizer{scene: scene}
}

// Isolate shows exactly the given result set, fully superseding any prior
// isolate or show-all.
func (s *Synchronizer) Isolate(items []element.ResultItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := BuildMapping(items)
	if err := s.scene.Isolate(mapping); err != nil {
		return errors.Wrap(err, "isolate")
	}
	s.isolated = mapping
	return nil
}

// ShowAll restores visibility of every element, fully superseding any prior
// isolate.
func (s *Synchronizer) ShowAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scene.SetAllVisible(true); err != nil {
		return errors.Wrap(err, "show all")
	}
	s.isolated = nil
	return nil
}

// Isolated returns the last applied isolate mapping, or nil when the scene
// is in show-all state.
func (s *Synchronizer) Isolated() Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isolated
}

// Hover marks one element on the hover layer, replacing the previous hover
// mark. The select layer and the isolate mapping are untouched.
func (s *Synchronizer) Hover(containerID string, externalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := Mapping{containerID: {externalID}}
	if err := s.scene.ClearHighlight(LayerHover); err != nil {
		return errors.Wrap(err, "clear hover")
	}
	if err := s.scene.Highlight(LayerHover, mapping, false, false); err != nil {
		return errors.Wrap(err, "hover")
	}
	return nil
}

// ClearHover clears the hover layer only.
func (s *Synchronizer) ClearHover() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scene.ClearHighlight(LayerHover); err != nil {
		return errors.Wrap(err, "clear hover")
	}
	return nil
}

// Select marks the given items on the persistent select layer, replacing
// the previous selection.
func (s *Synchronizer) Select(items []element.ResultItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scene.ClearHighlight(LayerSelect); err != nil {
		return errors.Wrap(err, "clear select")
	}
	if err := s.scene.Highlight(LayerSelect, BuildMapping(items), false, false); err != nil {
		return errors.Wrap(err, "select")
	}
	return nil
}

// ClearSelect clears the select layer only.
func (s *Synchronizer) ClearSelect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scene.ClearHighlight(LayerSelect); err != nil {
		return errors.Wrap(err, "clear select")
	}
	return nil
}

// FitCamera frames the current isolate mapping. A show-all scene is left
// alone.
func (s *Synchronizer) FitCamera() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isolated == nil {
		return nil
	}
	if err := s.scene.FitCameraTo(s.isolated); err != nil {
		return errors.Wrap(err, "fit camera")
	}
	return nil
}
