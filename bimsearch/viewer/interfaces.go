package viewer

// Mapping addresses elements across containers: containerId -> externalIds.
type Mapping map[string][]int64

// Highlight layer names. Hover is transient and must never disturb the
// persistent selection marking.
const (
	LayerSelect = "select"
	LayerHover  = "hover"
)

// SceneViewer is the narrow surface of the 3D rendering collaborator.
// Implementations are external; this package only instructs them.
type SceneViewer interface {
	// Isolate shows exactly the mapped elements and hides everything else.
	Isolate(mapping Mapping) error
	// SetAllVisible toggles visibility of every element in every container.
	SetAllVisible(visible bool) error
	// Highlight marks the mapped elements on a named layer. additive keeps
	// existing marks on the layer; exclusive clears other layers' marks on
	// the same elements.
	Highlight(layer string, mapping Mapping, additive, exclusive bool) error
	// ClearHighlight clears one named layer, leaving the others untouched.
	ClearHighlight(layer string) error
	// FitCameraTo frames the mapped elements.
	FitCameraTo(mapping Mapping) error
}
