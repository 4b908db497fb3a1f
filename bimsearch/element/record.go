// Package element holds the building-model element records owned by the
// backing store and the result projections the search UI works with.
package element

import "fmt"

// Identity is the element identity key. Two records with the same identity
// are the same element.
type Identity struct {
	ContainerID string
	ExternalID  int64
}

func (id Identity) String() string {
	return fmt.Sprintf("%s%d", id.ContainerID, id.ExternalID)
}

// AttributeValue wraps a single named attribute value of a record.
type AttributeValue struct {
	Value any `json:"value" yaml:"value"`
}

// Record is one identifiable object within a loaded model container.
// Records are owned by the backing store; the engine only reads them.
type Record struct {
	ContainerID string                    `json:"containerId" yaml:"container_id"`
	ExternalID  int64                     `json:"externalId" yaml:"external_id"`
	Category    string                    `json:"category" yaml:"category"`
	Attributes  map[string]AttributeValue `json:"attributes" yaml:"attributes"`
}

func (r Record) Identity() Identity {
	return Identity{ContainerID: r.ContainerID, ExternalID: r.ExternalID}
}

// Attribute returns the raw value of a named attribute.
func (r Record) Attribute(name string) (any, bool) {
	av, ok := r.Attributes[name]
	if !ok {
		return nil, false
	}
	return av.Value, true
}

// StringAttribute returns the named attribute rendered as a string,
// or "" when the attribute is absent.
func (r Record) StringAttribute(name string) string {
	v, ok := r.Attribute(name)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
