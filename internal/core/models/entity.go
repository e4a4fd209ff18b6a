package models

import "github.com/cespare/xxhash/v2"

// EntityID identifies an entity inside a single world. Zero is never allocated.
type EntityID uint64

// NoEntity is the zero EntityID, used where an operation has no target entity.
const NoEntity EntityID = 0

// ComponentID is a stable 64-bit token naming a component type.
type ComponentID uint64

// Component is any value attached to an entity. Presence is keyed by TypeID.
type Component interface {
	TypeID() ComponentID
}

// Cloner is implemented by components that carry reference data and must be
// deep-copied when a template tree is instantiated.
type Cloner interface {
	Component
	Clone() Component
}

// CloneComponent returns an independent copy of c when it implements Cloner,
// otherwise c itself.
func CloneComponent(c Component) Component {
	if cl, ok := c.(Cloner); ok {
		return cl.Clone()
	}
	return c
}

// ComponentIDOf derives the token for a component type name.
// The same name always yields the same token across processes.
func ComponentIDOf(name string) ComponentID {
	return ComponentID(xxhash.Sum64String("component:" + name))
}

// Marker is a data-less component identified only by its token.
type Marker struct {
	ID   ComponentID
	Name string
}

// NewMarker builds a marker component for the given type name.
func NewMarker(name string) Marker {
	return Marker{ID: ComponentIDOf(name), Name: name}
}

func (m Marker) TypeID() ComponentID { return m.ID }
