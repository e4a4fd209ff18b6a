package assets

import (
	"errors"
	"fmt"

	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/world"
)

// Event types published on the bus.
const (
	EventLoaded = "asset.loaded"
	EventFailed = "asset.failed"
)

var (
	ErrUnknownAsset  = errors.New("unknown asset")
	ErrAlreadyExists = errors.New("asset source already provided")
)

type Kind uint8

const (
	KindTemplate Kind = iota
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindTemplate:
		return "template"
	case KindContainer:
		return "container"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// LoadedEvent is the payload of EventLoaded and EventFailed.
type LoadedEvent struct {
	ID   models.AssetID
	Path string
	Kind Kind
	Err  error
}

// Template is a loaded scene definition: a standalone world whose top-level
// entities become children of every spawned instance root.
type Template struct {
	ID    models.AssetID
	Path  string
	World *world.World
}

// NewTemplate creates an empty template for path.
func NewTemplate(path string) *Template {
	return &Template{
		ID:    models.AssetIDOf(path),
		Path:  path,
		World: world.New(),
	}
}

// Add spawns a named entity in the template under parent (NoEntity for top level).
func (t *Template) Add(name string, parent models.EntityID, components ...models.Component) models.EntityID {
	e := t.World.Spawn()
	_ = t.World.SetName(e, name)
	for _, c := range components {
		_ = t.World.Insert(e, c)
	}
	if parent != models.NoEntity {
		_ = t.World.SetParent(e, parent)
	}
	return e
}

// Find returns the first entity (ascending ID) named name.
func (t *Template) Find(name string) (models.EntityID, bool) {
	for _, e := range t.World.Query() {
		if n, ok := t.World.Name(e); ok && n == name {
			return e, true
		}
	}
	return models.NoEntity, false
}

// Container is a bundle asset exposing embedded templates, conventionally using the first.
type Container struct {
	ID     models.AssetID
	Path   string
	Scenes []models.AssetID
}
