package fab

import (
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/scene"
	"github.com/zeusync/scenefab/internal/core/world"
)

var ContainerSceneID = models.ComponentIDOf("fab.ContainerScene")

// ContainerScene is a spawn waiting for its container to load.
type ContainerScene struct {
	Container models.AssetID
	Index     int
}

func (ContainerScene) TypeID() models.ComponentID { return ContainerSceneID }

// SpawnScene describes one instantiation request.
type SpawnScene struct {
	// Target is a scene, or a container combined with SceneIndex.
	Target     Target
	SceneIndex int
	// Into spawns the scene onto an existing entity instead of a new one.
	Into       models.EntityID
	Name       string
	Components []models.Component
}

func NewSpawn(target Target) SpawnScene {
	return SpawnScene{Target: target}
}

func (s SpawnScene) WithScene(index int) SpawnScene {
	s.SceneIndex = index
	return s
}

func (s SpawnScene) IntoEntity(e models.EntityID) SpawnScene {
	s.Into = e
	return s
}

func (s SpawnScene) Named(name string) SpawnScene {
	s.Name = name
	return s
}

func (s SpawnScene) With(components ...models.Component) SpawnScene {
	s.Components = append(append([]models.Component(nil), s.Components...), components...)
	return s
}

// Spawn returns the root entity now and attaches the scene on the next command flush.
func (e *Engine) Spawn(w *world.World, req SpawnScene) models.EntityID {
	return e.spawn(w, req, nil)
}

// SpawnVariant is Spawn with extra postfab steps applied to this instance only.
func (e *Engine) SpawnVariant(w *world.World, req SpawnScene, steps ...Step) models.EntityID {
	return e.spawn(w, req, NewPipeline(steps...))
}

func (e *Engine) spawn(w *world.World, req SpawnScene, variant *Pipeline) models.EntityID {
	root := req.Into
	if root == models.NoEntity {
		root = w.Spawn()
	}

	w.Commands().Push(func(w *world.World) error {
		if req.Name != "" {
			if err := w.SetName(root, req.Name); err != nil {
				return err
			}
		}
		for _, c := range req.Components {
			if err := w.Insert(root, c); err != nil {
				return err
			}
		}
		if variant != nil {
			if err := w.Insert(root, VariantOverlay{Pipeline: variant}); err != nil {
				return err
			}
		}
		if req.Target.IsContainer() {
			return w.Insert(root, ContainerScene{Container: req.Target.ID(), Index: req.SceneIndex})
		}
		return w.Insert(root, scene.SceneRoot{Scene: req.Target.ID()})
	})
	return root
}

// resolveContainerSpawns swaps ContainerScene for the SceneRoot of the
// embedded scene once the container has loaded.
func (e *Engine) resolveContainerSpawns(w *world.World) {
	for _, root := range w.Query(ContainerSceneID) {
		cs, ok := world.Lookup[ContainerScene](w, root, ContainerSceneID)
		if !ok || !e.assets.IsLoadedWithDependencies(cs.Container) {
			continue
		}
		_ = w.Remove(root, ContainerSceneID)
		id, ok := e.assets.EmbeddedTemplate(cs.Container, cs.Index)
		if !ok {
			e.log.Warn("cannot spawn scene from container",
				log.Asset(cs.Container), log.Int("index", cs.Index), log.Entity(root))
			continue
		}
		if err := w.Insert(root, scene.SceneRoot{Scene: id}); err != nil {
			e.log.Warn("cannot attach scene", log.Entity(root), log.Error(err))
		}
	}
}
