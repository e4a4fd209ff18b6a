package scene

import (
	"slices"
	"sync"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/world"
)

var (
	SceneRootID     = models.ComponentIDOf("scene.SceneRoot")
	SceneInstanceID = models.ComponentIDOf("scene.SceneInstance")
)

// SceneRoot asks the spawner to instantiate a template under the entity carrying it.
type SceneRoot struct {
	Scene models.AssetID
}

func (SceneRoot) TypeID() models.ComponentID { return SceneRootID }

type InstanceID uint64

// SceneInstance marks a root whose template has been instantiated.
type SceneInstance struct {
	ID InstanceID
}

func (SceneInstance) TypeID() models.ComponentID { return SceneInstanceID }

// TemplateSource resolves loaded templates.
type TemplateSource interface {
	Template(id models.AssetID) (*assets.Template, bool)
}

type Config struct {
	// MaterializeTicks is how many Update calls pass between instantiation and readiness.
	MaterializeTicks int
}

type instance struct {
	root      models.EntityID
	scene     models.AssetID
	remaining int
	entities  []models.EntityID
}

// Spawner instantiates templates into a world and tracks when each instance is ready.
type Spawner struct {
	mu               sync.RWMutex
	templates        TemplateSource
	log              log.Log
	materializeTicks int
	next             InstanceID
	instances        map[InstanceID]*instance
	byRoot           map[models.EntityID]InstanceID
}

func NewSpawner(cfg Config, templates TemplateSource, l log.Log) *Spawner {
	return &Spawner{
		templates:        templates,
		log:              l.With(log.String("component", "spawner")),
		materializeTicks: max(cfg.MaterializeTicks, 0),
		next:             1,
		instances:        make(map[InstanceID]*instance),
		byRoot:           make(map[models.EntityID]InstanceID),
	}
}

// Update advances materializing instances, forgets despawned roots and
// instantiates every pending SceneRoot whose template has loaded.
func (s *Spawner) Update(w *world.World) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, inst := range s.instances {
		if !w.Exists(inst.root) {
			delete(s.byRoot, inst.root)
			delete(s.instances, id)
			continue
		}
		if inst.remaining > 0 {
			inst.remaining--
		}
	}

	for _, root := range w.Query(SceneRootID) {
		if w.Has(root, SceneInstanceID) {
			continue
		}
		sr, _ := world.Lookup[SceneRoot](w, root, SceneRootID)
		tpl, ok := s.templates.Template(sr.Scene)
		if !ok {
			continue
		}
		s.instantiate(w, root, tpl)
	}
}

func (s *Spawner) instantiate(w *world.World, root models.EntityID, tpl *assets.Template) {
	src := tpl.World
	mapped := make(map[models.EntityID]models.EntityID)
	for _, e := range src.Query() {
		ne := w.Spawn()
		mapped[e] = ne
		if name, ok := src.Name(e); ok {
			_ = w.SetName(ne, name)
		}
		for _, c := range src.Components(e) {
			_ = w.Insert(ne, models.CloneComponent(c))
		}
	}

	inst := &instance{root: root, scene: tpl.ID, remaining: s.materializeTicks}
	for _, top := range src.Roots() {
		_ = w.SetParent(mapped[top], root)
		inst.entities = append(inst.entities, mapped[top])
		for _, d := range src.Descendants(top) {
			parent, _ := src.Parent(d)
			_ = w.SetParent(mapped[d], mapped[parent])
			inst.entities = append(inst.entities, mapped[d])
		}
	}

	id := s.next
	s.next++
	s.instances[id] = inst
	s.byRoot[root] = id
	_ = w.Insert(root, SceneInstance{ID: id})

	s.log.Debug("scene instantiated",
		log.Entity(root),
		log.Asset(tpl.ID),
		log.Int("entities", len(inst.entities)),
		log.Uint64("instance", uint64(id)),
	)
}

// IsReady reports whether the instance rooted at root has finished materializing.
func (s *Spawner) IsReady(root models.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRoot[root]
	if !ok {
		return false
	}
	return s.instances[id].remaining == 0
}

// Entities returns the entities created for the instance rooted at root.
func (s *Spawner) Entities(root models.EntityID) []models.EntityID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRoot[root]
	if !ok {
		return nil
	}
	return slices.Clone(s.instances[id].entities)
}
