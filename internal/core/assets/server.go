package assets

import (
	"fmt"
	"sync"

	"github.com/zeusync/scenefab/internal/core/events/bus"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
)

type Config struct {
	// LoadTicks is how many Update calls a load takes to complete. Values below 1 mean one.
	LoadTicks int
}

type State uint8

const (
	StateNotLoaded State = iota
	StateLoading
	StateLoaded
	StateFailed
)

type loading struct {
	state     State
	remaining int
}

type containerSource struct {
	path   string
	scenes []string
}

// Server simulates an asynchronous asset loader. Sources are provided up front,
// standing in for files on disk; Load starts streaming and Update advances it.
type Server struct {
	mu        sync.RWMutex
	bus       bus.EventBus
	log       log.Log
	loadTicks int

	templateSources  map[models.AssetID]*Template
	containerSources map[models.AssetID]containerSource

	paths      map[models.AssetID]string
	states     map[models.AssetID]*loading
	order      []models.AssetID
	templates  map[models.AssetID]*Template
	containers map[models.AssetID]*Container
}

func NewServer(cfg Config, b bus.EventBus, l log.Log) *Server {
	ticks := cfg.LoadTicks
	if ticks < 1 {
		ticks = 1
	}
	return &Server{
		bus:              b,
		log:              l.With(log.String("component", "assets")),
		loadTicks:        ticks,
		templateSources:  make(map[models.AssetID]*Template),
		containerSources: make(map[models.AssetID]containerSource),
		paths:            make(map[models.AssetID]string),
		states:           make(map[models.AssetID]*loading),
		templates:        make(map[models.AssetID]*Template),
		containers:       make(map[models.AssetID]*Container),
	}
}

// Bus returns the bus load events are published on.
func (s *Server) Bus() bus.EventBus {
	return s.bus
}

// ProvideTemplate makes a template source available for loading.
func (s *Server) ProvideTemplate(t *Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[t.ID]; ok {
		return fmt.Errorf("%s: %w", t.Path, ErrAlreadyExists)
	}
	s.templateSources[t.ID] = t
	s.paths[t.ID] = t.Path
	return nil
}

// ProvideContainer makes a bundle source available. Embedded scenes are
// referenced by template path and loaded as dependencies of the bundle.
func (s *Server) ProvideContainer(path string, scenes ...string) (models.AssetID, error) {
	id := models.AssetIDOf(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[id]; ok {
		return id, fmt.Errorf("%s: %w", path, ErrAlreadyExists)
	}
	s.containerSources[id] = containerSource{path: path, scenes: scenes}
	s.paths[id] = path
	return id, nil
}

// Load starts loading path and returns its identity. Loading an asset that is
// already loading or loaded is a no-op. Unknown paths fail on the next Update.
func (s *Server) Load(path string) models.AssetID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(path)
}

func (s *Server) loadLocked(path string) models.AssetID {
	id := models.AssetIDOf(path)
	if _, ok := s.states[id]; ok {
		return id
	}
	if _, ok := s.paths[id]; !ok {
		s.paths[id] = path
	}
	s.states[id] = &loading{state: StateLoading, remaining: s.loadTicks}
	s.order = append(s.order, id)
	if src, ok := s.containerSources[id]; ok {
		for _, scene := range src.scenes {
			s.loadLocked(scene)
		}
	}
	return id
}

// Update advances in-flight loads by one tick and publishes completion events.
// Embedded templates complete before (or in the same tick as) their bundle.
func (s *Server) Update() {
	var events []bus.Event

	s.mu.Lock()
	for _, id := range s.order {
		st := s.states[id]
		if st.state != StateLoading {
			continue
		}
		st.remaining--
		if _, isContainer := s.containerSources[id]; isContainer {
			continue
		}
		if st.remaining > 0 {
			continue
		}
		tpl, ok := s.templateSources[id]
		if !ok {
			st.state = StateFailed
			events = append(events, bus.NewEvent(EventFailed, "assets", LoadedEvent{
				ID: id, Path: s.paths[id], Kind: KindTemplate, Err: ErrUnknownAsset,
			}))
			continue
		}
		st.state = StateLoaded
		s.templates[id] = tpl
		events = append(events, bus.NewEvent(EventLoaded, "assets", LoadedEvent{
			ID: id, Path: tpl.Path, Kind: KindTemplate,
		}))
	}
	for _, id := range s.order {
		src, isContainer := s.containerSources[id]
		st := s.states[id]
		if !isContainer || st.state != StateLoading || st.remaining > 0 {
			continue
		}
		ready, failed := true, false
		scenes := make([]models.AssetID, 0, len(src.scenes))
		for _, scene := range src.scenes {
			sid := models.AssetIDOf(scene)
			switch s.states[sid].state {
			case StateLoaded:
			case StateFailed:
				failed = true
			default:
				ready = false
			}
			scenes = append(scenes, sid)
		}
		switch {
		case failed:
			st.state = StateFailed
			events = append(events, bus.NewEvent(EventFailed, "assets", LoadedEvent{
				ID: id, Path: src.path, Kind: KindContainer, Err: fmt.Errorf("dependency of %s failed", src.path),
			}))
		case ready:
			st.state = StateLoaded
			s.containers[id] = &Container{ID: id, Path: src.path, Scenes: scenes}
			events = append(events, bus.NewEvent(EventLoaded, "assets", LoadedEvent{
				ID: id, Path: src.path, Kind: KindContainer,
			}))
		}
	}
	s.mu.Unlock()

	for _, ev := range events {
		payload := ev.Data().(LoadedEvent)
		if ev.Type() == EventFailed {
			s.log.Warn("asset failed to load", log.Asset(payload.ID), log.String("path", payload.Path), log.Error(payload.Err))
		} else {
			s.log.Debug("asset loaded", log.Asset(payload.ID), log.String("path", payload.Path), log.Stringer("kind", payload.Kind))
		}
	}
	if err := s.bus.PublishBatch(events...); err != nil {
		s.log.Error("asset event handler failed", log.Error(err))
	}
}

// State reports the load state of id.
func (s *Server) State(id models.AssetID) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[id]; ok {
		return st.state
	}
	return StateNotLoaded
}

// IsLoadedWithDependencies reports whether id and everything it embeds has loaded.
func (s *Server) IsLoadedWithDependencies(id models.AssetID) bool {
	return s.State(id) == StateLoaded
}

// Template returns a loaded template.
func (s *Server) Template(id models.AssetID) (*Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	return t, ok
}

// Container returns a loaded bundle.
func (s *Server) Container(id models.AssetID) (*Container, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[id]
	return c, ok
}

// EmbeddedTemplate returns the identity of the index-th scene of a loaded bundle.
func (s *Server) EmbeddedTemplate(container models.AssetID, index int) (models.AssetID, bool) {
	c, ok := s.Container(container)
	if !ok || index < 0 || index >= len(c.Scenes) {
		return 0, false
	}
	return c.Scenes[index], true
}

// FirstEmbeddedTemplate returns the first scene of a loaded bundle.
func (s *Server) FirstEmbeddedTemplate(container models.AssetID) (models.AssetID, bool) {
	return s.EmbeddedTemplate(container, 0)
}

// Path returns the path an identity was provided or loaded under.
func (s *Server) Path(id models.AssetID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.paths[id]
	return p, ok
}
