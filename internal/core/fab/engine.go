package fab

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/events/bus"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/world"
)

var ErrPrefabCommand = errors.New("fab: prefab pipelines accept behavior steps only")

// PrefabCommandPolicy decides what happens to command steps in a prefab.
type PrefabCommandPolicy uint8

const (
	// RejectPrefabCommands fails RegisterPrefab with ErrPrefabCommand.
	RejectPrefabCommands PrefabCommandPolicy = iota
	// IgnorePrefabCommands accepts the pipeline and skips command steps with a warning.
	IgnorePrefabCommands
)

func ParsePrefabCommandPolicy(s string) (PrefabCommandPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectPrefabCommands, nil
	case "ignore":
		return IgnorePrefabCommands, nil
	default:
		return RejectPrefabCommands, fmt.Errorf("unknown prefab command policy %q", s)
	}
}

type Options struct {
	PrefabCommands PrefabCommandPolicy
}

// AssetSource is everything the engine reads from the asset loader.
type AssetSource interface {
	TemplateSource
	ContainerSource
	EmbeddedTemplate(container models.AssetID, index int) (models.AssetID, bool)
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Resolved    uint64
	Dropped     uint64
	Superseded  uint64
	PrefabSteps uint64
	Tagged      uint64
	PostfabRuns uint64
	Failures    uint64
	EntityGone  uint64
}

type counters struct {
	resolved    atomic.Uint64
	dropped     atomic.Uint64
	superseded  atomic.Uint64
	prefabSteps atomic.Uint64
	tagged      atomic.Uint64
	postfabRuns atomic.Uint64
	failures    atomic.Uint64
	entityGone  atomic.Uint64
}

// Engine owns the registry and runs every phase of the pipeline engine.
type Engine struct {
	opts     Options
	registry *Registry
	assets   AssetSource
	log      log.Log
	sub      bus.Subscription
	stats    *counters

	reconciler reconciler
	templates  *templateRunner
	instances  instanceRunner
}

// NewEngine wires the engine to its collaborators and subscribes to load
// completions on events. Close releases the subscription.
func NewEngine(opts Options, registry *Registry, src AssetSource, events bus.EventBus, ready Readiness, l log.Log) (*Engine, error) {
	l = l.With(log.String("component", "fab"))
	stats := &counters{}
	e := &Engine{
		opts:     opts,
		registry: registry,
		assets:   src,
		log:      l,
		stats:    stats,
		reconciler: reconciler{
			registry: registry,
			assets:   src,
			log:      l,
			stats:    stats,
		},
		templates: &templateRunner{
			registry:  registry,
			templates: src,
			log:       l,
			stats:     stats,
			applied:   make(map[models.AssetID]struct{}),
		},
		instances: instanceRunner{
			registry: registry,
			ready:    ready,
			log:      l,
			stats:    stats,
		},
	}

	e.reconciler.resolvedPrefab = e.templates.enqueue

	sub, err := events.Subscribe(assets.EventLoaded, func(ev bus.Event) error {
		loaded, ok := ev.Data().(assets.LoadedEvent)
		if !ok {
			return fmt.Errorf("fab: unexpected %s payload %T", ev.Type(), ev.Data())
		}
		if loaded.Kind == assets.KindTemplate {
			e.templates.enqueue(loaded.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to asset events: %w", err)
	}
	e.sub = sub
	return e, nil
}

func (e *Engine) Registry() *Registry { return e.registry }

// RegisterPrefab registers a pipeline applied once to the target template when it loads.
func (e *Engine) RegisterPrefab(target Target, p *Pipeline) error {
	if err := p.validate(); err != nil {
		return err
	}
	if i := p.firstCommandStep(); i >= 0 && e.opts.PrefabCommands == RejectPrefabCommands {
		return fmt.Errorf("step %d: %w", i, ErrPrefabCommand)
	}
	e.registry.Register(target, p, Prefab)
	return nil
}

// RegisterPostfab registers a pipeline applied to every instance of the target.
func (e *Engine) RegisterPostfab(target Target, p *Pipeline) error {
	if err := p.validate(); err != nil {
		return err
	}
	e.registry.Register(target, p, Postfab)
	return nil
}

// Tick runs one engine pass over w: reconcile containers, apply prefabs to
// freshly loaded templates, tag new instances, run postfabs on ready instances.
func (e *Engine) Tick(w *world.World) {
	e.reconciler.run()
	e.templates.run()
	e.resolveContainerSpawns(w)
	e.instances.tag(w)
	e.instances.run(w)
}

func (e *Engine) Stats() Stats {
	return Stats{
		Resolved:    e.stats.resolved.Load(),
		Dropped:     e.stats.dropped.Load(),
		Superseded:  e.stats.superseded.Load(),
		PrefabSteps: e.stats.prefabSteps.Load(),
		Tagged:      e.stats.tagged.Load(),
		PostfabRuns: e.stats.postfabRuns.Load(),
		Failures:    e.stats.failures.Load(),
		EntityGone:  e.stats.entityGone.Load(),
	}
}

// Close stops listening for load completions.
func (e *Engine) Close() error {
	if e.sub == nil {
		return nil
	}
	err := e.sub.Cancel()
	e.sub = nil
	return err
}
