package fab

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
)

// Target names what a pipeline is registered against: a scene template
// directly, or a container whose first embedded scene is the real target.
type Target struct {
	id        models.AssetID
	container bool
}

func SceneTarget(id models.AssetID) Target     { return Target{id: id} }
func ContainerTarget(id models.AssetID) Target { return Target{id: id, container: true} }

// SceneAt and ContainerAt derive targets from asset paths.
func SceneAt(path string) Target     { return SceneTarget(models.AssetIDOf(path)) }
func ContainerAt(path string) Target { return ContainerTarget(models.AssetIDOf(path)) }

func (t Target) ID() models.AssetID { return t.id }
func (t Target) IsContainer() bool  { return t.container }

func (t Target) String() string {
	if t.container {
		return "container(" + t.id.String() + ")"
	}
	return "scene(" + t.id.String() + ")"
}

type entry struct {
	pipeline *Pipeline
	seq      uint64
}

type pendingEntry struct {
	container models.AssetID
	entry
}

// Registry maps asset identities to pipelines, one table per Kind, plus
// pending tables for container targets awaiting resolution. Every write
// carries a sequence number so that the most recent registration wins even
// when a container resolves after a direct registration for the same scene.
type Registry struct {
	mu      sync.RWMutex
	log     log.Log
	seq     uint64
	direct  [kindCount]map[models.AssetID]entry
	pending [kindCount]map[models.AssetID]entry
}

func NewRegistry(l log.Log) *Registry {
	r := &Registry{log: l.With(log.String("component", "registry"))}
	for k := range kindCount {
		r.direct[k] = make(map[models.AssetID]entry)
		r.pending[k] = make(map[models.AssetID]entry)
	}
	return r
}

// Register stores p for (target, kind), overwriting any previous entry.
func (r *Registry) Register(target Target, p *Pipeline, kind Kind) {
	if kind >= kindCount {
		panic(fmt.Sprintf("fab: invalid kind %d", kind))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := entry{pipeline: NewPipeline(p.Steps()...), seq: r.seq}
	table := r.direct[kind]
	if target.container {
		table = r.pending[kind]
	}
	if _, ok := table[target.id]; ok {
		r.log.Debug("pipeline replaced", log.Kind(kind), log.Stringer("target", target))
	}
	table[target.id] = e
}

// Lookup returns the pipeline registered for a resolved scene identity.
// Container identities are never found here.
func (r *Registry) Lookup(id models.AssetID, kind Kind) (*Pipeline, bool) {
	if kind >= kindCount {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.direct[kind][id]
	return e.pipeline, ok
}

// Pending reports whether a pipeline of kind waits on container.
func (r *Registry) Pending(container models.AssetID, kind Kind) bool {
	if kind >= kindCount {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pending[kind][container]
	return ok
}

// Len returns the number of resolved and pending entries of kind.
func (r *Registry) Len(kind Kind) (resolved, pending int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.direct[kind]), len(r.pending[kind])
}

// pendingSnapshot lists pending entries of kind in registration order.
func (r *Registry) pendingSnapshot(kind Kind) []pendingEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]pendingEntry, 0, len(r.pending[kind]))
	for id, e := range r.pending[kind] {
		out = append(out, pendingEntry{container: id, entry: e})
	}
	slices.SortFunc(out, func(a, b pendingEntry) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

// resolve moves the pending entry for container under scene. It reports false
// when a newer registration already owns scene; the pending entry is dropped either way.
func (r *Registry) resolve(kind Kind, container, scene models.AssetID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.pending[kind][container]
	if !ok {
		return false
	}
	delete(r.pending[kind], container)
	if cur, ok := r.direct[kind][scene]; ok && cur.seq > e.seq {
		return false
	}
	r.direct[kind][scene] = e
	return true
}

func (r *Registry) drop(kind Kind, container models.AssetID) {
	r.mu.Lock()
	delete(r.pending[kind], container)
	r.mu.Unlock()
}
