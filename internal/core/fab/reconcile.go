package fab

import (
	"errors"

	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
)

var ErrContainerEmpty = errors.New("fab: container has no embedded scene")

// ContainerSource answers load state and embedded scenes of bundle assets.
type ContainerSource interface {
	IsLoadedWithDependencies(id models.AssetID) bool
	FirstEmbeddedTemplate(container models.AssetID) (models.AssetID, bool)
}

// reconciler re-keys container registrations under their first embedded scene.
type reconciler struct {
	registry *Registry
	assets   ContainerSource
	log      log.Log
	stats    *counters
	// resolvedPrefab is told about every scene a container prefab lands on.
	resolvedPrefab func(scene models.AssetID)
}

// run resolves every pending container that has finished loading: postfabs
// first, then prefabs, each in registration order.
func (r *reconciler) run() {
	for _, kind := range []Kind{Postfab, Prefab} {
		for _, pe := range r.registry.pendingSnapshot(kind) {
			if !r.assets.IsLoadedWithDependencies(pe.container) {
				continue
			}
			scene, ok := r.assets.FirstEmbeddedTemplate(pe.container)
			if !ok {
				r.registry.drop(kind, pe.container)
				r.stats.dropped.Add(1)
				r.log.Warn("dropping pipeline registered on container",
					log.Kind(kind), log.Asset(pe.container), log.Error(ErrContainerEmpty))
				continue
			}
			if r.registry.resolve(kind, pe.container, scene) {
				r.stats.resolved.Add(1)
				if kind == Prefab && r.resolvedPrefab != nil {
					r.resolvedPrefab(scene)
				}
				r.log.Debug("container pipeline resolved",
					log.Kind(kind), log.Stringer("container", pe.container), log.Asset(scene))
			} else {
				r.stats.superseded.Add(1)
				r.log.Debug("container pipeline superseded by newer registration",
					log.Kind(kind), log.Stringer("container", pe.container), log.Asset(scene))
			}
		}
	}
}
