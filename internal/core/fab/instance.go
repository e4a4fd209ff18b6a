package fab

import (
	"github.com/google/uuid"

	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/scene"
	"github.com/zeusync/scenefab/internal/core/world"
)

var (
	InstanceTagID    = models.ComponentIDOf("fab.InstanceTag")
	VariantOverlayID = models.ComponentIDOf("fab.VariantOverlay")
)

// InstanceTag marks a freshly spawned root whose postfab has not run yet.
// It is removed before the postfab executes.
type InstanceTag struct {
	SpawnID  uuid.UUID
	Scene    models.AssetID
	Pipeline *Pipeline
	Variant  *Pipeline
}

func (InstanceTag) TypeID() models.ComponentID { return InstanceTagID }

// Steps returns the effective steps: base pipeline, then the variant.
func (t InstanceTag) Steps() []Step {
	return append(t.Pipeline.Steps(), t.Variant.Steps()...)
}

// VariantOverlay carries extra steps for a single spawn.
type VariantOverlay struct {
	Pipeline *Pipeline
}

func (VariantOverlay) TypeID() models.ComponentID { return VariantOverlayID }

// Readiness reports whether an instance has finished materializing.
type Readiness interface {
	IsReady(root models.EntityID) bool
}

type job struct {
	action Action
	target models.EntityID
	root   models.EntityID
	step   int
	tag    InstanceTag
}

// instanceRunner tags new scene roots and runs their postfabs once they are ready.
type instanceRunner struct {
	registry *Registry
	ready    Readiness
	log      log.Log
	stats    *counters
	lastTick uint64
}

// tag attaches an InstanceTag to every root whose SceneRoot appeared since the
// previous call and whose scene has a postfab.
func (r *instanceRunner) tag(w *world.World) {
	roots := w.AddedSince(scene.SceneRootID, r.lastTick)
	r.lastTick = w.ChangeTick()

	for _, root := range roots {
		sr, ok := world.Lookup[scene.SceneRoot](w, root, scene.SceneRootID)
		if !ok {
			continue
		}
		postfab, ok := r.registry.Lookup(sr.Scene, Postfab)
		if !ok {
			continue
		}
		tag := InstanceTag{SpawnID: uuid.New(), Scene: sr.Scene, Pipeline: postfab}
		if v, ok := world.Lookup[VariantOverlay](w, root, VariantOverlayID); ok {
			tag.Variant = v.Pipeline
		}
		if err := w.Insert(root, tag); err != nil {
			r.log.Warn("could not tag spawned scene", log.Entity(root), log.Error(err))
			continue
		}
		r.stats.tagged.Add(1)
		r.log.Debug("scene instance tagged",
			log.Entity(root), log.Asset(sr.Scene), log.Stringer("spawn", tag.SpawnID))
	}
}

// run executes postfabs for every tagged root that is ready. Matching sees
// the tree before any step runs; tags are removed before execution so a step
// spawning nested scenes cannot observe its parent's tag.
func (r *instanceRunner) run(w *world.World) {
	var (
		jobs      []job
		processed []models.EntityID
	)

	for _, root := range w.Query(InstanceTagID) {
		if !r.ready.IsReady(root) {
			continue
		}
		tag, ok := world.Lookup[InstanceTag](w, root, InstanceTagID)
		if !ok {
			continue
		}
		processed = append(processed, root)

		var tree []models.EntityID
		for i, step := range tag.Steps() {
			candidates := []models.EntityID{root}
			if !step.rootOnly {
				if tree == nil {
					tree = append([]models.EntityID{root}, w.Descendants(root)...)
				}
				candidates = tree
			}
			for _, e := range candidates {
				if step.Matches(w, e) {
					jobs = append(jobs, job{action: step.action, target: e, root: root, step: i, tag: tag})
				}
			}
		}
	}

	for _, root := range processed {
		_ = w.Remove(root, InstanceTagID)
		_ = w.Remove(root, VariantOverlayID)
	}

	for _, j := range jobs {
		l := r.log.With(log.Entity(j.target), log.Step(j.step), log.Stringer("spawn", j.tag.SpawnID))
		if !w.Exists(j.target) {
			r.stats.entityGone.Add(1)
			l.Warn("postfab target removed before execution", log.Error(ErrEntityGone))
			continue
		}
		ctx := &Context{
			World:    w,
			Commands: w.Commands(),
			Log:      l,
			Scene:    j.tag.Scene,
			Root:     j.root,
		}
		if err := execute(j.action, j.target, ctx); err != nil {
			r.stats.failures.Add(1)
			l.Error("postfab step failed", log.Stringer("action", j.action.kind), log.Error(err))
			continue
		}
		r.stats.postfabRuns.Add(1)
	}

	if len(jobs) == 0 {
		return
	}
	if err := w.Commands().Flush(); err != nil {
		r.stats.failures.Add(1)
		r.log.Error("postfab commands failed", log.Error(err))
	}
}
