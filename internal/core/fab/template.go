package fab

import (
	"sync"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
)

// TemplateSource resolves loaded templates.
type TemplateSource interface {
	Template(id models.AssetID) (*assets.Template, bool)
}

// templateRunner applies prefab pipelines to templates as their loads complete.
type templateRunner struct {
	registry  *Registry
	templates TemplateSource
	log       log.Log
	stats     *counters

	mu      sync.Mutex
	queue   []models.AssetID
	applied map[models.AssetID]struct{}
}

// enqueue records a load completion; it is consumed on the next run.
func (t *templateRunner) enqueue(id models.AssetID) {
	t.mu.Lock()
	t.queue = append(t.queue, id)
	t.mu.Unlock()
}

func (t *templateRunner) run() {
	t.mu.Lock()
	queue := t.queue
	t.queue = nil
	t.mu.Unlock()

	for _, id := range queue {
		if _, done := t.applied[id]; done {
			continue
		}
		prefab, ok := t.registry.Lookup(id, Prefab)
		if !ok {
			continue
		}
		tpl, ok := t.templates.Template(id)
		if !ok {
			t.log.Warn("prefab registered but template unavailable", log.Asset(id))
			continue
		}
		t.applied[id] = struct{}{}
		t.apply(tpl, prefab)
	}
}

func (t *templateRunner) apply(tpl *assets.Template, prefab *Pipeline) {
	l := t.log.With(log.Asset(tpl.ID), log.String("path", tpl.Path))
	l.Debug("applying prefab", log.Int("steps", prefab.Len()))

	for i, step := range prefab.Steps() {
		if step.action.kind != ActionBehavior {
			l.Warn("skipping command step at template scope", log.Step(i), log.Stringer("action", step.action.kind))
			continue
		}
		ctx := &Context{
			World:    tpl.World,
			Commands: tpl.World.Commands(),
			Log:      l,
			Scene:    tpl.ID,
			Root:     models.NoEntity,
		}
		if err := execute(step.action, models.NoEntity, ctx); err != nil {
			t.stats.failures.Add(1)
			l.Error("prefab step failed", log.Step(i), log.Error(err))
		} else {
			t.stats.prefabSteps.Add(1)
		}
		if err := tpl.World.Commands().Flush(); err != nil {
			t.stats.failures.Add(1)
			l.Error("prefab step commands failed", log.Step(i), log.Error(err))
		}
	}
}
