package fab

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/events/bus"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/scene"
	"github.com/zeusync/scenefab/internal/core/world"
)

var (
	spinID   = models.ComponentIDOf("Spin")
	frozenID = models.ComponentIDOf("Frozen")
)

// harness runs the engine against in-memory collaborators in host tick order.
type harness struct {
	t       *testing.T
	world   *world.World
	assets  *assets.Server
	spawner *scene.Spawner
	engine  *Engine
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	l := log.FromZap(zap.New(core))

	b := bus.New()
	srv := assets.NewServer(assets.Config{LoadTicks: 1}, b, l)
	sp := scene.NewSpawner(scene.Config{MaterializeTicks: 1}, srv, l)
	e, err := NewEngine(opts, NewRegistry(l), srv, b, sp, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	return &harness{t: t, world: world.New(), assets: srv, spawner: sp, engine: e, logs: logs}
}

func (h *harness) tick(n int) {
	h.t.Helper()
	for range n {
		h.assets.Update()
		h.engine.Tick(h.world)
		h.spawner.Update(h.world)
		require.NoError(h.t, h.world.Commands().Flush())
	}
}

// minion provides a template with two orbiters under a body.
func (h *harness) minion(path string) *assets.Template {
	h.t.Helper()
	tpl := assets.NewTemplate(path)
	tpl.Add("LeftOrbiter", models.NoEntity, models.NewMarker("Spin"))
	tpl.Add("RightOrbiter", models.NoEntity, models.NewMarker("Spin"))
	body := tpl.Add("Body", models.NoEntity)
	tpl.Add("Head", body)
	require.NoError(h.t, h.assets.ProvideTemplate(tpl))
	return tpl
}

// recorder collects behavior invocations in execution order.
type recorder struct {
	calls []string
}

func (r *recorder) step(label string) Step {
	return RunFunc(func(ctx *Context, target models.EntityID) error {
		name, _ := ctx.World.Name(target)
		r.calls = append(r.calls, label+":"+name)
		return nil
	})
}

func (h *harness) named(root models.EntityID, name string) models.EntityID {
	h.t.Helper()
	for _, e := range h.world.Descendants(root) {
		if n, ok := h.world.Name(e); ok && n == name {
			return e
		}
	}
	h.t.Fatalf("no %q under %d", name, root)
	return models.NoEntity
}
