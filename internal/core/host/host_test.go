package host

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/events/bus"
	"github.com/zeusync/scenefab/internal/core/fab"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/scene"
	"github.com/zeusync/scenefab/internal/core/world"
)

func newHost(t *testing.T) *Host {
	t.Helper()
	l := log.NewNop()
	b := bus.New()
	srv := assets.NewServer(assets.Config{LoadTicks: 2}, b, l)
	sp := scene.NewSpawner(scene.Config{MaterializeTicks: 1}, srv, l)
	eng, err := fab.NewEngine(fab.Options{}, fab.NewRegistry(l), srv, b, sp, l)
	require.NoError(t, err)
	actions := fab.NewActionRegistry()
	fab.RegisterBuiltins(actions)

	h := New(time.Millisecond, world.New(), srv, sp, eng, fab.NewLoader(actions, eng), l)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHostRunsPipelinesToCompletion(t *testing.T) {
	h := newHost(t)
	tpl := assets.NewTemplate("scenes/minion.scn")
	tpl.Add("LeftOrbiter", models.NoEntity)
	tpl.Add("RightOrbiter", models.NoEntity)
	require.NoError(t, h.Assets().ProvideTemplate(tpl))

	require.NoError(t, h.Engine().RegisterPostfab(fab.SceneAt(tpl.Path), fab.NewPipeline(
		fab.ApplyTo(fab.EntityCommandFunc(func(w *world.World, e models.EntityID) error {
			return w.Insert(e, models.NewMarker("Rotating"))
		})).NameEndsWith("Orbiter"),
	)))

	h.Assets().Load(tpl.Path)
	root := h.Engine().Spawn(h.World(), fab.NewSpawn(fab.SceneAt(tpl.Path)))

	ctx := context.Background()
	require.NoError(t, h.RunUntil(ctx, 20, func() bool { return h.Engine().Stats().PostfabRuns == 2 }))
	assert.Len(t, h.World().Query(models.ComponentIDOf("Rotating")), 2)
	assert.Len(t, h.World().Children(root), 2)
	assert.NotZero(t, h.Ticks())
}

func TestRunUntilTickLimit(t *testing.T) {
	h := newHost(t)
	err := h.RunUntil(context.Background(), 3, func() bool { return false })
	require.ErrorIs(t, err, ErrTickLimit)
	assert.EqualValues(t, 3, h.Ticks())
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHost(t)
	require.NoError(t, h.Run(context.Background(), 3))
	assert.EqualValues(t, 3, h.Ticks())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Run(ctx, 0), context.Canceled)
	assert.ErrorIs(t, h.Tick(ctx), context.Canceled)
}
