package fab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
)

func pipelineOf(n int) *Pipeline {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = RunFunc(func(*Context, models.EntityID) error { return nil })
	}
	return NewPipeline(steps...)
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry(log.NewNop())
	target := SceneAt("scenes/minion.scn")

	r.Register(target, pipelineOf(1), Postfab)
	r.Register(target, pipelineOf(2), Postfab)

	p, ok := r.Lookup(target.ID(), Postfab)
	require.True(t, ok)
	assert.Equal(t, 2, p.Len())

	_, ok = r.Lookup(target.ID(), Prefab)
	assert.False(t, ok, "tables are independent per kind")

	resolved, pending := r.Len(Postfab)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 0, pending)
}

func TestRegistryContainerResolution(t *testing.T) {
	r := NewRegistry(log.NewNop())
	container := ContainerAt("bundles/minion.glb")
	scene0 := models.AssetIDOf("bundles/minion.glb#Scene0")

	r.Register(container, pipelineOf(1), Prefab)
	assert.True(t, r.Pending(container.ID(), Prefab))
	_, ok := r.Lookup(container.ID(), Prefab)
	assert.False(t, ok)

	require.True(t, r.resolve(Prefab, container.ID(), scene0))

	p, ok := r.Lookup(scene0, Prefab)
	require.True(t, ok)
	assert.Equal(t, 1, p.Len())
	_, ok = r.Lookup(container.ID(), Prefab)
	assert.False(t, ok)
	assert.False(t, r.Pending(container.ID(), Prefab))
}

func TestRegistryNewestRegistrationWins(t *testing.T) {
	scene0 := models.AssetIDOf("bundles/minion.glb#Scene0")

	t.Run("direct after container", func(t *testing.T) {
		r := NewRegistry(log.NewNop())
		r.Register(ContainerAt("bundles/minion.glb"), pipelineOf(1), Postfab)
		r.Register(SceneTarget(scene0), pipelineOf(2), Postfab)

		assert.False(t, r.resolve(Postfab, models.AssetIDOf("bundles/minion.glb"), scene0))
		p, _ := r.Lookup(scene0, Postfab)
		assert.Equal(t, 2, p.Len())
	})

	t.Run("container after direct", func(t *testing.T) {
		r := NewRegistry(log.NewNop())
		r.Register(SceneTarget(scene0), pipelineOf(2), Postfab)
		r.Register(ContainerAt("bundles/minion.glb"), pipelineOf(1), Postfab)

		assert.True(t, r.resolve(Postfab, models.AssetIDOf("bundles/minion.glb"), scene0))
		p, _ := r.Lookup(scene0, Postfab)
		assert.Equal(t, 1, p.Len())
	})

	t.Run("two containers on one scene", func(t *testing.T) {
		r := NewRegistry(log.NewNop())
		r.Register(ContainerAt("a.glb"), pipelineOf(1), Postfab)
		r.Register(ContainerAt("b.glb"), pipelineOf(3), Postfab)

		snap := r.pendingSnapshot(Postfab)
		require.Len(t, snap, 2)
		assert.Equal(t, models.AssetIDOf("a.glb"), snap[0].container)

		for _, pe := range snap {
			r.resolve(Postfab, pe.container, scene0)
		}
		p, _ := r.Lookup(scene0, Postfab)
		assert.Equal(t, 3, p.Len())
	})
}

func TestRegistryCopiesPipeline(t *testing.T) {
	r := NewRegistry(log.NewNop())
	p := pipelineOf(1)
	r.Register(SceneAt("s"), p, Postfab)
	_ = p.Then(pipelineOf(1).Steps()...)

	got, _ := r.Lookup(models.AssetIDOf("s"), Postfab)
	assert.Equal(t, 1, got.Len())
}
