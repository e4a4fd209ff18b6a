package scene

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/world"
)

var waypointsID = models.ComponentIDOf("Waypoints")

type waypoints struct {
	points []int
}

func (waypoints) TypeID() models.ComponentID { return waypointsID }

func (w waypoints) Clone() models.Component {
	return waypoints{points: slices.Clone(w.points)}
}

type templates map[models.AssetID]*assets.Template

func (t templates) Template(id models.AssetID) (*assets.Template, bool) {
	tpl, ok := t[id]
	return tpl, ok
}

func minion() *assets.Template {
	tpl := assets.NewTemplate("scenes/minion.scn")
	body := tpl.Add("Body", models.NoEntity, waypoints{points: []int{1, 2}})
	tpl.Add("Head", body)
	tpl.Add("Orbiter", models.NoEntity)
	return tpl
}

func TestSpawnerInstantiates(t *testing.T) {
	tpl := minion()
	src := templates{}
	sp := NewSpawner(Config{MaterializeTicks: 2}, src, log.NewNop())
	w := world.New()

	root := w.Spawn()
	require.NoError(t, w.Insert(root, SceneRoot{Scene: tpl.ID}))

	sp.Update(w)
	assert.False(t, w.Has(root, SceneInstanceID), "waits for the template")
	assert.False(t, sp.IsReady(root))

	src[tpl.ID] = tpl
	sp.Update(w)
	require.True(t, w.Has(root, SceneInstanceID))
	assert.Len(t, sp.Entities(root), 3)
	assert.False(t, sp.IsReady(root))

	var names []string
	for _, e := range w.Descendants(root) {
		n, _ := w.Name(e)
		names = append(names, n)
	}
	assert.Equal(t, []string{"Body", "Orbiter", "Head"}, names)

	sp.Update(w)
	assert.False(t, sp.IsReady(root))
	sp.Update(w)
	assert.True(t, sp.IsReady(root))
}

func TestSpawnerClonesComponents(t *testing.T) {
	tpl := minion()
	sp := NewSpawner(Config{}, templates{tpl.ID: tpl}, log.NewNop())
	w := world.New()

	a, b := w.Spawn(), w.Spawn()
	require.NoError(t, w.Insert(a, SceneRoot{Scene: tpl.ID}))
	require.NoError(t, w.Insert(b, SceneRoot{Scene: tpl.ID}))
	sp.Update(w)
	require.True(t, sp.IsReady(a))

	bodyA := w.Children(a)[0]
	bodyB := w.Children(b)[0]
	wa, ok := world.Lookup[waypoints](w, bodyA, waypointsID)
	require.True(t, ok)
	wa.points[0] = 99

	wb, _ := world.Lookup[waypoints](w, bodyB, waypointsID)
	assert.Equal(t, []int{1, 2}, wb.points)
	tplBody, _ := tpl.Find("Body")
	orig, _ := world.Lookup[waypoints](tpl.World, tplBody, waypointsID)
	assert.Equal(t, []int{1, 2}, orig.points)
}

func TestSpawnerForgetsDespawnedRoots(t *testing.T) {
	tpl := minion()
	sp := NewSpawner(Config{}, templates{tpl.ID: tpl}, log.NewNop())
	w := world.New()

	root := w.Spawn()
	require.NoError(t, w.Insert(root, SceneRoot{Scene: tpl.ID}))
	sp.Update(w)
	require.True(t, sp.IsReady(root))

	require.NoError(t, w.Despawn(root))
	assert.Zero(t, w.Len(), "despawn is recursive")
	sp.Update(w)
	assert.False(t, sp.IsReady(root))
	assert.Nil(t, sp.Entities(root))
}
