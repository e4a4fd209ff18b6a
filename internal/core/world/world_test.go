package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/scenefab/internal/core/models"
)

var (
	health = models.NewMarker("Health")
	hidden = models.NewMarker("Hidden")
)

func buildTree(t *testing.T, w *World) (root, a, b, a1 models.EntityID) {
	t.Helper()
	root, a, b, a1 = w.Spawn(), w.Spawn(), w.Spawn(), w.Spawn()
	require.NoError(t, w.SetParent(a, root))
	require.NoError(t, w.SetParent(b, root))
	require.NoError(t, w.SetParent(a1, a))
	return
}

func TestWorld_Hierarchy(t *testing.T) {
	w := New()
	root, a, b, a1 := buildTree(t, w)

	require.Equal(t, []models.EntityID{a, b}, w.Children(root))
	require.Equal(t, []models.EntityID{a, b, a1}, w.Descendants(root))
	require.Equal(t, []models.EntityID{root}, w.Roots())

	parent, ok := w.Parent(a1)
	require.True(t, ok)
	require.Equal(t, a, parent)

	t.Run("Cycle", func(t *testing.T) {
		require.ErrorIs(t, w.SetParent(root, a1), ErrHierarchyCycle)
	})

	t.Run("Reparent", func(t *testing.T) {
		require.NoError(t, w.SetParent(a1, b))
		require.Empty(t, w.Children(a))
		require.Equal(t, []models.EntityID{a1}, w.Children(b))
	})

	t.Run("DespawnRecursive", func(t *testing.T) {
		require.NoError(t, w.Despawn(b))
		assert.False(t, w.Exists(b))
		assert.False(t, w.Exists(a1))
		assert.Equal(t, []models.EntityID{a}, w.Children(root))
		require.ErrorIs(t, w.Despawn(b), ErrEntityNotFound)
	})
}

func TestWorld_Components(t *testing.T) {
	w := New()
	e := w.Spawn()

	_, named := w.Name(e)
	require.False(t, named)
	require.NoError(t, w.SetName(e, "Gear"))
	name, named := w.Name(e)
	require.True(t, named)
	require.Equal(t, "Gear", name)

	require.NoError(t, w.Insert(e, health))
	require.True(t, w.Has(e, health.TypeID()))
	require.False(t, w.Has(e, hidden.TypeID()))

	m, ok := Lookup[models.Marker](w, e, health.TypeID())
	require.True(t, ok)
	require.Equal(t, "Health", m.Name)

	require.NoError(t, w.Remove(e, health.TypeID()))
	require.False(t, w.Has(e, health.TypeID()))
	require.ErrorIs(t, w.Insert(999, health), ErrEntityNotFound)
}

func TestWorld_QueryAndAddedSince(t *testing.T) {
	w := New()
	a, b, c := w.Spawn(), w.Spawn(), w.Spawn()
	require.NoError(t, w.Insert(a, health))
	require.NoError(t, w.Insert(b, health))
	require.NoError(t, w.Insert(b, hidden))

	require.Equal(t, []models.EntityID{a, b}, w.Query(health.TypeID()))
	require.Equal(t, []models.EntityID{b}, w.Query(health.TypeID(), hidden.TypeID()))
	require.Len(t, w.Query(), 3)

	mark := w.ChangeTick()
	require.Empty(t, w.AddedSince(health.TypeID(), mark))
	require.NoError(t, w.Insert(c, health))
	require.Equal(t, []models.EntityID{c}, w.AddedSince(health.TypeID(), mark))
}

func TestCommands_Flush(t *testing.T) {
	w := New()
	cmds := w.Commands()

	e := cmds.Spawn(health)
	require.True(t, w.Exists(e), "spawn reserves the entity immediately")
	require.False(t, w.Has(e, health.TypeID()), "components wait for flush")

	cmds.SetName(e, "Minion")
	cmds.Insert(999, hidden)
	cmds.Push(func(w *World) error {
		w.Commands().Insert(e, hidden)
		return nil
	})
	require.Equal(t, 4, cmds.Pending())

	err := cmds.Flush()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrEntityNotFound))

	require.True(t, w.Has(e, health.TypeID()))
	require.True(t, w.Has(e, hidden.TypeID()), "commands queued during flush are applied")
	name, _ := w.Name(e)
	require.Equal(t, "Minion", name)
	require.Zero(t, cmds.Pending())
}
