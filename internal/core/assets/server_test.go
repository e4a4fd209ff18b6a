package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/scenefab/internal/core/events/bus"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
)

type recorder struct {
	loaded []LoadedEvent
	failed []LoadedEvent
}

func newServer(t *testing.T, ticks int) (*Server, *recorder) {
	t.Helper()
	b := bus.New()
	rec := &recorder{}
	_, err := b.Subscribe(EventLoaded, func(e bus.Event) error {
		rec.loaded = append(rec.loaded, e.Data().(LoadedEvent))
		return nil
	})
	require.NoError(t, err)
	_, err = b.Subscribe(EventFailed, func(e bus.Event) error {
		rec.failed = append(rec.failed, e.Data().(LoadedEvent))
		return nil
	})
	require.NoError(t, err)
	return NewServer(Config{LoadTicks: ticks}, b, log.NewNop()), rec
}

func TestServer_TemplateLoad(t *testing.T) {
	s, rec := newServer(t, 2)
	tpl := NewTemplate("minion.glb#Scene0")
	root := tpl.Add("Root", models.NoEntity)
	tpl.Add("Gear", root)
	require.NoError(t, s.ProvideTemplate(tpl))
	require.ErrorIs(t, s.ProvideTemplate(tpl), ErrAlreadyExists)

	id := s.Load(tpl.Path)
	require.Equal(t, tpl.ID, id)
	require.Equal(t, StateLoading, s.State(id))

	s.Update()
	require.Empty(t, rec.loaded)
	_, ok := s.Template(id)
	require.False(t, ok)

	s.Update()
	require.Len(t, rec.loaded, 1)
	require.Equal(t, id, rec.loaded[0].ID)
	require.True(t, s.IsLoadedWithDependencies(id))

	got, ok := s.Template(id)
	require.True(t, ok)
	gear, ok := got.Find("Gear")
	require.True(t, ok)
	parent, _ := got.World.Parent(gear)
	require.Equal(t, root, parent)

	s.Update()
	require.Len(t, rec.loaded, 1, "completion is published once")
}

func TestServer_ContainerLoad(t *testing.T) {
	s, rec := newServer(t, 1)
	scene0 := NewTemplate("minion.glb#Scene0")
	scene1 := NewTemplate("minion.glb#Scene1")
	require.NoError(t, s.ProvideTemplate(scene0))
	require.NoError(t, s.ProvideTemplate(scene1))
	cid, err := s.ProvideContainer("minion.glb", scene0.Path, scene1.Path)
	require.NoError(t, err)

	require.Equal(t, cid, s.Load("minion.glb"))
	require.False(t, s.IsLoadedWithDependencies(cid))
	_, ok := s.FirstEmbeddedTemplate(cid)
	require.False(t, ok)

	s.Update()
	require.Len(t, rec.loaded, 3)
	assert.Equal(t, []models.AssetID{scene0.ID, scene1.ID, cid},
		[]models.AssetID{rec.loaded[0].ID, rec.loaded[1].ID, rec.loaded[2].ID})
	assert.Equal(t, KindContainer, rec.loaded[2].Kind)

	first, ok := s.FirstEmbeddedTemplate(cid)
	require.True(t, ok)
	require.Equal(t, scene0.ID, first)
	second, ok := s.EmbeddedTemplate(cid, 1)
	require.True(t, ok)
	require.Equal(t, scene1.ID, second)
	_, ok = s.EmbeddedTemplate(cid, 2)
	require.False(t, ok)
}

func TestServer_EmptyContainerLoads(t *testing.T) {
	s, rec := newServer(t, 1)
	cid, err := s.ProvideContainer("empty.glb")
	require.NoError(t, err)
	s.Load("empty.glb")
	s.Update()

	require.True(t, s.IsLoadedWithDependencies(cid))
	require.Len(t, rec.loaded, 1)
	_, ok := s.FirstEmbeddedTemplate(cid)
	require.False(t, ok)
}

func TestServer_UnknownAssetFails(t *testing.T) {
	s, rec := newServer(t, 1)
	cid, err := s.ProvideContainer("broken.glb", "missing#Scene0")
	require.NoError(t, err)
	s.Load("broken.glb")
	s.Update()

	require.Empty(t, rec.loaded)
	require.Len(t, rec.failed, 2)
	require.ErrorIs(t, rec.failed[0].Err, ErrUnknownAsset)
	require.Equal(t, StateFailed, s.State(cid))

	path, ok := s.Path(models.AssetIDOf("missing#Scene0"))
	require.True(t, ok)
	require.Equal(t, "missing#Scene0", path)
}
