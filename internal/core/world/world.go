package world

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/scenefab/internal/core/models"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrHierarchyCycle = errors.New("parent link would create a cycle")
)

type record struct {
	name     string
	named    bool
	comps    map[models.ComponentID]models.Component
	added    map[models.ComponentID]uint64
	parent   models.EntityID
	children []models.EntityID
}

// World stores entities, their components and their parent/child links.
// All methods are safe for concurrent use, but the engine drives it from one goroutine.
type World struct {
	mu         sync.RWMutex
	next       models.EntityID
	changeTick uint64
	entities   map[models.EntityID]*record
	commands   *Commands
}

func New() *World {
	w := &World{
		next:     1,
		entities: make(map[models.EntityID]*record),
	}
	w.commands = newCommands(w)
	return w
}

// Commands returns the world's deferred command buffer.
func (w *World) Commands() *Commands {
	return w.commands
}

// Spawn creates an empty entity.
func (w *World) Spawn() models.EntityID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawnLocked()
}

func (w *World) spawnLocked() models.EntityID {
	id := w.next
	w.next++
	w.entities[id] = &record{
		comps: make(map[models.ComponentID]models.Component),
		added: make(map[models.ComponentID]uint64),
	}
	return id
}

// Despawn removes e and all of its descendants.
func (w *World) Despawn(e models.EntityID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, ok := w.entities[e]
	if !ok {
		return fmt.Errorf("despawn %d: %w", e, ErrEntityNotFound)
	}
	if p, ok := w.entities[rec.parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c models.EntityID) bool { return c == e })
	}
	for _, id := range w.descendantsLocked(e) {
		delete(w.entities, id)
	}
	delete(w.entities, e)
	return nil
}

func (w *World) Exists(e models.EntityID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.entities[e]
	return ok
}

// Len returns the number of live entities.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entities)
}

func (w *World) SetName(e models.EntityID, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.entities[e]
	if !ok {
		return fmt.Errorf("set name on %d: %w", e, ErrEntityNotFound)
	}
	rec.name, rec.named = name, true
	return nil
}

// Name returns the display name of e, if it has one.
func (w *World) Name(e models.EntityID) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.entities[e]
	if !ok || !rec.named {
		return "", false
	}
	return rec.name, true
}

// Insert attaches c to e, replacing any component with the same TypeID.
func (w *World) Insert(e models.EntityID, c models.Component) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.entities[e]
	if !ok {
		return fmt.Errorf("insert into %d: %w", e, ErrEntityNotFound)
	}
	w.changeTick++
	rec.comps[c.TypeID()] = c
	rec.added[c.TypeID()] = w.changeTick
	return nil
}

// Remove detaches the component id from e. Removing an absent component is not an error.
func (w *World) Remove(e models.EntityID, id models.ComponentID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.entities[e]
	if !ok {
		return fmt.Errorf("remove from %d: %w", e, ErrEntityNotFound)
	}
	delete(rec.comps, id)
	delete(rec.added, id)
	return nil
}

func (w *World) Has(e models.EntityID, id models.ComponentID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.entities[e]
	if !ok {
		return false
	}
	_, ok = rec.comps[id]
	return ok
}

func (w *World) Get(e models.EntityID, id models.ComponentID) (models.Component, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.entities[e]
	if !ok {
		return nil, false
	}
	c, ok := rec.comps[id]
	return c, ok
}

// Components returns the components of e ordered by TypeID.
func (w *World) Components(e models.EntityID) []models.Component {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.entities[e]
	if !ok {
		return nil
	}
	out := make([]models.Component, 0, len(rec.comps))
	for _, c := range rec.comps {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Component) int {
		return cmp.Compare(a.TypeID(), b.TypeID())
	})
	return out
}

// Lookup returns the component id on e as T.
func Lookup[T models.Component](w *World, e models.EntityID, id models.ComponentID) (T, bool) {
	var zero T
	c, ok := w.Get(e, id)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}

// SetParent links child under parent, appending it after existing children.
// A zero parent detaches child.
func (w *World) SetParent(child, parent models.EntityID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, ok := w.entities[child]
	if !ok {
		return fmt.Errorf("set parent of %d: %w", child, ErrEntityNotFound)
	}
	if parent != models.NoEntity {
		if _, ok := w.entities[parent]; !ok {
			return fmt.Errorf("set parent %d: %w", parent, ErrEntityNotFound)
		}
		for p := parent; p != models.NoEntity; {
			if p == child {
				return ErrHierarchyCycle
			}
			r, ok := w.entities[p]
			if !ok {
				break
			}
			p = r.parent
		}
	}
	if old, ok := w.entities[rec.parent]; ok {
		old.children = slices.DeleteFunc(old.children, func(c models.EntityID) bool { return c == child })
	}
	rec.parent = parent
	if parent != models.NoEntity {
		p := w.entities[parent]
		p.children = append(p.children, child)
	}
	return nil
}

func (w *World) Parent(e models.EntityID) (models.EntityID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.entities[e]
	if !ok || rec.parent == models.NoEntity {
		return models.NoEntity, false
	}
	return rec.parent, true
}

func (w *World) Children(e models.EntityID) []models.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.entities[e]
	if !ok {
		return nil
	}
	return slices.Clone(rec.children)
}

// Descendants returns every entity below e, breadth-first, children in insertion order.
// e itself is not included.
func (w *World) Descendants(e models.EntityID) []models.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.descendantsLocked(e)
}

func (w *World) descendantsLocked(e models.EntityID) []models.EntityID {
	rec, ok := w.entities[e]
	if !ok {
		return nil
	}
	var out []models.EntityID
	queue := slices.Clone(rec.children)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		if r, ok := w.entities[id]; ok {
			queue = append(queue, r.children...)
		}
	}
	return out
}

// Roots returns entities without a parent, ascending.
func (w *World) Roots() []models.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []models.EntityID
	for id, rec := range w.entities {
		if rec.parent == models.NoEntity {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Query returns entities carrying all of ids, ascending. No ids matches every entity.
func (w *World) Query(ids ...models.ComponentID) []models.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []models.EntityID
next:
	for id, rec := range w.entities {
		for _, c := range ids {
			if _, ok := rec.comps[c]; !ok {
				continue next
			}
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ChangeTick is the value stamped on the most recent Insert.
func (w *World) ChangeTick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.changeTick
}

// AddedSince returns entities whose component id was inserted after tick, ascending.
func (w *World) AddedSince(id models.ComponentID, tick uint64) []models.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []models.EntityID
	for e, rec := range w.entities {
		if at, ok := rec.added[id]; ok && at > tick {
			out = append(out, e)
		}
	}
	slices.Sort(out)
	return out
}
