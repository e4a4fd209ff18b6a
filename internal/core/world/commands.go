package world

import (
	"errors"
	"sync"

	"github.com/zeusync/scenefab/internal/core/models"
)

// Commands buffers structural changes so they can be applied in one step,
// after whatever is iterating the world has finished.
type Commands struct {
	mu    sync.Mutex
	world *World
	queue []func(*World) error
}

func newCommands(w *World) *Commands {
	return &Commands{world: w}
}

// Push queues an arbitrary mutation.
func (c *Commands) Push(fn func(*World) error) {
	c.mu.Lock()
	c.queue = append(c.queue, fn)
	c.mu.Unlock()
}

// Spawn reserves an entity now and returns its ID; components are attached on flush.
func (c *Commands) Spawn(components ...models.Component) models.EntityID {
	e := c.world.Spawn()
	if len(components) > 0 {
		c.Insert(e, components...)
	}
	return e
}

func (c *Commands) Despawn(e models.EntityID) {
	c.Push(func(w *World) error { return w.Despawn(e) })
}

func (c *Commands) Insert(e models.EntityID, components ...models.Component) {
	c.Push(func(w *World) error {
		var errs error
		for _, comp := range components {
			if err := w.Insert(e, comp); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		return errs
	})
}

func (c *Commands) Remove(e models.EntityID, ids ...models.ComponentID) {
	c.Push(func(w *World) error {
		var errs error
		for _, id := range ids {
			if err := w.Remove(e, id); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		return errs
	})
}

func (c *Commands) SetName(e models.EntityID, name string) {
	c.Push(func(w *World) error { return w.SetName(e, name) })
}

func (c *Commands) SetParent(child, parent models.EntityID) {
	c.Push(func(w *World) error { return w.SetParent(child, parent) })
}

// Pending reports how many commands are queued.
func (c *Commands) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Flush applies queued commands in FIFO order. Commands queued while flushing
// run in the same flush. A failing command does not stop the rest.
func (c *Commands) Flush() error {
	var errs error
	for {
		c.mu.Lock()
		queue := c.queue
		c.queue = nil
		c.mu.Unlock()
		if len(queue) == 0 {
			return errs
		}
		for _, fn := range queue {
			if err := fn(c.world); err != nil {
				errs = errors.Join(errs, err)
			}
		}
	}
}
