package fab

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/world"
)

var ErrUnknownAction = errors.New("fab: unknown action")

// ActionFactory builds an Action from the params of a declarative step.
type ActionFactory func(params map[string]any) (Action, error)

// ActionRegistry maps action names used in pipeline files to factories.
type ActionRegistry struct {
	mu        sync.RWMutex
	factories map[string]ActionFactory
}

func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{factories: make(map[string]ActionFactory)}
}

// Register binds name to f, replacing any previous factory.
func (r *ActionRegistry) Register(name string, f ActionFactory) {
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
}

func (r *ActionRegistry) New(name string, params map[string]any) (Action, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	a, err := f(params)
	if err != nil {
		return Action{}, fmt.Errorf("action %q: %w", name, err)
	}
	if !a.valid() {
		return Action{}, fmt.Errorf("action %q: %w", name, ErrNilAction)
	}
	return a, nil
}

// Names lists the registered action names, sorted.
func (r *ActionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// RegisterBuiltins adds the actions every pipeline file can use:
//
//	insert_tag  {name}           entity command inserting a marker component
//	remove_tag  {name}           entity command removing a marker component
//	despawn                      entity command despawning the target and its subtree
//	log         {message, level} behavior logging the target
func RegisterBuiltins(r *ActionRegistry) {
	r.Register("insert_tag", func(params map[string]any) (Action, error) {
		name, err := requiredString(params, "name")
		if err != nil {
			return Action{}, err
		}
		marker := models.NewMarker(name)
		return EntityCommandAction(EntityCommandFunc(func(w *world.World, e models.EntityID) error {
			return w.Insert(e, marker)
		})), nil
	})
	r.Register("remove_tag", func(params map[string]any) (Action, error) {
		name, err := requiredString(params, "name")
		if err != nil {
			return Action{}, err
		}
		id := models.ComponentIDOf(name)
		return EntityCommandAction(EntityCommandFunc(func(w *world.World, e models.EntityID) error {
			return w.Remove(e, id)
		})), nil
	})
	r.Register("despawn", func(map[string]any) (Action, error) {
		return EntityCommandAction(EntityCommandFunc(func(w *world.World, e models.EntityID) error {
			return w.Despawn(e)
		})), nil
	})
	r.Register("log", func(params map[string]any) (Action, error) {
		msg := optionalString(params, "message", "pipeline step")
		level, err := log.ParseLevel(optionalString(params, "level", "info"))
		if err != nil {
			return Action{}, err
		}
		return BehaviorAction(BehaviorFunc(func(ctx *Context, target models.EntityID) error {
			fields := []log.Field{log.Asset(ctx.Scene)}
			if target != models.NoEntity {
				fields = append(fields, log.Entity(target))
				if name, ok := ctx.World.Name(target); ok {
					fields = append(fields, log.String("name", name))
				}
			}
			ctx.Log.Log(level, msg, fields...)
			return nil
		})), nil
	})
}

func requiredString(params map[string]any, key string) (string, error) {
	s, ok := params[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("requires string param %q", key)
	}
	return s, nil
}

func optionalString(params map[string]any, key, def string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return def
}
