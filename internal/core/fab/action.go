package fab

import (
	"errors"
	"fmt"

	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/world"
)

var (
	ErrNilAction  = errors.New("fab: nil action")
	ErrEntityGone = errors.New("fab: entity no longer exists")
)

// Context is built for a single action invocation and discarded afterwards.
type Context struct {
	World    *world.World
	Commands *world.Commands
	Log      log.Log
	// Scene is the template the pipeline was registered for.
	Scene models.AssetID
	// Root is the instance root, or NoEntity when running against a template.
	Root models.EntityID
}

// Behavior is invoked with the matched entity. At template scope the target is NoEntity.
type Behavior interface {
	Run(ctx *Context, target models.EntityID) error
}

type BehaviorFunc func(ctx *Context, target models.EntityID) error

func (f BehaviorFunc) Run(ctx *Context, target models.EntityID) error { return f(ctx, target) }

// Command is a deferred mutation of the world, not bound to the matched entity.
type Command interface {
	Apply(w *world.World) error
}

type CommandFunc func(w *world.World) error

func (f CommandFunc) Apply(w *world.World) error { return f(w) }

// EntityCommand is a deferred mutation scoped to the matched entity.
type EntityCommand interface {
	ApplyTo(w *world.World, e models.EntityID) error
}

type EntityCommandFunc func(w *world.World, e models.EntityID) error

func (f EntityCommandFunc) ApplyTo(w *world.World, e models.EntityID) error { return f(w, e) }

type ActionKind uint8

const (
	ActionBehavior ActionKind = iota + 1
	ActionCommand
	ActionEntityCommand
)

func (k ActionKind) String() string {
	switch k {
	case ActionBehavior:
		return "behavior"
	case ActionCommand:
		return "command"
	case ActionEntityCommand:
		return "entity_command"
	default:
		return "invalid"
	}
}

// Action is the closed set of things a step can do. Exactly one variant is set.
type Action struct {
	kind     ActionKind
	behavior Behavior
	command  Command
	entity   EntityCommand
}

func BehaviorAction(b Behavior) Action { return Action{kind: ActionBehavior, behavior: b} }

func CommandAction(c Command) Action { return Action{kind: ActionCommand, command: c} }

func EntityCommandAction(c EntityCommand) Action {
	return Action{kind: ActionEntityCommand, entity: c}
}

func (a Action) Kind() ActionKind { return a.kind }

func (a Action) valid() bool {
	switch a.kind {
	case ActionBehavior:
		return a.behavior != nil
	case ActionCommand:
		return a.command != nil
	case ActionEntityCommand:
		return a.entity != nil
	default:
		return false
	}
}

// execute dispatches a against target. Behaviors run now; commands are queued
// on ctx.Commands and take effect when the caller flushes. Panics raised by
// user code are returned as errors.
func execute(a Action, target models.EntityID, ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", a.kind, r)
		}
	}()

	switch a.kind {
	case ActionBehavior:
		return a.behavior.Run(ctx, target)
	case ActionCommand:
		ctx.Commands.Push(guard(a.kind, a.command.Apply))
		return nil
	case ActionEntityCommand:
		if !ctx.World.Exists(target) {
			return ErrEntityGone
		}
		cmd := a.entity
		ctx.Commands.Push(guard(a.kind, func(w *world.World) error {
			if !w.Exists(target) {
				return fmt.Errorf("entity command on %d: %w", target, world.ErrEntityNotFound)
			}
			return cmd.ApplyTo(w, target)
		}))
		return nil
	default:
		return ErrNilAction
	}
}

func guard(kind ActionKind, fn func(*world.World) error) func(*world.World) error {
	return func(w *world.World) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", kind, r)
			}
		}()
		return fn(w)
	}
}
