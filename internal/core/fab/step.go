package fab

import (
	"slices"

	"github.com/zeusync/scenefab/internal/core/models"
)

// Step is one filtered unit of pipeline work. Steps are values: every builder
// method returns a modified copy and leaves the receiver untouched.
type Step struct {
	action   Action
	with     []models.ComponentID
	without  []models.ComponentID
	name     NamePredicate
	rootOnly bool
}

// NewStep wraps an action with no filters: it applies to the root and every descendant.
func NewStep(a Action) Step {
	return Step{action: a}
}

// Run builds a step invoking b for every matched entity.
func Run(b Behavior) Step { return NewStep(BehaviorAction(b)) }

// RunFunc is Run for a plain function.
func RunFunc(fn func(ctx *Context, target models.EntityID) error) Step {
	return Run(BehaviorFunc(fn))
}

// Apply builds a step queueing c once per matched entity.
func Apply(c Command) Step { return NewStep(CommandAction(c)) }

// ApplyTo builds a step queueing c against every matched entity.
func ApplyTo(c EntityCommand) Step { return NewStep(EntityCommandAction(c)) }

// With restricts the step to entities carrying all of ids.
func (s Step) With(ids ...models.ComponentID) Step {
	s.with = append(slices.Clone(s.with), ids...)
	return s
}

// Without restricts the step to entities carrying none of ids.
func (s Step) Without(ids ...models.ComponentID) Step {
	s.without = append(slices.Clone(s.without), ids...)
	return s
}

// Named sets the step's name predicate, replacing any previous one.
func (s Step) Named(p NamePredicate) Step {
	s.name = p
	return s
}

func (s Step) WithName(name string) Step         { return s.Named(Equals(name)) }
func (s Step) NameContains(part string) Step     { return s.Named(Contains(part)) }
func (s Step) NameStartsWith(prefix string) Step { return s.Named(StartsWith(prefix)) }
func (s Step) NameEndsWith(suffix string) Step   { return s.Named(EndsWith(suffix)) }

func (s Step) NameContainsAny(parts ...string) Step {
	return s.Named(anyOf(parts, Contains))
}

func (s Step) NameStartsWithAny(prefixes ...string) Step {
	return s.Named(anyOf(prefixes, StartsWith))
}

func (s Step) NameEndsWithAny(suffixes ...string) Step {
	return s.Named(anyOf(suffixes, EndsWith))
}

// RootOnly limits the step to the instance root.
func (s Step) RootOnly() Step {
	s.rootOnly = true
	return s
}

func (s Step) Action() Action           { return s.action }
func (s Step) IsRootOnly() bool         { return s.rootOnly }
func (s Step) Predicate() NamePredicate { return s.name }

// Matches evaluates the name predicate, then required and forbidden components.
// Unnamed entities never match, even without a predicate.
func (s Step) Matches(view EntityView, e models.EntityID) bool {
	name, ok := view.Name(e)
	if !ok || !s.name.Match(name) {
		return false
	}
	for _, id := range s.with {
		if !view.Has(e, id) {
			return false
		}
	}
	for _, id := range s.without {
		if view.Has(e, id) {
			return false
		}
	}
	return true
}
