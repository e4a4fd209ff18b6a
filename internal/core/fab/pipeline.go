package fab

import (
	"fmt"
	"slices"
)

// Kind distinguishes the two registry tables.
type Kind uint8

const (
	// Prefab pipelines run once against a loaded template.
	Prefab Kind = iota
	// Postfab pipelines run against every spawned instance.
	Postfab

	kindCount
)

func (k Kind) String() string {
	switch k {
	case Prefab:
		return "prefab"
	case Postfab:
		return "postfab"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Pipeline is an ordered, immutable list of steps.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: slices.Clone(steps)}
}

// Then returns a new pipeline with steps appended; p is unchanged.
func (p *Pipeline) Then(steps ...Step) *Pipeline {
	return &Pipeline{steps: append(p.Steps(), steps...)}
}

// Steps returns a copy of the steps in execution order.
func (p *Pipeline) Steps() []Step {
	if p == nil {
		return nil
	}
	return slices.Clone(p.steps)
}

func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.steps)
}

func (p *Pipeline) validate() error {
	for i, s := range p.Steps() {
		if !s.action.valid() {
			return fmt.Errorf("step %d: %w", i, ErrNilAction)
		}
	}
	return nil
}

// firstCommandStep returns the index of the first non-behavior step, or -1.
func (p *Pipeline) firstCommandStep() int {
	for i, s := range p.Steps() {
		if s.action.kind != ActionBehavior {
			return i
		}
	}
	return -1
}
