package fab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenefab/internal/core/models"
)

// File is a declarative set of pipelines.
//
//	postfabs:
//	  - scene: scenes/minion.scn
//	    steps:
//	      - action: insert_tag
//	        params: {name: Rotating}
//	        name: {contains: Orbiter}
type File struct {
	Prefabs  []PipelineConfig `yaml:"prefabs,omitempty"`
	Postfabs []PipelineConfig `yaml:"postfabs,omitempty"`
}

// PipelineConfig targets exactly one of Scene or Container.
type PipelineConfig struct {
	Scene     string       `yaml:"scene,omitempty"`
	Container string       `yaml:"container,omitempty"`
	Steps     []StepConfig `yaml:"steps"`
}

type StepConfig struct {
	Action   string         `yaml:"action"`
	Params   map[string]any `yaml:"params,omitempty"`
	RootOnly bool           `yaml:"root_only,omitempty"`
	With     []string       `yaml:"with,omitempty"`
	Without  []string       `yaml:"without,omitempty"`
	Name     *NameConfig    `yaml:"name,omitempty"`
}

// NameConfig sets exactly one field.
type NameConfig struct {
	Equals     string       `yaml:"equals,omitempty"`
	Contains   string       `yaml:"contains,omitempty"`
	StartsWith string       `yaml:"starts_with,omitempty"`
	EndsWith   string       `yaml:"ends_with,omitempty"`
	Any        []NameConfig `yaml:"any,omitempty"`
}

// Registration is one built pipeline ready to be registered.
type Registration struct {
	Kind     Kind
	Target   Target
	Pipeline *Pipeline
}

// LoadYAML decodes a pipeline file.
func LoadYAML(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	f, err := LoadYAML(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Build resolves every step against actions. Prefabs come first, each list in file order.
func (f *File) Build(actions *ActionRegistry) ([]Registration, error) {
	out := make([]Registration, 0, len(f.Prefabs)+len(f.Postfabs))
	for _, group := range []struct {
		kind Kind
		cfgs []PipelineConfig
	}{{Prefab, f.Prefabs}, {Postfab, f.Postfabs}} {
		for i, pc := range group.cfgs {
			reg, err := pc.build(group.kind, actions)
			if err != nil {
				return nil, fmt.Errorf("%s %d: %w", group.kind, i, err)
			}
			out = append(out, reg)
		}
	}
	return out, nil
}

func (pc PipelineConfig) build(kind Kind, actions *ActionRegistry) (Registration, error) {
	var target Target
	switch {
	case pc.Scene != "" && pc.Container != "":
		return Registration{}, errors.New("set either scene or container, not both")
	case pc.Scene != "":
		target = SceneAt(pc.Scene)
	case pc.Container != "":
		target = ContainerAt(pc.Container)
	default:
		return Registration{}, errors.New("missing scene or container")
	}

	steps := make([]Step, 0, len(pc.Steps))
	for i, sc := range pc.Steps {
		s, err := sc.build(actions)
		if err != nil {
			return Registration{}, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	return Registration{Kind: kind, Target: target, Pipeline: NewPipeline(steps...)}, nil
}

func (sc StepConfig) build(actions *ActionRegistry) (Step, error) {
	a, err := actions.New(sc.Action, sc.Params)
	if err != nil {
		return Step{}, err
	}
	s := NewStep(a).With(componentIDs(sc.With)...).Without(componentIDs(sc.Without)...)
	if sc.RootOnly {
		s = s.RootOnly()
	}
	if sc.Name != nil {
		p, err := sc.Name.predicate()
		if err != nil {
			return Step{}, err
		}
		s = s.Named(p)
	}
	return s, nil
}

func (nc NameConfig) predicate() (NamePredicate, error) {
	var (
		p   NamePredicate
		set int
	)
	if nc.Equals != "" {
		p, set = Equals(nc.Equals), set+1
	}
	if nc.Contains != "" {
		p, set = Contains(nc.Contains), set+1
	}
	if nc.StartsWith != "" {
		p, set = StartsWith(nc.StartsWith), set+1
	}
	if nc.EndsWith != "" {
		p, set = EndsWith(nc.EndsWith), set+1
	}
	if len(nc.Any) > 0 {
		subs := make([]NamePredicate, 0, len(nc.Any))
		for _, c := range nc.Any {
			sp, err := c.predicate()
			if err != nil {
				return NamePredicate{}, err
			}
			subs = append(subs, sp)
		}
		p, set = Any(subs...), set+1
	}
	if set != 1 {
		return NamePredicate{}, fmt.Errorf("name filter needs exactly one predicate, got %d", set)
	}
	return p, nil
}

func componentIDs(names []string) []models.ComponentID {
	if len(names) == 0 {
		return nil
	}
	ids := make([]models.ComponentID, len(names))
	for i, n := range names {
		ids[i] = models.ComponentIDOf(n)
	}
	return ids
}

// Loader registers pipeline files on an engine.
type Loader struct {
	actions *ActionRegistry
	engine  *Engine
}

func NewLoader(actions *ActionRegistry, engine *Engine) *Loader {
	return &Loader{actions: actions, engine: engine}
}

// Apply registers every built pipeline in order and stops at the first failure.
func (l *Loader) Apply(regs []Registration) error {
	for _, r := range regs {
		var err error
		switch r.Kind {
		case Prefab:
			err = l.engine.RegisterPrefab(r.Target, r.Pipeline)
		case Postfab:
			err = l.engine.RegisterPostfab(r.Target, r.Pipeline)
		default:
			err = fmt.Errorf("unknown pipeline kind %s", r.Kind)
		}
		if err != nil {
			return fmt.Errorf("register %s on %s: %w", r.Kind, r.Target, err)
		}
	}
	return nil
}

// LoadFiles parses and builds paths concurrently, then registers them in
// argument order so later files override earlier ones.
func (l *Loader) LoadFiles(ctx context.Context, paths ...string) error {
	built := make([][]Registration, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := LoadFile(p)
			if err != nil {
				return err
			}
			regs, err := f.Build(l.actions)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			built[i] = regs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, regs := range built {
		if err := l.Apply(regs); err != nil {
			return err
		}
	}
	return nil
}
