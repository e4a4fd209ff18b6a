package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/config"
	"github.com/zeusync/scenefab/internal/core/fab"
	"github.com/zeusync/scenefab/internal/core/host"
	"github.com/zeusync/scenefab/internal/core/models"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/world"
	"github.com/zeusync/scenefab/internal/injector"
)

const (
	minionScene = "scenes/minion.scn"
	minionGLB   = "bundles/minion.glb"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the demo and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("scenefab", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "path to scenefab.yaml (optional)")
		pipelines  = fs.String("pipelines", "", "comma separated pipeline files, loaded after config ones")
		ticks      = fs.Int("ticks", 120, "ticks to run, 0 runs until interrupted")
		count      = fs.Int("instances", 4, "minions to spawn")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 2
	}
	if *pipelines != "" {
		cfg.Engine.Pipelines = append(cfg.Engine.Pipelines, strings.Split(*pipelines, ",")...)
	}

	h, cleanup, err := injector.InitializeHost(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "init:", err)
		return 1
	}
	defer cleanup()
	l := log.Provide()
	defer func() { _ = l.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopCh)
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := setup(ctx, h, cfg, *count); err != nil {
		l.Error("setup failed", log.Error(err))
		return 1
	}

	if err := h.Run(ctx, *ticks); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("host stopped", log.Error(err))
		return 1
	}

	s := h.Engine().Stats()
	l.Info("summary",
		log.Uint64("ticks", h.Ticks()),
		log.Int("entities", h.World().Len()),
		log.Uint64("resolved", s.Resolved),
		log.Uint64("dropped", s.Dropped),
		log.Uint64("prefab_steps", s.PrefabSteps),
		log.Uint64("tagged", s.Tagged),
		log.Uint64("postfab_runs", s.PostfabRuns),
		log.Uint64("failures", s.Failures),
		log.Uint64("entity_gone", s.EntityGone),
	)
	return 0
}

// setup provides the demo assets, registers pipelines and spawns minions.
func setup(ctx context.Context, h *host.Host, cfg config.Config, count int) error {
	tpl := assets.NewTemplate(minionGLB + "#Scene0")
	tpl.Add("LeftOrbiter", models.NoEntity)
	tpl.Add("RightOrbiter", models.NoEntity)
	body := tpl.Add("Body", models.NoEntity)
	tpl.Add("Head", body)
	if err := h.Assets().ProvideTemplate(tpl); err != nil {
		return err
	}
	if _, err := h.Assets().ProvideContainer(minionGLB, tpl.Path); err != nil {
		return err
	}

	alias := assets.NewTemplate(minionScene)
	alias.Add("Body", models.NoEntity)
	if err := h.Assets().ProvideTemplate(alias); err != nil {
		return err
	}

	rotating := models.NewMarker("Rotating")
	if err := h.Engine().RegisterPrefab(fab.ContainerAt(minionGLB), fab.NewPipeline(
		fab.RunFunc(func(c *fab.Context, _ models.EntityID) error {
			c.Log.Info("minion template prepared", log.Int("entities", c.World.Len()))
			return nil
		}),
	)); err != nil {
		return err
	}
	if err := h.Engine().RegisterPostfab(fab.ContainerAt(minionGLB), fab.NewPipeline(
		fab.ApplyTo(fab.EntityCommandFunc(func(w *world.World, e models.EntityID) error {
			return w.Insert(e, rotating)
		})).NameContains("Orbiter"),
		fab.RunFunc(func(c *fab.Context, root models.EntityID) error {
			name, _ := c.World.Name(root)
			c.Log.Info("minion ready", log.String("name", name), log.Int("parts", len(c.World.Descendants(root))))
			return nil
		}).RootOnly(),
	)); err != nil {
		return err
	}

	if len(cfg.Engine.Pipelines) > 0 {
		if err := h.Loader().LoadFiles(ctx, cfg.Engine.Pipelines...); err != nil {
			return fmt.Errorf("load pipelines: %w", err)
		}
	}

	h.Assets().Load(minionGLB)
	h.Assets().Load(minionScene)

	for i := range count {
		req := fab.NewSpawn(fab.ContainerAt(minionGLB)).Named(fmt.Sprintf("Minion%d", i))
		if i%2 == 1 {
			h.Engine().SpawnVariant(h.World(), req, fab.ApplyTo(fab.EntityCommandFunc(
				func(w *world.World, e models.EntityID) error { return w.Insert(e, models.NewMarker("Elite")) },
			)).WithName("Head"))
			continue
		}
		h.Engine().Spawn(h.World(), req)
	}
	return nil
}
