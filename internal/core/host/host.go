package host

import (
	"context"
	"errors"
	"time"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/fab"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/scene"
	"github.com/zeusync/scenefab/internal/core/world"
)

var ErrTickLimit = errors.New("host: tick limit reached")

// Host drives the world, the collaborators and the pipeline engine in a fixed per-tick order.
type Host struct {
	world    *world.World
	assets   *assets.Server
	spawner  *scene.Spawner
	engine   *fab.Engine
	loader   *fab.Loader
	log      log.Log
	interval time.Duration
	ticks    uint64
}

func New(interval time.Duration, w *world.World, srv *assets.Server, sp *scene.Spawner, eng *fab.Engine, loader *fab.Loader, l log.Log) *Host {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Host{
		world:    w,
		assets:   srv,
		spawner:  sp,
		engine:   eng,
		loader:   loader,
		log:      l.With(log.String("component", "host")),
		interval: interval,
	}
}

func (h *Host) World() *world.World     { return h.world }
func (h *Host) Assets() *assets.Server  { return h.assets }
func (h *Host) Spawner() *scene.Spawner { return h.spawner }
func (h *Host) Engine() *fab.Engine     { return h.engine }
func (h *Host) Loader() *fab.Loader     { return h.loader }
func (h *Host) Ticks() uint64           { return h.ticks }

// Tick runs one frame: asset loading, engine phases, instantiation, then the
// world's deferred commands. Command failures are logged, not returned.
func (h *Host) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.ticks++

	h.assets.Update()
	h.engine.Tick(h.world)
	h.spawner.Update(h.world)
	if err := h.world.Commands().Flush(); err != nil {
		h.log.Error("world commands failed", log.Uint64("tick", h.ticks), log.Error(err))
	}
	return nil
}

// Run ticks at the configured rate. ticks <= 0 runs until ctx is cancelled.
func (h *Host) Run(ctx context.Context, ticks int) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.log.Info("host loop started", log.Duration("interval", h.interval), log.Int("ticks", ticks))
	for n := 0; ticks <= 0 || n < ticks; n++ {
		select {
		case <-ctx.Done():
			h.log.Info("host loop stopped", log.Uint64("tick", h.ticks))
			return ctx.Err()
		case <-ticker.C:
		}
		if err := h.Tick(ctx); err != nil {
			return err
		}
	}
	h.log.Info("host loop finished", log.Uint64("tick", h.ticks))
	return nil
}

// RunUntil ticks back to back until cond holds, failing with ErrTickLimit after maxTicks.
func (h *Host) RunUntil(ctx context.Context, maxTicks int, cond func() bool) error {
	for n := 0; !cond(); n++ {
		if n >= maxTicks {
			return ErrTickLimit
		}
		if err := h.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the engine's event subscription.
func (h *Host) Close() error {
	return h.engine.Close()
}
