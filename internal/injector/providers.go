package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/config"
	"github.com/zeusync/scenefab/internal/core/events/bus"
	"github.com/zeusync/scenefab/internal/core/fab"
	"github.com/zeusync/scenefab/internal/core/host"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/scene"
	"github.com/zeusync/scenefab/internal/core/world"
)

var HostSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	world.New,
	ProvideAssets,
	ProvideSpawner,
	fab.NewRegistry,
	ProvideEngine,
	ProvideActions,
	fab.NewLoader,
	ProvideHost,
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.LogConfig())
}

func ProvideAssets(cfg config.Config, b bus.EventBus, l log.Log) *assets.Server {
	return assets.NewServer(cfg.AssetsConfig(), b, l)
}

func ProvideSpawner(cfg config.Config, srv *assets.Server, l log.Log) *scene.Spawner {
	return scene.NewSpawner(cfg.SpawnerConfig(), srv, l)
}

func ProvideEngine(cfg config.Config, reg *fab.Registry, srv *assets.Server, b bus.EventBus, sp *scene.Spawner, l log.Log) (*fab.Engine, func(), error) {
	eng, err := fab.NewEngine(cfg.EngineOptions(), reg, srv, b, sp, l)
	if err != nil {
		return nil, nil, err
	}
	return eng, func() { _ = eng.Close() }, nil
}

func ProvideActions() *fab.ActionRegistry {
	actions := fab.NewActionRegistry()
	fab.RegisterBuiltins(actions)
	return actions
}

func ProvideHost(cfg config.Config, w *world.World, srv *assets.Server, sp *scene.Spawner, eng *fab.Engine, loader *fab.Loader, l log.Log) *host.Host {
	return host.New(cfg.TickInterval(), w, srv, sp, eng, loader, l)
}
