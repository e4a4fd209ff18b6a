//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenefab/internal/core/config"
	"github.com/zeusync/scenefab/internal/core/host"
)

func InitializeHost(cfg config.Config) (*host.Host, func(), error) {
	wire.Build(HostSet)
	return nil, nil, nil
}
