package injector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenefab/internal/core/config"
)

func TestInitializeHost(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"

	h, cleanup, err := InitializeHost(cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, h.Engine())
	require.NotNil(t, h.Loader())
	require.NoError(t, h.Tick(context.Background()))
	require.EqualValues(t, 1, h.Ticks())
}
