package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/scenefab/internal/core/models"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo,
		"warning": LevelWarn, "error": LevelError, "off": LevelSilent,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With(String("component", "test"))

	l.Warn("tick",
		Asset(models.AssetIDOf("scenes/minion.scn")),
		Entity(7),
		Step(2),
		Duration("took", time.Millisecond),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, models.AssetIDOf("scenes/minion.scn").String(), fields["asset"])
	assert.EqualValues(t, 7, fields["entity"])
	assert.EqualValues(t, 2, fields["step"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLoggerLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.SetLevel(LevelWarn)
	assert.Equal(t, LevelWarn, l.GetLevel())
	l.Info("dropped")
	l.Error("kept")
	l.Log(LevelSilent, "never")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)

	l.SetLevel(LevelSilent)
	l.Error("silenced")
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, LevelSilent, l.GetLevel())
}
