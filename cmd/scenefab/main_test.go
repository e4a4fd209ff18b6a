package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeusync/scenefab/internal/core/config"
)

func TestRunExitCodes(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "error")
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	t.Run("bad flag", func(t *testing.T) {
		var stderr bytes.Buffer
		assert.Equal(t, 2, run([]string{"-nope"}, &stderr))
		assert.Contains(t, stderr.String(), "-nope")
	})

	t.Run("missing config", func(t *testing.T) {
		var stderr bytes.Buffer
		assert.Equal(t, 2, run([]string{"-config", missing}, &stderr))
		assert.Contains(t, stderr.String(), "config:")
	})

	t.Run("setup failure", func(t *testing.T) {
		var stderr bytes.Buffer
		assert.Equal(t, 1, run([]string{"-pipelines", missing, "-ticks", "1"}, &stderr))
	})

	t.Run("completes", func(t *testing.T) {
		var stderr bytes.Buffer
		assert.Equal(t, 0, run([]string{"-ticks", "3", "-instances", "2"}, &stderr))
		assert.Empty(t, stderr.String())
	})
}
