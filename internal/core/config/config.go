package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenefab/internal/core/assets"
	"github.com/zeusync/scenefab/internal/core/fab"
	"github.com/zeusync/scenefab/internal/core/observability/log"
	"github.com/zeusync/scenefab/internal/core/scene"
)

const (
	EnvLogLevel = "SCENEFAB_LOG_LEVEL"
	EnvTickRate = "SCENEFAB_TICK_RATE"
)

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
	Scene  SceneConfig  `yaml:"scene"`
	Assets AssetsConfig `yaml:"assets"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type EngineConfig struct {
	// TickRate is the number of host ticks per second.
	TickRate       int      `yaml:"tick_rate"`
	PrefabCommands string   `yaml:"prefab_commands"`
	Pipelines      []string `yaml:"pipelines,omitempty"`
}

type SceneConfig struct {
	MaterializeTicks int `yaml:"materialize_ticks"`
}

type AssetsConfig struct {
	LoadTicks int `yaml:"load_ticks"`
}

func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info", Encoding: "json"},
		Engine: EngineConfig{TickRate: 60, PrefabCommands: "reject"},
		Scene:  SceneConfig{MaterializeTicks: 1},
		Assets: AssetsConfig{LoadTicks: 1},
	}
}

// Load decodes r over the defaults, applies environment overrides and validates.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return finish(cfg)
}

// LoadFile is Load for a file. An empty path yields the defaults plus environment overrides.
func LoadFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return finish(Default())
	}
	f, err := os.Open(path)
	if err != nil {
		return Default(), err
	}
	defer func() { _ = f.Close() }()

	cfg, err := Load(f)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func finish(cfg Config) (Config, error) {
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvTickRate); ok && v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTickRate, err)
		}
		c.Engine.TickRate = rate
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.encoding: unsupported %q", c.Log.Encoding))
	}
	if c.Engine.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("engine.tick_rate: must be positive, got %d", c.Engine.TickRate))
	}
	if _, err := fab.ParsePrefabCommandPolicy(c.Engine.PrefabCommands); err != nil {
		errs = append(errs, fmt.Errorf("engine.prefab_commands: %w", err))
	}
	if c.Scene.MaterializeTicks < 0 {
		errs = append(errs, errors.New("scene.materialize_ticks: must not be negative"))
	}
	if c.Assets.LoadTicks < 0 {
		errs = append(errs, errors.New("assets.load_ticks: must not be negative"))
	}
	return errors.Join(errs...)
}

// TickInterval is the duration of one host tick.
func (c Config) TickInterval() time.Duration {
	if c.Engine.TickRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.Engine.TickRate)
}

func (c Config) LogConfig() log.Config {
	level, _ := log.ParseLevel(c.Log.Level)
	return log.Config{Level: level, Encoding: c.Log.Encoding}
}

func (c Config) EngineOptions() fab.Options {
	policy, _ := fab.ParsePrefabCommandPolicy(c.Engine.PrefabCommands)
	return fab.Options{PrefabCommands: policy}
}

func (c Config) SpawnerConfig() scene.Config {
	return scene.Config{MaterializeTicks: c.Scene.MaterializeTicks}
}

func (c Config) AssetsConfig() assets.Config {
	return assets.Config{LoadTicks: c.Assets.LoadTicks}
}
