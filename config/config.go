// Package config loads the application settings from a YAML or TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config holds every setting the application reads at startup.
type Config struct {
	Window    WindowConfig   `yaml:"window" toml:"window"`
	Backend   string         `yaml:"backend" toml:"backend"`
	Mode      string         `yaml:"mode" toml:"mode"`
	VSync     *bool          `yaml:"vsync" toml:"vsync"` // pointer to distinguish unset vs false
	ShaderDir string         `yaml:"shader_dir" toml:"shader_dir"`
	HotReload bool           `yaml:"hot_reload" toml:"hot_reload"`
	LogLevel  string         `yaml:"log_level" toml:"log_level"`
	Camera    CameraConfig   `yaml:"camera" toml:"camera"`
	Profiler  ProfilerConfig `yaml:"profiler" toml:"profiler"`
	Workers   int            `yaml:"workers" toml:"workers"`
	Scene     *SceneConfig   `yaml:"scene" toml:"scene"`
}

// WindowConfig is the initial window state.
type WindowConfig struct {
	Title  string `yaml:"title" toml:"title"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
}

// CameraConfig tunes the fly camera.
type CameraConfig struct {
	Position    []float32 `yaml:"position" toml:"position"`
	Yaw         *float32  `yaml:"yaw" toml:"yaw"`
	Pitch       float32   `yaml:"pitch" toml:"pitch"`
	Fov         float32   `yaml:"fov" toml:"fov"`
	MoveSpeed   float32   `yaml:"move_speed" toml:"move_speed"`
	Sensitivity float32   `yaml:"sensitivity" toml:"sensitivity"`
}

// ProfilerConfig enables periodic frame statistics.
type ProfilerConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Interval string `yaml:"interval" toml:"interval"`
}

const (
	defaultTitle       = "oxy-pipeline"
	defaultWidth       = 1280
	defaultHeight      = 720
	defaultBackend     = "opengl"
	defaultMode        = "deferred"
	defaultLogLevel    = "info"
	defaultFov         = 60
	defaultMoveSpeed   = 10
	defaultSensitivity = 0.1
	defaultInterval    = "1s"
	defaultWorkers     = 4
)

// Default returns the settings used when no config file exists.
//
// Returns:
//   - *Config: a config with every default applied
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a config file. The format follows the extension: .yaml and .yml are YAML, .toml is TOML.
// A "~" prefix in the path expands to the home directory. A missing file is not an error: the defaults
// are returned and a warning is logged.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - *Config: the loaded config with defaults filled in
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if errors.Is(err, fs.ErrNotExist) {
		common.Logger().Warn("config file not found, using defaults", "path", expanded)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}

	c, err := Parse(data, filepath.Ext(expanded))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", expanded, err)
	}
	return c, nil
}

// Parse decodes config bytes in the format named by ext, then applies defaults and validates.
//
// Parameters:
//   - data: the encoded config
//   - ext: the file extension including the dot
//
// Returns:
//   - *Config: the parsed config
//   - error: error if decoding or validation fails
func Parse(data []byte, ext string) (*Config, error) {
	c := &Config{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}

	c.applyDefaults()
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	c.Window.Title = common.Coalesce(c.Window.Title, defaultTitle)
	c.Window.Width = common.Coalesce(c.Window.Width, defaultWidth)
	c.Window.Height = common.Coalesce(c.Window.Height, defaultHeight)
	c.Backend = common.Coalesce(strings.ToLower(c.Backend), defaultBackend)
	c.Mode = common.Coalesce(strings.ToLower(c.Mode), defaultMode)
	c.LogLevel = common.Coalesce(c.LogLevel, defaultLogLevel)
	c.Camera.Fov = common.Coalesce(c.Camera.Fov, defaultFov)
	c.Camera.MoveSpeed = common.Coalesce(c.Camera.MoveSpeed, defaultMoveSpeed)
	c.Camera.Sensitivity = common.Coalesce(c.Camera.Sensitivity, defaultSensitivity)
	c.Profiler.Interval = common.Coalesce(c.Profiler.Interval, defaultInterval)
	c.Workers = common.Coalesce(c.Workers, defaultWorkers)
	if c.VSync == nil {
		vsync := true
		c.VSync = &vsync
	}
}

func (c *Config) expandPaths() error {
	var err error
	if c.ShaderDir != "" {
		if c.ShaderDir, err = homedir.Expand(c.ShaderDir); err != nil {
			return fmt.Errorf("shader_dir: %w", err)
		}
	}
	if c.Scene == nil {
		return nil
	}
	for i := range c.Scene.Textures {
		t := &c.Scene.Textures[i]
		if t.Path == "" {
			continue
		}
		if t.Path, err = homedir.Expand(t.Path); err != nil {
			return fmt.Errorf("texture %s: %w", t.Name, err)
		}
	}
	return nil
}

// Validate checks that every named enumeration in the config is known.
//
// Returns:
//   - error: the first invalid setting
func (c *Config) Validate() error {
	if _, err := backend.ParseBackendType(c.Backend); err != nil {
		return err
	}
	if _, err := renderer.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.ProfilerInterval(); err != nil {
		return err
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("window size %dx%d must not be negative", c.Window.Width, c.Window.Height)
	}
	if c.Camera.Position != nil && len(c.Camera.Position) != 3 {
		return fmt.Errorf("camera position needs 3 components, got %d", len(c.Camera.Position))
	}
	if c.Scene != nil {
		return c.Scene.Validate()
	}
	return nil
}

// BackendType returns the parsed backend.
func (c *Config) BackendType() backend.BackendType {
	t, _ := backend.ParseBackendType(c.Backend)
	return t
}

// RenderMode returns the parsed initial mode.
func (c *Config) RenderMode() renderer.Mode {
	m, _ := renderer.ParseMode(c.Mode)
	return m
}

// Level returns the configured log level.
//
// Returns:
//   - slog.Level: the level
//   - error: error if the name is not a slog level
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// ProfilerInterval returns the parsed profiler reporting interval.
//
// Returns:
//   - time.Duration: the interval
//   - error: error if the interval is not a positive duration
func (c *Config) ProfilerInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Profiler.Interval)
	if err != nil {
		return 0, fmt.Errorf("profiler interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("profiler interval %s must be positive", d)
	}
	return d, nil
}
