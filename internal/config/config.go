package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	Composition CompositionConfig `yaml:"composition"`
	Probe       ProbeConfig       `yaml:"probe"`
	Output      OutputConfig      `yaml:"output"`
}

// CompositionConfig describes the frame grid and the fixed head and tail of every video
type CompositionConfig struct {
	FPS              int     `yaml:"fps"`
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	TransitionFrames int     `yaml:"transition_frames"`
	IntroSeconds     float64 `yaml:"intro_seconds"`
	OutroSeconds     float64 `yaml:"outro_seconds"`
}

type ProbeConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MediaDir string        `yaml:"media_dir"`
}

type OutputConfig struct {
	Format string `yaml:"format"`
}

// Load reads configuration from file or returns defaults, then applies
// environment overrides (a .env file in the working directory is honoured).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, err
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the timeline builder cannot work with
func (c *Config) Validate() error {
	comp := c.Composition
	if comp.FPS <= 0 {
		return fmt.Errorf("composition.fps must be positive, got %d", comp.FPS)
	}
	if comp.TransitionFrames < 0 {
		return fmt.Errorf("composition.transition_frames must not be negative, got %d", comp.TransitionFrames)
	}
	if comp.IntroSeconds < 0 || comp.OutroSeconds < 0 {
		return fmt.Errorf("composition intro/outro seconds must not be negative")
	}
	for _, v := range []float64{comp.IntroSeconds, comp.OutroSeconds} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("composition intro/outro seconds must be finite, got %v", v)
		}
	}
	if comp.Width <= 0 || comp.Height <= 0 {
		return fmt.Errorf("composition size %dx%d is invalid", comp.Width, comp.Height)
	}
	switch c.Output.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("output.format %q is not one of text, json, yaml", c.Output.Format)
	}
	return nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Composition: CompositionConfig{
			FPS:              30,
			Width:            1920,
			Height:           1080,
			TransitionFrames: 15,
			IntroSeconds:     5,
			OutroSeconds:     5,
		},
		Probe: ProbeConfig{
			Timeout: 10 * time.Second,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

func (c *Config) applyEnv(getenv func(string) string) error {
	ints := map[string]*int{
		"SHOWCASE_FPS":               &c.Composition.FPS,
		"SHOWCASE_TRANSITION_FRAMES": &c.Composition.TransitionFrames,
	}
	for key, dst := range ints {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	floats := map[string]*float64{
		"SHOWCASE_INTRO_SECONDS": &c.Composition.IntroSeconds,
		"SHOWCASE_OUTRO_SECONDS": &c.Composition.OutroSeconds,
	}
	for key, dst := range floats {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = f
	}

	if v := strings.TrimSpace(getenv("SHOWCASE_MEDIA_DIR")); v != "" {
		c.Probe.MediaDir = v
	}
	if v := strings.TrimSpace(getenv("SHOWCASE_FORMAT")); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	return nil
}

func findConfigFile() string {
	candidates := []string{
		"./showcase.yaml",
		"./showcase.yml",
		filepath.Join(os.Getenv("HOME"), ".showcase", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
