package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/lesson"
)

const (
	DefaultPath         = "lesson.yaml"
	DefaultContentRoot  = "."
	DefaultAddr         = ":8080"
	DefaultTickInterval = 250 * time.Millisecond
)

// settings shared by every command
type Config struct {
	// directory or http(s) base URL holding NCE{n}/ audio and captions
	ContentRoot string `yaml:"content_root"`
	// manifest path relative to the content root
	Manifest     string        `yaml:"manifest"`
	Addr         string        `yaml:"addr"`
	CORSOrigins  []string      `yaml:"cors_origins"`
	TickInterval time.Duration `yaml:"tick_interval"`
	// seconds subtracted from every caption timestamp
	Offset      float64       `yaml:"offset"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	MaxBytes    int64         `yaml:"max_bytes"`

	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	Translation Translation `yaml:"translation"`

	path string
}

type Translation struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	InputLanguage  string `yaml:"input_language"`
	TargetLanguage string `yaml:"target_language"`
	BatchSize      int    `yaml:"batch_size"`
	Concurrency    int    `yaml:"concurrency"`
}

func Default() *Config {
	return &Config{
		ContentRoot:  DefaultContentRoot,
		Manifest:     lesson.DefaultManifestPath,
		Addr:         DefaultAddr,
		CORSOrigins:  []string{"*"},
		TickInterval: DefaultTickInterval,
		Offset:       caption.DefaultOffset,
		HTTPTimeout:  lesson.DefaultTimeout,
		MaxBytes:     lesson.DefaultMaxBytes,
		Translation: Translation{
			Provider:       "gemini",
			InputLanguage:  "English",
			TargetLanguage: "Simplified Chinese",
			Concurrency:    3,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// the environment, in that order. A missing file is only an error when path
// was given explicitly. envFiles are loaded with godotenv first (".env"
// when none are given) and never override variables already set.
func Load(path string, envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.path = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()

	return cfg, cfg.Validate()
}

// file the configuration was read from, empty when defaults were used
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyEnv() error {
	setString(&c.ContentRoot, "LESSON_CONTENT_ROOT")
	setString(&c.Manifest, "LESSON_MANIFEST")
	setString(&c.Addr, "LESSON_ADDR")
	setString(&c.FFmpegPath, "LESSON_FFMPEG_PATH")
	setString(&c.FFprobePath, "LESSON_FFPROBE_PATH")
	setString(&c.Translation.Provider, "LESSON_TRANSLATE_PROVIDER")
	setString(&c.Translation.Model, "LESSON_TRANSLATE_MODEL")

	if v := os.Getenv("LESSON_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("LESSON_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LESSON_TICK_INTERVAL %q: %w", v, err)
		}
		c.TickInterval = d
	}
	if v := os.Getenv("LESSON_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LESSON_HTTP_TIMEOUT %q: %w", v, err)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv("LESSON_OFFSET"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid LESSON_OFFSET %q: %w", v, err)
		}
		c.Offset = f
	}
	return nil
}

func (c *Config) normalize() {
	c.ContentRoot = strings.TrimSpace(c.ContentRoot)
	c.Manifest = strings.TrimLeft(strings.TrimSpace(c.Manifest), "/")
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))

	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = lesson.DefaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = lesson.DefaultMaxBytes
	}
	if c.Translation.Concurrency <= 0 {
		c.Translation.Concurrency = 1
	}
}

func (c *Config) Validate() error {
	if c.ContentRoot == "" {
		return fmt.Errorf("content_root is required")
	}
	if c.Manifest == "" {
		return fmt.Errorf("manifest is required")
	}
	if c.Offset < 0 {
		return fmt.Errorf("offset must not be negative, got %v", c.Offset)
	}
	return nil
}

// Library opens the configured content root with the configured fetch
// limits and parser offset.
func (c *Config) Library() (*lesson.Library, error) {
	src, err := lesson.NewSource(c.ContentRoot)
	if err != nil {
		return nil, err
	}
	if hs, ok := src.(*lesson.HTTPSource); ok {
		hs.Timeout = c.HTTPTimeout
		hs.MaxBytes = c.MaxBytes
	}
	lib := lesson.NewLibrary(src, c.Manifest)
	lib.Parser = &caption.Parser{Offset: c.Offset}
	return lib, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
