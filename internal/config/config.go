// Package config loads termshield settings from defaults, an optional YAML
// file and TERMSHIELD_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/valpere/termshield/internal/cache"
	"github.com/valpere/termshield/internal/similarity"
	"github.com/valpere/termshield/internal/translator"
)

const (
	EnvPrefix   = "TERMSHIELD"
	DefaultPath = "./termshield.yml"
)

// Backend kinds.
const (
	KindOllama   = "ollama"
	KindOpenAI   = "openai"
	KindGoogle   = "google"
	KindIdentity = "identity"
)

type CacheConfig struct {
	// Kind is memory, redis or none.
	Kind              string `mapstructure:"kind"`
	cache.RedisConfig `mapstructure:",squash"`
}

type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	CatalogPath     string `mapstructure:"catalog_path"`
	CatalogLanguage string `mapstructure:"catalog_language"`
	DetectNames     bool   `mapstructure:"detect_names"`

	UseFindReplace   bool `mapstructure:"use_find_replace"`
	SingleAttempt    bool `mapstructure:"single_attempt"`
	ValidateLanguage bool `mapstructure:"validate_language"`
	ChunkSize        int  `mapstructure:"chunk_size"`

	HighlightColor string `mapstructure:"highlight_color"`
	StorePath      string `mapstructure:"store_path"`

	Backends []translator.ServiceConfig `mapstructure:"backends"`
	Embedder similarity.Config          `mapstructure:"embedder"`
	Cache    CacheConfig                `mapstructure:"cache"`
}

// Defaults is the configuration used when nothing else is set.
func Defaults() map[string]any {
	return map[string]any{
		"log_level":         "info",
		"log_format":        "console",
		"catalog_path":      "",
		"catalog_language":  "fr",
		"detect_names":      false,
		"use_find_replace":  true,
		"single_attempt":    false,
		"validate_language": false,
		"chunk_size":        600,
		"highlight_color":   "yellow",
		"store_path":        "",
		"backends": []map[string]any{
			{"name": "ollama", "kind": KindOllama, "model": "llama3.2", "base_url": "http://localhost:11434", "timeout": "120s"},
		},
		"embedder": map[string]any{
			"kind":     "",
			"model":    "",
			"base_url": "",
			"api_key":  "",
		},
		"cache": map[string]any{
			"kind":       "memory",
			"redis_addr": "localhost:6379",
			"redis_db":   0,
			"prefix":     cache.DefaultPrefix,
		},
	}
}

// Load reads the configuration into a fresh Config. A missing file at path
// is tolerated unless required is set.
func Load(v *viper.Viper, path string, required bool) (*Config, error) {
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		switch {
		case err == nil:
			log.Debug().Str("path", v.ConfigFileUsed()).Msg("config loaded")
		case !required && (errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)):
			log.Debug().Str("path", path).Msg("no config file, default settings applied")
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if len(c.Backends) == 0 {
		return errors.New("at least one backend must be configured")
	}
	for i, b := range c.Backends {
		switch b.Kind {
		case KindOllama, KindGoogle, KindIdentity:
		case KindOpenAI:
			if b.Model == "" {
				return fmt.Errorf("backends[%d]: openai backend needs a model", i)
			}
		default:
			return fmt.Errorf("backends[%d]: unknown kind %q", i, b.Kind)
		}
	}
	switch c.Cache.Kind {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.kind must be memory, redis or none, got %q", c.Cache.Kind)
	}
	switch c.Embedder.Kind {
	case "", "none", "openai":
	default:
		return fmt.Errorf("embedder.kind must be openai or none, got %q", c.Embedder.Kind)
	}
	return nil
}

// SetupLogging configures the global zerolog logger.
func SetupLogging(level, format string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}
	return nil
}

// WriteTemplate writes the default configuration as YAML to path.
func WriteTemplate(path string) error {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to encode config template: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
