package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	Files   []FilePair    `yaml:"files" mapstructure:"files"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GeocodeConfig configures the remote geocoding lookup.
type GeocodeConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoffMs  int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// EnrichConfig configures the file update loop.
type EnrichConfig struct {
	PauseMs int  `yaml:"pause_ms" mapstructure:"pause_ms"`
	Refetch bool `yaml:"refetch" mapstructure:"refetch"`
}

// FilePair is one input document and the path its enriched copy is written to.
type FilePair struct {
	Input  string `yaml:"input" mapstructure:"input"`
	Output string `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultFiles are the document pairs processed by `coordfill run` when the
// configuration does not list any.
func DefaultFiles() []FilePair {
	return []FilePair{
		{Input: "activites.json", Output: "updated_activites.json"},
		{Input: "hotels.json", Output: "updated_hotels.json"},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COORDFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("geocode.base_url", "https://geocode.maps.co/search")
	v.SetDefault("geocode.api_key", "")
	v.SetDefault("geocode.user_agent", "coordfill/1.0")
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("geocode.max_retries", 5)
	v.SetDefault("geocode.initial_backoff_ms", 1000)
	v.SetDefault("geocode.backoff_multiplier", 2.0)
	v.SetDefault("geocode.requests_per_second", 0)
	v.SetDefault("enrich.pause_ms", 1000)
	v.SetDefault("enrich.refetch", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if len(cfg.Files) == 0 {
		cfg.Files = DefaultFiles()
	}

	return &cfg, nil
}

// Validate checks that the fields required by the given command are set.
// Commands: "run", "update", "fetch".
func (c *Config) Validate(command string) error {
	var problems []string

	if c.Geocode.APIKey == "" {
		problems = append(problems, "geocode.api_key is required (COORDFILL_GEOCODE_API_KEY)")
	}
	if c.Geocode.BaseURL == "" {
		problems = append(problems, "geocode.base_url is required")
	}
	if c.Geocode.MaxRetries < 0 {
		problems = append(problems, "geocode.max_retries must be >= 0")
	}
	if c.Geocode.RequestsPerSecond < 0 {
		problems = append(problems, "geocode.requests_per_second must be >= 0")
	}

	switch command {
	case "run", "update":
		if c.Enrich.PauseMs < 0 {
			problems = append(problems, "enrich.pause_ms must be >= 0")
		}
	}

	if command == "run" {
		if len(c.Files) == 0 {
			problems = append(problems, "files: at least one input/output pair is required")
		}
		for i, f := range c.Files {
			if f.Input == "" || f.Output == "" {
				problems = append(problems, fmt.Sprintf("files[%d]: input and output are required", i))
			}
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
