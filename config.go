package crochet

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultConfigFile = "crochet.toml"
	DefaultProtocol   = "docs/protocols/ACCESSIBILITY_AUDIT.yaml"
	DefaultSchema     = "accessibility-gaps"
)

// Config holds the settings shared by all commands. Values come from
// the TOML file, then the CROCHET_* environment, then command flags.
type Config struct {
	Protocol  string `toml:"protocol"`
	Schema    string `toml:"schema"`
	SchemaDir string `toml:"schema_dir"`
	LogLevel  string `toml:"log_level"`
	Color     *bool  `toml:"color"`
}

func DefaultConfig() *Config {
	return &Config{
		Protocol: DefaultProtocol,
		Schema:   DefaultSchema,
		LogLevel: "warn",
	}
}

// LoadConfig reads path, or crochet.toml in the working directory when
// path is empty and the file exists. Missing keys keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			cfg.applyEnv()
			return cfg, nil
		}
		path = DefaultConfigFile
	}

	path = os.ExpandEnv(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Wrap(ErrConfigNotFound, path)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.WithFields(log.Fields{
			"config": path,
			"keys":   undecoded,
		}).Warn("unknown config keys")
	}
	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv("CROCHET_PROTOCOL"); v != "" {
		cfg.Protocol = v
	}
	if v := os.Getenv("CROCHET_SCHEMA"); v != "" {
		cfg.Schema = v
	}
	if v := os.Getenv("CROCHET_SCHEMA_DIR"); v != "" {
		cfg.SchemaDir = v
	}
	if v := os.Getenv("CROCHET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// ColorEnabled is on unless disabled by config or the NO_COLOR
// convention.
func (cfg *Config) ColorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if cfg.Color != nil {
		return *cfg.Color
	}
	return true
}

// SetupLogger points logrus at stderr with the configured level,
// verbose forces debug.
func (cfg *Config) SetupLogger(verbose bool) error {
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(log.DebugLevel)
		return nil
	}
	level, err := log.ParseLevel(strings.TrimSpace(cfg.LogLevel))
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	log.SetLevel(level)
	return nil
}
