// Package config loads daemon configuration from YAML, environment
// variables and command line flags.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/playok/metricd/internal/logger"
)

// Config holds the daemon configuration.
type Config struct {
	Listen   string `yaml:"listen"`
	DBPath   string `yaml:"database"`
	TypesDB  string `yaml:"types_db"`
	Hostname string `yaml:"hostname"`
	PidFile  string `yaml:"pid_file"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	WriteWorkers int  `yaml:"write_workers"`
	DrainOnStop  bool `yaml:"drain_on_stop"`

	CollectInterval int `yaml:"collect_interval"`
	RetentionHours  int `yaml:"retention_hours"`

	// Comma-separated GCE attribute names to attach as metric metadata.
	GCPMetadataFields string `yaml:"gcp_metadata_fields"`

	// Parsed from command line (not YAML)
	ConfigPath string `yaml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:9125",
		DBPath:          "metricd.db",
		TypesDB:         "",
		PidFile:         "metricd.pid",
		LogFile:         "metricd.log",
		LogLevel:        "info",
		WriteWorkers:    4,
		DrainOnStop:     true,
		CollectInterval: 10,
		RetentionHours:  24,
		ConfigPath:      "config.yaml",
	}
}

// Load reads configuration with priority: defaults < config.yaml < env vars < flags.
// It expects os.Args to already have the subcommand stripped (if any).
func Load() *Config {
	cfg := DefaultConfig()
	log := logger.New().With("component", "config")

	// 1) Pre-scan for -config flag before parsing (so we know which file to read)
	configPath := cfg.ConfigPath
	for i, arg := range os.Args[1:] {
		if arg == "-config" || arg == "--config" {
			// arg is os.Args[i+1]; its value, if present, is os.Args[i+2]
			if i+2 < len(os.Args) {
				configPath = os.Args[i+2]
			}
		} else if strings.HasPrefix(arg, "-config=") || strings.HasPrefix(arg, "--config=") {
			configPath = strings.SplitN(arg, "=", 2)[1]
		}
	}

	// 2) Load YAML config file
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Warningf("failed to parse %s: %v", configPath, err)
		} else {
			log.Infof("loaded %s", configPath)
		}
	}
	cfg.ConfigPath = configPath

	// 3) Environment variables override YAML
	if v := os.Getenv("METRICD_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("METRICD_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("METRICD_TYPES_DB"); v != "" {
		cfg.TypesDB = v
	}
	if v := os.Getenv("METRICD_HOSTNAME"); v != "" {
		cfg.Hostname = v
	}
	if v := os.Getenv("METRICD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("METRICD_WRITE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WriteWorkers = n
		}
	}

	// 4) Flags override everything
	fs := flag.NewFlagSet("metricd", flag.ExitOnError)
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Path to config.yaml")
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP listen address (host:port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.TypesDB, "types-db", cfg.TypesDB, "Path to a types.db overlay file")
	fs.StringVar(&cfg.Hostname, "hostname", cfg.Hostname, "Host label value (default: system hostname)")
	fs.StringVar(&cfg.PidFile, "pid-file", cfg.PidFile, "PID file path")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warning, error)")
	fs.IntVar(&cfg.WriteWorkers, "write-workers", cfg.WriteWorkers, "Write queue worker count")
	fs.Parse(os.Args[1:])

	if cfg.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			cfg.Hostname = h
		} else {
			cfg.Hostname = "localhost"
		}
	}
	if cfg.WriteWorkers < 1 {
		cfg.WriteWorkers = 1
	}

	return cfg
}

// ExtraMetadataFields splits the configured attribute list.
func (c *Config) ExtraMetadataFields() []string {
	if c.GCPMetadataFields == "" {
		return nil
	}
	var fields []string
	for _, f := range strings.Split(c.GCPMetadataFields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
