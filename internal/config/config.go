package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the twflow tools.
type Config struct {
	Storage Storage      `yaml:"storage"`
	Server  Server       `yaml:"server"`
	Sources Sources      `yaml:"sources"`
	Gather  GatherConfig `yaml:"gather"`
	Cache   CacheConfig  `yaml:"cache"`
	Logging Logging      `yaml:"logging"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
	ExportDir  string `yaml:"export_dir"`
}

// Server holds network listener configuration for the dashboard server.
type Server struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	SiteDir string `yaml:"site_dir"`
}

// Sources holds the exchange endpoints queried by the gather job.
type Sources struct {
	TWSEBaseURL string `yaml:"twse_base_url"`
	TPExBaseURL string `yaml:"tpex_base_url"`
	UserAgent   string `yaml:"user_agent"`
}

// GatherConfig holds parameters for the daily gather job.
type GatherConfig struct {
	Days            int `yaml:"days"`     // consecutive trading days to intersect
	TopN            int `yaml:"top_n"`    // per-day list depth
	Lookback        int `yaml:"lookback"` // calendar days probed for trading days
	MaxAttempts     int `yaml:"max_attempts"`
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
}

// CacheConfig configures the offline asset cache used by the client.
type CacheConfig struct {
	Root   string `yaml:"root"`
	Name   string `yaml:"name"`
	Origin string `yaml:"origin"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, then fills defaults and applies environment variable
// overrides. A .env file in the working directory is honoured when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns a Config with every default applied and no file read.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/twflow.db"
	}
	if cfg.Storage.ExportDir == "" {
		cfg.Storage.ExportDir = "exports"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8098
	}
	if cfg.Server.SiteDir == "" {
		cfg.Server.SiteDir = "site"
	}
	if cfg.Sources.TWSEBaseURL == "" {
		cfg.Sources.TWSEBaseURL = "https://www.twse.com.tw"
	}
	if cfg.Sources.TPExBaseURL == "" {
		cfg.Sources.TPExBaseURL = "https://www.tpex.org.tw"
	}
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if cfg.Gather.Days == 0 {
		cfg.Gather.Days = 2
	}
	if cfg.Gather.TopN == 0 {
		cfg.Gather.TopN = 10
	}
	if cfg.Gather.Lookback == 0 {
		cfg.Gather.Lookback = 30
	}
	if cfg.Gather.MaxAttempts == 0 {
		cfg.Gather.MaxAttempts = 3
	}
	if cfg.Gather.RateLimitPerMin == 0 {
		cfg.Gather.RateLimitPerMin = 120
	}
	if cfg.Cache.Root == "" {
		cfg.Cache.Root = "data/assetcache"
	}
	if cfg.Cache.Name == "" {
		cfg.Cache.Name = "twflow-shell-v1"
	}
	if cfg.Cache.Origin == "" {
		cfg.Cache.Origin = "http://127.0.0.1:8098"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		cfg.Storage.ExportDir = v
	}

	// DAYS is the knob the daily cron environment has always set.
	if v := os.Getenv("DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Gather.Days = n
		}
	}

	if v := os.Getenv("TWFLOW_ORIGIN"); v != "" {
		cfg.Cache.Origin = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
