package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"

	"lottoq/internal/lotto"
	"lottoq/internal/sched"
)

// Config mirrors lottoq.yml
type Config struct {
	Scheduler sched.Config `yaml:"scheduler"`
	Fetch     FetchConfig  `yaml:"fetch"`
	Log       LogConfig    `yaml:"log"`
	TraceCSV  string       `yaml:"trace_csv"` // empty disables the trace
}

type FetchConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMS   int    `yaml:"timeout_ms"`   // 10000 (by default)
	HistoryPath string `yaml:"history_path"` // history.json (by default)
}

// Timeout is the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutMS) * time.Millisecond
}

type LogConfig struct {
	Level  string `yaml:"level"`  // info (by default)
	Format string `yaml:"format"` // text (by default)
}

// Default is used when no config file is found
func Default() Config {
	return Config{
		Scheduler: sched.Config{
			Name:        "fetcher",
			Concurrency: 20,
			Mode:        sched.ModeFifo,
		},
		Fetch: FetchConfig{
			BaseURL:     lotto.DefaultBaseURL,
			TimeoutMS:   10000,
			HistoryPath: "history.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads YAML over the defaults; empty path or a missing file = defaults only
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	// sanity clamps
	cfg.Scheduler = cfg.Scheduler.Normalize()
	if cfg.Fetch.BaseURL == "" {
		cfg.Fetch.BaseURL = lotto.DefaultBaseURL
	}
	if cfg.Fetch.TimeoutMS <= 0 {
		cfg.Fetch.TimeoutMS = 10000
	}
	if cfg.Fetch.HistoryPath == "" {
		cfg.Fetch.HistoryPath = "history.json"
	}
	if cfg.Log.Format = strings.ToLower(cfg.Log.Format); cfg.Log.Format != "json" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}
