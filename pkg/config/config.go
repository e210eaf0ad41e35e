package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	DSN        string           `toml:"dsn"`
	Crawler    CrawlerConfig    `toml:"crawler"`
	Politeness PolitenessConfig `toml:"politeness"`
	Output     OutputConfig     `toml:"output"`
	Logging    LoggingConfig    `toml:"logging"`
}

type CrawlerConfig struct {
	UserAgent string `toml:"user_agent"`
	BaseURL   string `toml:"base_url"`
	Timeout   string `toml:"timeout"`
}

type PolitenessConfig struct {
	Delay         string `toml:"delay"`
	RespectRobots bool   `toml:"respect_robots"`
}

type OutputConfig struct {
	CheckpointFile string `toml:"checkpoint_file"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

const DefaultDelay = 2 * time.Second

func Default() *Config {
	var cfg Config
	cfg.Crawler.UserAgent = "Mozilla/5.0"
	cfg.Crawler.BaseURL = "https://www.senate.gov"
	cfg.Politeness.Delay = "2s"
	cfg.Politeness.RespectRobots = true
	cfg.Output.CheckpointFile = "config.yml"
	cfg.Logging.Format = "text"
	cfg.Logging.Level = "info"
	return &cfg
}

// Load reads a TOML config file over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDelay returns the configured pause between detail fetches. It is never
// shorter than DefaultDelay.
func (c *PolitenessConfig) GetDelay() time.Duration {
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return DefaultDelay // Fallback
	}
	return max(d, DefaultDelay)
}

// GetTimeout returns zero, meaning the transport default, when unset.
func (c *CrawlerConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}
