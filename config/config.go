package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	Cache   CacheConfig   `yaml:"cache"`
	API     APIConfig     `yaml:"api"`
	Scraper ScraperConfig `yaml:"scraper"`
	Server  ServerConfig  `yaml:"server"`
}

type CacheConfig struct {
	// Path to the sqlite database file. Empty disables the cache tier.
	Path string `yaml:"path"`
}

type APIConfig struct {
	// Key for the GetSongBPM API. The GETSONGBPM_API_KEY environment
	// variable takes precedence. Empty disables the API tier.
	Key     string `yaml:"key"`
	BaseURL string `yaml:"base_url"`
}

type ScraperConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`

	// UseBrowser opts into the headless-browser search strategy. It is
	// best-effort: without a usable browser binary the strategy is skipped.
	UseBrowser bool `yaml:"use_browser"`

	// MaxPages bounds the catalog pagination scan.
	MaxPages int `yaml:"max_pages"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config

	// Unmarshal the YAML data into the struct. An empty file leaves the
	// zero value, which the defaulting below fills in.
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	// Set defaults if not provided
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.API.BaseURL == "" {
		config.API.BaseURL = "https://api.getsongbpm.com"
	}

	if config.Scraper.BaseURL == "" {
		config.Scraper.BaseURL = "https://songbpm.com"
	}

	if config.Scraper.MaxPages == 0 {
		config.Scraper.MaxPages = 15
	}

	// Secrets come from the environment when present
	if key := os.Getenv("GETSONGBPM_API_KEY"); key != "" {
		config.API.Key = key
	}

	return &config, nil
}
