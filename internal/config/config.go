// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type SourceConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Fetch struct {
		CountryCode          string  `yaml:"country_code"`
		ProxyTimeoutSeconds  int     `yaml:"proxy_timeout_seconds"`
		DirectTimeoutSeconds int     `yaml:"direct_timeout_seconds"`
		RequestsPerSecond    float64 `yaml:"requests_per_second"`
		Burst                int     `yaml:"burst"`
	} `yaml:"fetch"`

	Sources struct {
		Metrocuadrado SourceConfig `yaml:"metrocuadrado"`
		Fincaraiz     SourceConfig `yaml:"fincaraiz"`
		Ciencuadras   SourceConfig `yaml:"ciencuadras"`
	} `yaml:"sources"`

	Filter struct {
		Slack float64 `yaml:"slack"`
	} `yaml:"filter"`

	AI struct {
		Enabled     bool   `yaml:"enabled"`
		Model       string `yaml:"model"`
		MaxTokens   int    `yaml:"max_tokens"`
		MaxListings int    `yaml:"max_listings"`
	} `yaml:"ai"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`

	Alerts struct {
		IntervalHours int `yaml:"interval_hours"`
	} `yaml:"alerts"`

	Search struct {
		PerSourceTimeoutSeconds int `yaml:"per_source_timeout_seconds"`
	} `yaml:"search"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
