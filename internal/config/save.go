package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if cfg.Filter.Slack < 0 || cfg.Filter.Slack >= 1 {
		errs = append(errs, "filter.slack must be in [0, 1)")
	}
	if cfg.Fetch.RequestsPerSecond < 0 {
		errs = append(errs, "fetch.requests_per_second must be >= 0")
	}
	if cfg.AI.Enabled {
		if cfg.AI.MaxTokens < 0 {
			errs = append(errs, "ai.max_tokens must be >= 0")
		}
		if cfg.AI.MaxListings < 0 {
			errs = append(errs, "ai.max_listings must be >= 0")
		}
	}
	if cfg.Alerts.IntervalHours < 0 {
		errs = append(errs, "alerts.interval_hours must be >= 0")
	}
	if cfg.SMTP.Port < 0 || cfg.SMTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("smtp.port %d is out of range", cfg.SMTP.Port))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

func joinLines(lines []string) string {
	out := ""
	for i, s := range lines {
		if i > 0 {
			out += "\n- "
		}
		out += s
	}
	return out
}
