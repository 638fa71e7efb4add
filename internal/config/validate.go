package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything a user
// should fix before the engine will behave.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Fetch.CountryCode = strings.ToLower(strings.TrimSpace(out.Fetch.CountryCode))
	if out.Fetch.CountryCode == "" {
		out.Fetch.CountryCode = "co"
	}
	if out.AI.Model != "" {
		out.AI.Model = strings.TrimSpace(out.AI.Model)
	}

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if !out.Sources.Metrocuadrado.Enabled && !out.Sources.Fincaraiz.Enabled && !out.Sources.Ciencuadras.Enabled {
		res.addErr("No sources enabled: enable at least one portal")
	}

	if out.Fetch.RequestsPerSecond > 2 {
		res.addWarn("fetch.requests_per_second is high (%.1f) and may trip portal rate limits.", out.Fetch.RequestsPerSecond)
	}
	if out.Fetch.ProxyTimeoutSeconds > 0 && out.Fetch.ProxyTimeoutSeconds < 30 {
		res.addWarn("fetch.proxy_timeout_seconds is low (%d); proxied portal fetches routinely take 30s+.", out.Fetch.ProxyTimeoutSeconds)
	}

	if out.Filter.Slack < 0 || out.Filter.Slack >= 1 {
		res.addErr("filter.slack must be in [0, 1)")
	} else if out.Filter.Slack > 0.5 {
		res.addWarn("filter.slack %.2f is very loose; results may barely resemble the criteria.", out.Filter.Slack)
	}

	if out.AI.Enabled && strings.TrimSpace(out.AI.Model) == "" {
		res.addWarn("ai.model is empty; the default model will be used.")
	}

	// SMTP fields are only needed once someone creates an alert, so
	// missing values warn instead of failing startup.
	if strings.TrimSpace(out.SMTP.Host) == "" {
		res.addWarn("smtp.host is empty; alert emails will fail until it is set.")
	} else if strings.TrimSpace(out.SMTP.Username) == "" {
		res.addWarn("smtp.username is empty; alert emails will fail until it is set.")
	}

	if out.Alerts.IntervalHours < 0 {
		res.addErr("alerts.interval_hours must be >= 0")
	}

	return out, res
}
