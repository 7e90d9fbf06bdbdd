package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode needs. Modes are "enrich",
// "sync", "fields" and "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "enrich":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	case "sync", "fields":
		if c.LACRM.UserCode == "" {
			problems = append(problems, "lacrm.user_code is required")
		}
		if c.LACRM.APIToken == "" {
			problems = append(problems, "lacrm.api_token is required")
		}
		if mode == "sync" && c.LACRM.OrgNrFieldID == "" {
			problems = append(problems, "lacrm.orgnr_field_id is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "postgres", "sqlite", "redis", "file":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be one of postgres, sqlite, redis, file", c.Store.Driver))
	}
	if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 50 {
		problems = append(problems, "batch.max_concurrent must be between 1 and 50")
	}
	if c.Probes.Concurrency < 1 || c.Probes.Concurrency > 16 {
		problems = append(problems, "probes.concurrency must be between 1 and 16")
	}
	if c.Heuristics.StartupMaxYears < 0 || c.Heuristics.ModernizeMinYears < 0 {
		problems = append(problems, "heuristics thresholds must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}
