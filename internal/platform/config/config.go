package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	PostgresDSN string

	// AllowSelfConfirm mirrors the tournament preference that lets a
	// submitter confirm their own ballot; elevated actors can override
	// per request regardless.
	AllowSelfConfirm   bool
	HistogramIntervals int
	RecentResultsLimit int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "tabroom"
	}

	return Config{
		ServiceName:        service,
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		AllowSelfConfirm:   envBool("ALLOW_SELF_CONFIRM", false),
		HistogramIntervals: envInt("HISTOGRAM_INTERVALS", 20),
		RecentResultsLimit: envInt("RECENT_RESULTS_LIMIT", 15),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
