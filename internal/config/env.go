package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvDSN            = "DELOAD_DSN"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvBatchSize      = "DELOAD_BATCH_SIZE"
	EnvMetricsBackend = "DELOAD_METRICS_BACKEND"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
	EnvDatadogHost    = "DD_AGENT_HOST"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given). Variables already set in the process win and missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment settings on cfg. ${VAR} placeholders in both
// DSNs are expanded first; a remote DSN that is then empty, or nothing but an
// unset placeholder such as the shipped "${DELOAD_DSN}", is filled from
// DELOAD_DSN, then DATABASE_URL.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	cfg.Local.DSN = expand(cfg.Local.DSN, lookup)
	cfg.Remote.DSN = expand(cfg.Remote.DSN, lookup)
	if unresolved(cfg.Remote.DSN) {
		for _, k := range []string{EnvDSN, EnvDatabaseURL} {
			if v, ok := lookup(k); ok && v != "" {
				cfg.Remote.DSN = expand(v, lookup)
				break
			}
		}
	}
	if v, ok := lookup(EnvBatchSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvBatchSize, v, err)
		}
		cfg.Runtime.BatchSize = n
	}
	if v, ok := lookup(EnvMetricsBackend); ok && v != "" {
		cfg.Metrics.Backend = v
	}
	if v, ok := lookup(EnvPushgatewayURL); ok && v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
	if v, ok := lookup(EnvDatadogHost); ok && v != "" && cfg.Metrics.DatadogAddr == "" {
		cfg.Metrics.DatadogAddr = v + ":8125"
	}
	return nil
}

// unresolved reports a DSN that carries no connection string of its own.
func unresolved(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	return dsn == "" || placeholder.FindString(dsn) == dsn
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand replaces ${VAR} with its value. Unset variables are left in place so
// Validate can report them; a bare $ is never touched since passwords may
// contain one.
func expand(s string, lookup func(string) (string, bool)) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := lookup(name); ok {
			return v
		}
		return m
	})
}
