// This file adds a lightweight linter for Config values. It performs static
// checks and returns a list of issues (errors and warnings) that the CLI
// prints before any run.

package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that is surfaced but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "remote.dsn",
// "de_sets[1].layout"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var knownKinds = map[string]bool{
	"sqlite":   true,
	"libsql":   true,
	"postgres": true,
	"mssql":    true,
}

// Validate lints cfg for a run in mode. It does not mutate cfg.
func Validate(cfg Config, mode Mode) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if mode != ModeLocal && mode != ModeRemote {
		add(SeverityError, "mode", "unknown mode %q; want local or remote", mode)
		return issues
	}

	a := cfg.Annotation
	if strings.TrimSpace(a.Path) == "" {
		add(SeverityError, "annotation.path", "annotation.path must not be empty")
	}
	if strings.TrimSpace(a.IDColumn) == "" {
		add(SeverityError, "annotation.id_column", "annotation.id_column must not be empty")
	}
	if strings.TrimSpace(a.SymbolColumn) == "" {
		add(SeverityError, "annotation.symbol_column", "annotation.symbol_column must not be empty")
	}

	if len(cfg.DESets) == 0 {
		add(SeverityWarning, "de_sets", "no DE sets configured; only the annotation will be loaded")
	}
	seen := map[string]bool{}
	for i, s := range cfg.DESets {
		p := fmt.Sprintf("de_sets[%d]", i)
		if strings.TrimSpace(s.AnalysisType) == "" {
			add(SeverityError, p+".analysis_type", "analysis_type must not be empty")
		} else if seen[s.AnalysisType] {
			add(SeverityError, p+".analysis_type", "duplicate analysis_type %q", s.AnalysisType)
		}
		seen[s.AnalysisType] = true
		if strings.TrimSpace(s.Dir) == "" {
			add(SeverityError, p+".dir", "dir must not be empty")
		}
		switch s.Layout {
		case "", "dsrna", "gene":
		default:
			add(SeverityError, p+".layout", "unknown layout %q; want dsrna or gene", s.Layout)
		}
	}

	name := string(mode)
	t := cfg.Target(mode)
	if strings.TrimSpace(t.Kind) == "" {
		add(SeverityError, name+".kind", "%s.kind must not be empty", name)
	} else if !knownKinds[t.Kind] {
		add(SeverityError, name+".kind", "unsupported storage kind %q", t.Kind)
	}
	switch {
	case strings.TrimSpace(t.DSN) == "":
		msg := name + ".dsn must not be empty"
		if mode == ModeRemote {
			msg += "; set " + EnvDSN + " or " + EnvDatabaseURL
		}
		add(SeverityError, name+".dsn", "%s", msg)
	case placeholder.MatchString(t.DSN):
		add(SeverityError, name+".dsn", "dsn references an unset variable: %s", placeholder.FindString(t.DSN))
	case strings.Contains(t.DSN, "[password]"):
		add(SeverityWarning, name+".dsn", "dsn still contains the [password] placeholder")
	}
	switch t.Shape {
	case "narrow", "wide":
	default:
		add(SeverityError, name+".shape", "unknown shape %q; want narrow or wide", t.Shape)
	}
	isSQLite := t.Kind == "sqlite"
	if t.Fresh && !isSQLite {
		add(SeverityWarning, name+".fresh", "fresh only applies to sqlite and is ignored for %s", t.Kind)
	}
	if t.WAL && !isSQLite {
		add(SeverityWarning, name+".wal", "wal only applies to sqlite and is ignored for %s", t.Kind)
	}
	if t.Truncate && !(isSQLite && t.Fresh) {
		add(SeverityWarning, name+".truncate", "anno and de_results will be emptied before loading")
	}
	for i, s := range t.Sets {
		if !seen[s] {
			add(SeverityWarning, fmt.Sprintf("%s.sets[%d]", name, i), "no DE set with analysis_type %q", s)
		}
	}

	if d := cfg.Parser.Delimiter; d != "" && d != "auto" && d != `\t` && len(d) != 1 {
		add(SeverityWarning, "parser.delimiter", "multi-character delimiter %q", d)
	}

	issues = append(issues, validateRuntime(cfg.Runtime)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; must be positive", r.BatchSize),
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url or " + EnvPushgatewayURL,
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr empty; the statsd client falls back to its default agent address",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, pushgateway or datadog", m.Backend),
		})
	}
	return issues
}
