// Package config defines the configuration model for deload runs.
//
// A single file (YAML or JSON, chosen by extension) describes the annotation
// input, the DE sets and the two storage targets. Fields mirror the keys in
// configs/deload.yaml.
//
// Example (trimmed):
//
//	annotation:
//	  path: public/DEres/dsRNA_anno_35257.txt
//	de_sets:
//	  - { analysis_type: dsEER, dir: public/DEres/dsEER_Differential }
//	local:
//	  kind: sqlite
//	  dsn: public/DEres/dsRNA_DEres.db
//	remote:
//	  kind: postgres
//	  dsn: ${DELOAD_DSN}
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects which target a run loads into.
type Mode string

const (
	// ModeLocal rebuilds the embedded database from scratch.
	ModeLocal Mode = "local"
	// ModeRemote truncates and reloads the hosted database.
	ModeRemote Mode = "remote"
)

// Config is the top-level object decoded from a config file.
type Config struct {
	Annotation Annotation `json:"annotation" yaml:"annotation"`

	// DESets lists the differential-expression folders, one per analysis type.
	DESets []DESet `json:"de_sets" yaml:"de_sets"`

	Local  Target `json:"local" yaml:"local"`
	Remote Target `json:"remote" yaml:"remote"`

	Parser  Parser        `json:"parser" yaml:"parser"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
	Server  Server        `json:"server" yaml:"server"`

	// SkipLog is an optional CSV path receiving every skipped line.
	SkipLog string `json:"skip_log" yaml:"skip_log"`

	// Only is an optional file listing the cell types to load, one per line.
	Only string `json:"only" yaml:"only"`
}

// Annotation locates the annotation file and its key columns by header name.
type Annotation struct {
	Path         string `json:"path" yaml:"path"`
	IDColumn     string `json:"id_column" yaml:"id_column"`
	SymbolColumn string `json:"symbol_column" yaml:"symbol_column"`
}

// DESet is one folder of DE tables. Every *.txt file inside is one cell type.
type DESet struct {
	AnalysisType string `json:"analysis_type" yaml:"analysis_type"`
	Dir          string `json:"dir" yaml:"dir"`

	// Layout overrides the column layout ("dsrna" or "gene"). Empty infers it
	// from AnalysisType.
	Layout string `json:"layout" yaml:"layout"`
}

// Target configures one storage destination.
type Target struct {
	// Kind selects the storage backend: sqlite, libsql, postgres or mssql.
	Kind string `json:"kind" yaml:"kind"`

	// DSN is the connection string or database path. ${VAR} placeholders are
	// expanded from the environment.
	DSN string `json:"dsn" yaml:"dsn"`

	// Shape selects the de_results projection: "narrow" or "wide".
	Shape string `json:"shape" yaml:"shape"`

	// Fresh removes an existing SQLite database file before loading.
	Fresh bool `json:"fresh" yaml:"fresh"`
	// WAL enables write-ahead logging on SQLite.
	WAL bool `json:"wal" yaml:"wal"`

	// CreateTables issues CREATE TABLE/INDEX IF NOT EXISTS before loading.
	CreateTables bool `json:"create_tables" yaml:"create_tables"`
	// Truncate empties both tables before loading.
	Truncate bool `json:"truncate" yaml:"truncate"`

	// Sets restricts the DE sets loaded into this target by analysis type.
	// Empty loads every set.
	Sets []string `json:"sets" yaml:"sets"`
}

// Parser tunes the TSV reader.
type Parser struct {
	// Delimiter defaults to tab; "auto" sniffs it from the first block.
	Delimiter string `json:"delimiter" yaml:"delimiter"`
	// Normalize applies Unicode NFC normalization to every field.
	Normalize bool `json:"normalize" yaml:"normalize"`
}

// RuntimeConfig controls batching and channel buffer sizes.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size" yaml:"batch_size"`
	ChannelBuffer int `json:"channel_buffer" yaml:"channel_buffer"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `json:"backend" yaml:"backend"`
	Job            string `json:"job" yaml:"job"`
	PushgatewayURL string `json:"pushgateway_url" yaml:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr" yaml:"datadog_addr"`
}

// Server configures the read-only HTTP API.
type Server struct {
	Addr string `json:"addr" yaml:"addr"`
	// Target is the mode whose database the API reads ("local" or "remote").
	Target Mode `json:"target" yaml:"target"`
}

// Default returns the configuration used for keys a file leaves out. The
// paths match the layout of the public/ data folder.
func Default() Config {
	return Config{
		Annotation: Annotation{
			Path:         "public/DEres/dsRNA_anno_35257.txt",
			IDColumn:     "V4",
			SymbolColumn: "SYMBOL",
		},
		DESets: []DESet{
			{AnalysisType: "mRNA", Dir: "public/mRNA_Differential"},
			{AnalysisType: "ncRNA", Dir: "public/ncRNA_Differential"},
			{AnalysisType: "dsEER", Dir: "public/DEres/dsEER_Differential"},
			{AnalysisType: "dsRIP", Dir: "public/dsRIP_Differential"},
		},
		Local: Target{
			Kind:         "sqlite",
			DSN:          "public/DEres/dsRNA_DEres.db",
			Shape:        "narrow",
			Fresh:        true,
			WAL:          true,
			CreateTables: true,
			Sets:         []string{"dsEER"},
		},
		Remote: Target{
			Kind:         "postgres",
			Shape:        "wide",
			CreateTables: true,
			Truncate:     true,
		},
		Runtime: RuntimeConfig{BatchSize: 5000, ChannelBuffer: 1024},
		Metrics: Metrics{Backend: "none", Job: "deload"},
		Server:  Server{Addr: ":8080", Target: ModeLocal},
	}
}

// Load reads path over Default. ".yaml"/".yml" decode as YAML and anything
// else as JSON; unknown keys are rejected in both.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(b, filepath.Ext(path), &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes b into cfg using the format implied by ext.
func Decode(b []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
}

// Target returns the storage target for mode.
func (c Config) Target(m Mode) Target {
	if m == ModeRemote {
		return c.Remote
	}
	return c.Local
}

// SetsFor returns the DE sets the target for mode should load, in file order.
func (c Config) SetsFor(m Mode) []DESet {
	want := c.Target(m).Sets
	if len(want) == 0 {
		return c.DESets
	}
	keep := make(map[string]bool, len(want))
	for _, s := range want {
		keep[s] = true
	}
	var out []DESet
	for _, s := range c.DESets {
		if keep[s.AnalysisType] {
			out = append(out, s)
		}
	}
	return out
}
