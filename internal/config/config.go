package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redactyl/textredact/internal/pattern"
	"github.com/redactyl/textredact/pkg/redaction"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

// ErrNotFound is returned by LoadLocal and LoadGlobal when no file exists.
var ErrNotFound = errors.New("config not found")

// FileConfig is the on-disk YAML configuration shape for textredact.
type FileConfig struct {
	Placeholder *string        `yaml:"placeholder,omitempty"`
	Workers     *int           `yaml:"workers,omitempty"`
	Patterns    []pattern.Spec `yaml:"patterns,omitempty"`
	Values      []string       `yaml:"values,omitempty"`
	Keys        []string       `yaml:"keys,omitempty"`
	Paths       []string       `yaml:"paths,omitempty"`

	// Batch file redaction mirrors the files command flags
	Include  *string `yaml:"include,omitempty"`
	Exclude  *string `yaml:"exclude,omitempty"`
	MaxBytes *int64  `yaml:"max_bytes,omitempty"`
	NoColor  *bool   `yaml:"no_color,omitempty"`

	Server *ServerConfig `yaml:"server,omitempty"`
}

// ServerConfig holds settings for the HTTP service.
type ServerConfig struct {
	Addr         *string `yaml:"addr,omitempty"`
	MaxBodyBytes *int64  `yaml:"max_body_bytes,omitempty"`
}

// Validate checks raw YAML against the embedded schema and reports the first
// violation.
func Validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	if len(result.Errors()) == 0 {
		return errors.New("schema validation failed")
	}
	return fmt.Errorf("schema validation failed: %s", result.Errors()[0].String())
}

// LoadFile reads and validates a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := Validate(b); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a config file in the given directory.
// It supports .textredact.yml/.yaml and textredact.yml/.yaml.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".textredact.yml", ".textredact.yaml", "textredact.yml", "textredact.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, ErrNotFound
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, ErrNotFound
	}
	p := filepath.Join(base, "textredact", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, ErrNotFound
}

// Merge layers over on top of base. Scalars set in over win; rule lists are
// concatenated with base entries first so rule order stays stable.
func Merge(base, over FileConfig) FileConfig {
	out := base
	out.Patterns = append(append([]pattern.Spec(nil), base.Patterns...), over.Patterns...)
	out.Values = append(append([]string(nil), base.Values...), over.Values...)
	out.Keys = append(append([]string(nil), base.Keys...), over.Keys...)
	out.Paths = append(append([]string(nil), base.Paths...), over.Paths...)
	if over.Placeholder != nil {
		out.Placeholder = over.Placeholder
	}
	if over.Workers != nil {
		out.Workers = over.Workers
	}
	if over.Include != nil {
		out.Include = over.Include
	}
	if over.Exclude != nil {
		out.Exclude = over.Exclude
	}
	if over.MaxBytes != nil {
		out.MaxBytes = over.MaxBytes
	}
	if over.NoColor != nil {
		out.NoColor = over.NoColor
	}
	if over.Server != nil {
		out.Server = over.Server
	}
	return out
}

// Options compiles the configured rules into redaction options. Every bad
// pattern or value is reported, not just the first.
func (fc FileConfig) Options() (redaction.Options, error) {
	rules, err := pattern.Compile(fc.Patterns)
	if err != nil {
		return redaction.Options{}, err
	}
	opts := redaction.Options{
		Placeholder: fc.GetPlaceholder(),
		Rules:       rules,
		Values:      fc.Values,
		Keys:        fc.Keys,
		Paths:       fc.Paths,
	}
	if fc.Workers != nil {
		opts.Workers = *fc.Workers
	}
	return opts, nil
}

// GetPlaceholder returns the configured placeholder or the default.
func (fc FileConfig) GetPlaceholder() string {
	if fc.Placeholder == nil || *fc.Placeholder == "" {
		return redaction.DefaultPlaceholder
	}
	return *fc.Placeholder
}

// GetServerAddr returns the configured listen address or ":8080".
func (fc FileConfig) GetServerAddr() string {
	if fc.Server == nil || fc.Server.Addr == nil || *fc.Server.Addr == "" {
		return ":8080"
	}
	return *fc.Server.Addr
}

// GetMaxBodyBytes returns the request body limit, 10 MiB by default.
func (fc FileConfig) GetMaxBodyBytes() int64 {
	if fc.Server == nil || fc.Server.MaxBodyBytes == nil {
		return 10 << 20
	}
	return *fc.Server.MaxBodyBytes
}
