// Package yaml provides YAML-based scan configuration parsing.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/nativescan/internal/domain/entities"
)

// DefaultConfigFile is read from the working directory when no config path is given
const DefaultConfigFile = "nativescan.yaml"

// yamlConfig represents the raw YAML structure. Pointer fields distinguish "absent" from zero.
type yamlConfig struct {
	TargetFamily    *string  `yaml:"target_family"`
	VersionKeys     []string `yaml:"version_keys"`
	DisplayNameKeys []string `yaml:"display_name_keys"`
	MaxEntrySize    *int64   `yaml:"max_entry_size"`
	Parallel        *int     `yaml:"parallel"`
	Log             *yamlLog `yaml:"log"`
}

type yamlLog struct {
	Level      *string `yaml:"level"`
	Format     *string `yaml:"format"`
	File       *string `yaml:"file"`
	MaxSize    *int    `yaml:"max_size"`
	MaxBackups *int    `yaml:"max_backups"`
	MaxAge     *int    `yaml:"max_age"`
	Compress   *bool   `yaml:"compress"`
}

// ConfigParser parses YAML scan configuration files
type ConfigParser struct {
	fs afero.Fs
}

// NewConfigParser creates a new YAML config parser reading from fs
func NewConfigParser(fs afero.Fs) *ConfigParser {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ConfigParser{fs: fs}
}

// Load reads the config at path. An empty path falls back to DefaultConfigFile, and a missing
// default file yields the defaults; a missing explicit file is an error.
func (p *ConfigParser) Load(path string) (entities.ScanConfig, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return entities.DefaultScanConfig(), nil
		}
		return entities.ScanConfig{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	cfg, err := p.Parse(data)
	if err != nil {
		return entities.ScanConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse overlays the YAML document on the defaults and validates the result.
// Unknown keys are rejected.
func (p *ConfigParser) Parse(data []byte) (entities.ScanConfig, error) {
	var raw yamlConfig

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return entities.ScanConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := entities.DefaultScanConfig()
	raw.applyTo(&cfg)

	if err := cfg.Validate(); err != nil {
		return entities.ScanConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (r *yamlConfig) applyTo(cfg *entities.ScanConfig) {
	if r.TargetFamily != nil {
		cfg.TargetFamily = *r.TargetFamily
	}
	if r.VersionKeys != nil {
		cfg.VersionKeys = r.VersionKeys
	}
	if r.DisplayNameKeys != nil {
		cfg.DisplayNameKeys = r.DisplayNameKeys
	}
	if r.MaxEntrySize != nil {
		cfg.MaxEntrySize = *r.MaxEntrySize
	}
	if r.Parallel != nil {
		cfg.Parallel = *r.Parallel
	}
	if r.Log == nil {
		return
	}

	setString(&cfg.Log.Level, r.Log.Level)
	setString(&cfg.Log.Format, r.Log.Format)
	setString(&cfg.Log.File, r.Log.File)
	setInt(&cfg.Log.MaxSize, r.Log.MaxSize)
	setInt(&cfg.Log.MaxBackups, r.Log.MaxBackups)
	setInt(&cfg.Log.MaxAge, r.Log.MaxAge)
	if r.Log.Compress != nil {
		cfg.Log.Compress = *r.Log.Compress
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
