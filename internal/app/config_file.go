package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Durations are
// strings in time.ParseDuration syntax so every format spells them the same.
type FileConfig struct {
	Output  string `yaml:"output" json:"output" toml:"output"`
	OutDir  string `yaml:"outDir" json:"outDir" toml:"outDir"`
	Report  string `yaml:"report" json:"report" toml:"report"`
	Extract bool   `yaml:"extract" json:"extract" toml:"extract"`
	Schema  string `yaml:"schema" json:"schema" toml:"schema"`
	Verbose bool   `yaml:"verbose" json:"verbose" toml:"verbose"`

	Repair struct {
		Indent        string   `yaml:"indent" json:"indent" toml:"indent"`
		MatchTimeout  string   `yaml:"matchTimeout" json:"matchTimeout" toml:"matchTimeout"`
		MaxInputBytes int      `yaml:"maxInputBytes" json:"maxInputBytes" toml:"maxInputBytes"`
		Disable       []string `yaml:"disable" json:"disable" toml:"disable"`
		Concurrency   int      `yaml:"concurrency" json:"concurrency" toml:"concurrency"`
	} `yaml:"repair" json:"repair" toml:"repair"`

	Cache struct {
		Dir         string `yaml:"dir" json:"dir" toml:"dir"`
		MaxAge      string `yaml:"maxAge" json:"maxAge" toml:"maxAge"`
		Clear       bool   `yaml:"clear" json:"clear" toml:"clear"`
		StrictPerms bool   `yaml:"strictPerms" json:"strictPerms" toml:"strictPerms"`
	} `yaml:"cache" json:"cache" toml:"cache"`
}

// LoadConfigFile reads YAML, JSON or TOML into FileConfig, chosen by
// extension. Unknown extensions try YAML, then JSON, then TOML.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml: %w", err)
		}
	default:
		yerr := yaml.Unmarshal(b, &fc)
		if yerr == nil {
			return fc, nil
		}
		fc = FileConfig{}
		jerr := json.Unmarshal(b, &fc)
		if jerr == nil {
			return fc, nil
		}
		fc = FileConfig{}
		if terr := toml.Unmarshal(b, &fc); terr != nil {
			return fc, fmt.Errorf("parse config: %v (yaml) / %v (json) / %v (toml)", yerr, jerr, terr)
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays the values set in fc onto cfg. Zero values in the
// file leave cfg untouched.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	if cfg == nil {
		return nil
	}
	if fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if fc.OutDir != "" {
		cfg.OutputDir = fc.OutDir
	}
	if fc.Report != "" {
		cfg.ReportPath = fc.Report
	}
	if fc.Extract {
		cfg.Extract = true
	}
	if fc.Schema != "" {
		cfg.SchemaPath = fc.Schema
	}
	if fc.Verbose {
		cfg.Verbose = true
	}

	if fc.Repair.Indent != "" {
		cfg.Indent = fc.Repair.Indent
	}
	if fc.Repair.MatchTimeout != "" {
		d, err := time.ParseDuration(fc.Repair.MatchTimeout)
		if err != nil {
			return fmt.Errorf("repair.matchTimeout: %w", err)
		}
		cfg.MatchTimeout = d
	}
	if fc.Repair.MaxInputBytes > 0 {
		cfg.MaxInputBytes = fc.Repair.MaxInputBytes
	}
	if len(fc.Repair.Disable) > 0 {
		cfg.Disabled = append([]string{}, fc.Repair.Disable...)
	}
	if fc.Repair.Concurrency > 0 {
		cfg.Concurrency = fc.Repair.Concurrency
	}

	if fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if fc.Cache.MaxAge != "" {
		d, err := time.ParseDuration(fc.Cache.MaxAge)
		if err != nil {
			return fmt.Errorf("cache.maxAge: %w", err)
		}
		cfg.CacheMaxAge = d
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	return nil
}
