package subjectmerge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile  = "config.json"
	defaultPreviewRows = 50
)

// Config aggregates runtime settings persisted to config.json or config.yaml.
type Config struct {
	BuildOptions      `yaml:",inline"`
	SectionMarkers    []string `json:"sectionMarkers" yaml:"sectionMarkers"`
	SubjectExtensions []string `json:"subjectExtensions" yaml:"subjectExtensions"`
	PreviewRows       int      `json:"previewRows" yaml:"previewRows"`
	Workers           int      `json:"workers" yaml:"workers"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.LabelTemplate) == "" {
		c.LabelTemplate = DefaultLabelTemplate
	}
	if c.SectionMarkers == nil {
		c.SectionMarkers = cloneStrings(DefaultSectionMarkers)
	}
	if c.SubjectExtensions == nil {
		c.SubjectExtensions = cloneStrings(DefaultSubjectExtensions)
	}
	if c.PreviewRows <= 0 {
		c.PreviewRows = defaultPreviewRows
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	out := c
	out.SectionMarkers = cloneStrings(c.SectionMarkers)
	out.SubjectExtensions = cloneStrings(c.SubjectExtensions)
	return out
}

// LoadConfig loads configuration from the given path or the default
// config.json. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk in the format implied by the
// file extension.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
