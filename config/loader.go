package config

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultFiles embed.FS

// File names recognized inside a configuration directory. Any file that is
// absent falls back to the embedded default.
const (
	TranslatorsFile = "translators.yaml"
	FormatsFile     = "formats.yaml"
	LanguagesFile   = "languages.yaml"
	EPSGFile        = "epsg.yaml"
	SubjectsFile    = "subjects.yaml"
)

// Loader loads the engine configuration and reference data.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the configuration from dir, falling back to the embedded
// defaults for any missing file. An empty dir loads the defaults only.
// The returned Config is validated; a validation failure here is fatal for
// the process, since a broken table would miscompute every record.
func (l *Loader) Load(dir string) (*Config, error) {
	cfg := &Config{}

	if err := l.loadYAML(dir, TranslatorsFile, cfg); err != nil {
		return nil, err
	}
	if err := l.loadYAML(dir, FormatsFile, &cfg.Tables); err != nil {
		return nil, err
	}
	if err := l.loadYAML(dir, LanguagesFile, &cfg.Tables); err != nil {
		return nil, err
	}
	if err := l.loadYAML(dir, EPSGFile, &cfg.Tables); err != nil {
		return nil, err
	}
	subjects := struct {
		Subjects map[string]*Subject `yaml:"subjects"`
	}{}
	if err := l.loadYAML(dir, SubjectsFile, &subjects); err != nil {
		return nil, err
	}
	cfg.Subjects = subjects.Subjects

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default loads the embedded configuration only.
func Default() (*Config, error) {
	return NewLoader(nil).Load("")
}

func (l *Loader) loadYAML(dir, name string, out any) error {
	var (
		data []byte
		err  error
		src  string
	)
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err = os.ReadFile(path)
		if err == nil {
			src = path
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	if data == nil {
		data, err = defaultFiles.ReadFile("defaults/" + name)
		if err != nil {
			return fmt.Errorf("missing embedded default for %s: %w", name, err)
		}
		src = "embedded default"
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	l.logger.Debug("Loaded configuration file",
		slog.String("file", name), slog.String("source", src))
	return nil
}
