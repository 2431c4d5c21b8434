package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"line-art-processing/internal/core"
)

// DefaultPresetFile is looked up in the working directory when no preset is
// named.
const DefaultPresetFile = "lineart.yaml"

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

type format int

const (
	formatYAML format = iota
	formatTOML
)

// Loader reads and writes a preset file. The format follows the extension:
// .yaml and .yml are YAML, .toml is TOML.
type Loader struct {
	path   string
	format format
}

func NewLoaderWithPath(path string) (*Loader, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	return &Loader{path: path, format: f}, nil
}

func (l *Loader) Path() string {
	return l.path
}

func (l *Loader) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Load reads the preset over the defaults, so fields missing from the file
// keep their default value. A missing file yields the defaults. The result
// is not clamped.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to read preset %s", l.path)
	}

	expanded := expandEnvVars(string(data))
	switch l.format {
	case formatTOML:
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse preset %s", l.path)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse preset %s", l.path)
		}
	}
	return cfg, nil
}

func (l *Loader) Save(cfg *Config) error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create preset directory")
		}
	}

	data, err := l.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write preset")
	}
	return nil
}

// Marshal encodes cfg in the loader's format.
func (l *Loader) Marshal(cfg *Config) ([]byte, error) {
	if l.format == formatTOML {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, errors.Wrap(err, "failed to marshal preset")
		}
		return buf.Bytes(), nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal preset")
	}
	return data, nil
}

// Init writes the default preset unless a file already exists.
func (l *Loader) Init(force bool) error {
	if l.Exists() && !force {
		return errors.Errorf("preset already exists: %s", l.path)
	}
	return l.Save(DefaultConfig())
}

func formatFor(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, errors.WithMessagef(core.ErrUnsupportedFormat, "preset must be .yaml, .yml or .toml: %s", path)
	}
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}
