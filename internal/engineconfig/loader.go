package engineconfig

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a supported configuration file format.
type Format string

// Supported configuration file formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// UnsupportedFormatError is returned when the config file has an
// unsupported extension.
type UnsupportedFormatError struct {
	Extension string
	Path      string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("engineconfig: unsupported format %q for file %s (supported: .yaml, .yml, .toml)", e.Extension, e.Path)
}

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", &UnsupportedFormatError{Extension: ext, Path: path}
	}
}

// Load reads, parses, and validates the engine configuration file at path.
// The format is detected from the extension; ${VAR_NAME} environment
// references are expanded before parsing.
func Load(path string) (*Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engineconfig: failed to open %s: %w", path, err)
	}
	defer file.Close()

	cfg, err := loadFromReaderWithFormat(file, format)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReaderWithFormat reads and parses configuration from r with an
// explicit format, without validating it (used by tests that want to
// assert on partially-filled configs).
func LoadFromReaderWithFormat(r io.Reader, format Format) (*Config, error) {
	return loadFromReaderWithFormat(r, format)
}

func loadFromReaderWithFormat(r io.Reader, format Format) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("engineconfig: failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(content))

	var cfg Config
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("engineconfig: failed to parse YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("engineconfig: failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("engineconfig: unknown format %s", format)
	}

	return &cfg, nil
}
