package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-mdxsl/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidField    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength        = 4096
	MaxEncodingLength    = 40  // "windows-1252", "ISO-8859-15"
	MaxStyleLength       = 64  // chroma style name
	MaxParamNameLength   = 100 // stylesheet parameter name
	MaxParamValueLength  = 2048
	MaxParams            = 64
	MaxExtensionLength   = 16 // "html", "xml", "fo"
	MaxPageSizeLength    = 10 // "letter", "a4", "legal"
	MaxOrientationLength = 10 // "portrait", "landscape"
	MaxTimeoutLength     = 20 // "1m30s"
)

// configDirName is the directory under the user config dir searched for
// named configs.
const configDirName = "go-mdxsl"

// paramName matches an XSLT parameter name (a QName without prefix).
var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Config holds all configuration for document conversion.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Transform TransformConfig `yaml:"transform"`
	Assets    AssetsConfig    `yaml:"assets"`
	Highlight HighlightConfig `yaml:"highlight"`
	Render    RenderConfig    `yaml:"render"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
	Extension  string `yaml:"extension"`  // Output file extension without dot (default: "html")
}

// TransformConfig defines how documents are converted and transformed.
type TransformConfig struct {
	Stylesheet       string            `yaml:"stylesheet"`       // Overrides the document's xsl-template field
	BasePath         string            `yaml:"basePath"`         // Anchors absolute include hrefs
	Encoding         string            `yaml:"encoding"`         // Output encoding (default: ASCII)
	SmartPunctuation bool              `yaml:"smartPunctuation"` // Typographic quotes, dashes, ellipses
	XMLOnly          bool              `yaml:"xmlOnly"`          // Skip the stylesheet, emit the document XML
	Params           map[string]string `yaml:"params"`           // Stylesheet parameters (XPath expressions)
}

// AssetsConfig defines stylesheet asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded stylesheets
}

// HighlightConfig defines code-block highlighting options.
type HighlightConfig struct {
	Style string `yaml:"style"` // Chroma style name (empty = CSS classes)
}

// RenderConfig defines PDF rendering options.
type RenderConfig struct {
	PDF     bool       `yaml:"pdf"`
	Timeout string     `yaml:"timeout"` // Go duration (default: 30s)
	Page    PageConfig `yaml:"page"`
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "letter")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
}

// TimeoutDuration returns the render timeout, zero when unset.
func (r RenderConfig) TimeoutDuration() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: render.timeout: %v", ErrInvalidField, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: render.timeout: must not be negative", ErrInvalidField)
	}
	return d, nil
}

// Validate checks field lengths and formats.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	paths := []struct{ name, value string }{
		{"input.defaultDir", c.Input.DefaultDir},
		{"output.defaultDir", c.Output.DefaultDir},
		{"transform.stylesheet", c.Transform.Stylesheet},
		{"transform.basePath", c.Transform.BasePath},
		{"assets.basePath", c.Assets.BasePath},
	}
	for _, p := range paths {
		if err := validateFieldLength(p.name, p.value, MaxPathLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("output.extension", c.Output.Extension, MaxExtensionLength); err != nil {
		return err
	}
	if strings.ContainsAny(c.Output.Extension, `/\`) {
		return fmt.Errorf("%w: output.extension: %q contains a path separator", ErrInvalidField, c.Output.Extension)
	}

	if err := validateFieldLength("transform.encoding", c.Transform.Encoding, MaxEncodingLength); err != nil {
		return err
	}
	if err := validateFieldLength("highlight.style", c.Highlight.Style, MaxStyleLength); err != nil {
		return err
	}

	if len(c.Transform.Params) > MaxParams {
		return fmt.Errorf("%w: transform.params: %d entries, max %d", ErrInvalidField, len(c.Transform.Params), MaxParams)
	}
	for name, value := range c.Transform.Params {
		if err := validateFieldLength("transform.params name", name, MaxParamNameLength); err != nil {
			return err
		}
		if !paramName.MatchString(name) {
			return fmt.Errorf("%w: transform.params: invalid parameter name %q", ErrInvalidField, name)
		}
		if err := validateFieldLength("transform.params."+name, value, MaxParamValueLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("render.timeout", c.Render.Timeout, MaxTimeoutLength); err != nil {
		return err
	}
	if _, err := c.Render.TimeoutDuration(); err != nil {
		return err
	}
	if err := validateFieldLength("render.page.size", c.Render.Page.Size, MaxPageSizeLength); err != nil {
		return err
	}
	if err := validateFieldLength("render.page.orientation", c.Render.Page.Orientation, MaxOrientationLength); err != nil {
		return err
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a neutral configuration: embedded assets, ASCII
// output, no PDF rendering.
func DefaultConfig() *Config {
	return &Config{
		Output:    OutputConfig{Extension: "html"},
		Transform: TransformConfig{Params: map[string]string{}},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := yamlutil.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mdxsl/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	dirs := []string{""}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userConfigDir, configDirName))
	}

	tried := make([]string, 0, len(extensions)*len(dirs))
	for _, dir := range dirs {
		for _, ext := range extensions {
			path := filepath.Join(dir, name+ext)
			if fileExists(path) {
				return path, nil
			}
			tried = append(tried, path)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
