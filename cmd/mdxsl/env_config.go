package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdxsl/internal/config"
)

// envPrefix starts every recognized environment variable.
const envPrefix = "MDXSL_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // MDXSL_CONFIG: config file path
	Stylesheet string        // MDXSL_STYLESHEET: stylesheet name or path
	Xsltproc   string        // MDXSL_XSLTPROC: xsltproc executable
	Timeout    time.Duration // MDXSL_TIMEOUT: PDF generation timeout

	// Tier 2 - I/O
	InputDir  string // MDXSL_INPUT_DIR: default input directory
	OutputDir string // MDXSL_OUTPUT_DIR: default output directory
	AssetPath string // MDXSL_ASSET_PATH: custom asset directory

	// Tier 3 - Extended
	StylesheetBase string // MDXSL_STYLESHEET_BASE: include anchor directory
	Encoding       string // MDXSL_ENCODING: output encoding
	HighlightStyle string // MDXSL_HIGHLIGHT_STYLE: chroma style
	PageSize       string // MDXSL_PAGE_SIZE: a4, letter, legal
	Workers        int    // MDXSL_WORKERS: parallel workers
}

// knownEnvVars lists valid MDXSL_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"MDXSL_CONFIG":     true,
	"MDXSL_STYLESHEET": true,
	"MDXSL_XSLTPROC":   true,
	"MDXSL_TIMEOUT":    true,
	// Tier 2 - I/O
	"MDXSL_INPUT_DIR":  true,
	"MDXSL_OUTPUT_DIR": true,
	"MDXSL_ASSET_PATH": true,
	// Tier 3 - Extended
	"MDXSL_STYLESHEET_BASE": true,
	"MDXSL_ENCODING":        true,
	"MDXSL_HIGHLIGHT_STYLE": true,
	"MDXSL_PAGE_SIZE":       true,
	"MDXSL_WORKERS":         true,
	"MDXSL_CONTAINER":       true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and worker counts are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("MDXSL_CONFIG"),
		Stylesheet: os.Getenv("MDXSL_STYLESHEET"),
		Xsltproc:   os.Getenv("MDXSL_XSLTPROC"),
		// Tier 2
		InputDir:  os.Getenv("MDXSL_INPUT_DIR"),
		OutputDir: os.Getenv("MDXSL_OUTPUT_DIR"),
		AssetPath: os.Getenv("MDXSL_ASSET_PATH"),
		// Tier 3
		StylesheetBase: os.Getenv("MDXSL_STYLESHEET_BASE"),
		Encoding:       os.Getenv("MDXSL_ENCODING"),
		HighlightStyle: os.Getenv("MDXSL_HIGHLIGHT_STYLE"),
		PageSize:       os.Getenv("MDXSL_PAGE_SIZE"),
	}

	if timeout := os.Getenv("MDXSL_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("MDXSL_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars reports unrecognized MDXSL_* variables.
// Helps catch typos like MDXSL_STYLESHEETS.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1 - Stylesheet and timeout (xsltproc handled at option time)
	if env.Stylesheet != "" && cfg.Transform.Stylesheet == "" {
		cfg.Transform.Stylesheet = env.Stylesheet
	}
	if env.Timeout > 0 && cfg.Render.Timeout == "" {
		cfg.Render.Timeout = env.Timeout.String()
	}

	// Tier 2 - I/O
	if env.InputDir != "" && cfg.Input.DefaultDir == "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.AssetPath != "" && cfg.Assets.BasePath == "" {
		cfg.Assets.BasePath = env.AssetPath
	}

	// Tier 3 - Transform and rendering
	if env.StylesheetBase != "" && cfg.Transform.BasePath == "" {
		cfg.Transform.BasePath = env.StylesheetBase
	}
	if env.Encoding != "" && cfg.Transform.Encoding == "" {
		cfg.Transform.Encoding = env.Encoding
	}
	if env.HighlightStyle != "" && cfg.Highlight.Style == "" {
		cfg.Highlight.Style = env.HighlightStyle
	}
	if env.PageSize != "" && cfg.Render.Page.Size == "" {
		cfg.Render.Page.Size = env.PageSize
	}
}
