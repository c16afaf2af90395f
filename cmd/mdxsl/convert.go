package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	mdxsl "github.com/alnah/go-mdxsl"
	"github.com/alnah/go-mdxsl/internal/config"
)

// ErrTooManyInputs is returned when more than one input path is given.
var ErrTooManyInputs = errors.New("expected a single input file or directory")

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	// Load configuration: --config, then MDXSL_CONFIG
	cfg := env.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	if configName != "" {
		var err error
		cfg, err = config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	// Environment fills gaps in the file, CLI flags win over both
	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)
	ext := resolveExtension(flags.extension, cfg)

	css, err := readCSS(flags.pdf.css)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common)

	opts, err := buildOptions(cfg, xsltprocBinary(flags, envCfg), css, logger)
	if err != nil {
		return err
	}
	opts = append(opts, env.Options...)

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	pool := mdxsl.NewConverterPool(mdxsl.ResolvePoolSize(workers), opts...)
	defer func() { _ = pool.Close() }()
	logger.Debug("converter pool ready", "size", pool.Size())

	params := &conversionParams{
		template:         cfg.Transform.Stylesheet,
		stylesheetBase:   cfg.Transform.BasePath,
		encoding:         cfg.Transform.Encoding,
		smartPunctuation: cfg.Transform.SmartPunctuation,
		params:           cfg.Transform.Params,
		pdf:              cfg.Render.PDF,
	}

	convertAll := func(ctx context.Context) error {
		files, err := discoverFiles(inputPath, outputDir, ext)
		if err != nil {
			return fmt.Errorf("discovering files: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("%w in %s", ErrNoSourceFiles, inputPath)
		}

		results := convertBatch(ctx, &poolAdapter{pool: pool}, files, params)

		failedCount := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
		if failedCount > 0 {
			return fmt.Errorf("%d conversion(s) failed: %w", failedCount, firstError(results))
		}
		return nil
	}

	err = convertAll(ctx)
	if !flags.watch {
		return err
	}
	if err != nil {
		printError(env.Stderr, err)
	}

	sw, err := newSourceWatcher(inputPath, defaultDebounce, logger)
	if err != nil {
		return err
	}
	return sw.Run(ctx, func() {
		if err := convertAll(ctx); err != nil && ctx.Err() == nil {
			printError(env.Stderr, err)
		}
	})
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	// Transform
	if flags.transform.stylesheet != "" {
		cfg.Transform.Stylesheet = flags.transform.stylesheet
	}
	if flags.transform.stylesheetBase != "" {
		cfg.Transform.BasePath = flags.transform.stylesheetBase
	}
	if flags.transform.encoding != "" {
		cfg.Transform.Encoding = flags.transform.encoding
	}
	if flags.transform.smartPunctuation {
		cfg.Transform.SmartPunctuation = true
	}
	if flags.transform.xmlOnly {
		cfg.Transform.XMLOnly = true
	}

	// Params: --param values are XPath, --string-param values are quoted
	if cfg.Transform.Params == nil {
		cfg.Transform.Params = make(map[string]string)
	}
	for _, raw := range flags.transform.params {
		name, value, err := parseParam(raw)
		if err != nil {
			return err
		}
		cfg.Transform.Params[name] = value
	}
	for _, raw := range flags.transform.stringParams {
		name, value, err := parseParam(raw)
		if err != nil {
			return err
		}
		cfg.Transform.Params[name] = xpathString(value)
	}

	// Assets
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}
	if flags.assets.highlightStyle != "" {
		cfg.Highlight.Style = flags.assets.highlightStyle
	}

	// Output
	if flags.extension != "" {
		cfg.Output.Extension = strings.TrimPrefix(flags.extension, ".")
	}

	// PDF
	if flags.pdf.enabled {
		cfg.Render.PDF = true
	}
	if flags.pdf.size != "" {
		cfg.Render.Page.Size = flags.pdf.size
	}
	if flags.pdf.orientation != "" {
		cfg.Render.Page.Orientation = flags.pdf.orientation
	}
	if flags.pdf.margin > 0 {
		cfg.Render.Page.Margin = flags.pdf.margin
	}
	if flags.pdf.timeout != "" {
		cfg.Render.Timeout = flags.pdf.timeout
	}

	return nil
}

// parseParam splits a name=value stylesheet parameter.
func parseParam(raw string) (name, value string, err error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("%w: %q (want name=value)", ErrInvalidParam, raw)
	}
	return name, value, nil
}

// xpathString quotes s as an XPath string literal. Strings holding both
// quote characters are built with concat().
func xpathString(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts)-1)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// resolveInputPath returns the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	switch {
	case len(args) > 1:
		return "", fmt.Errorf("%w: got %d", ErrTooManyInputs, len(args))
	case len(args) == 1:
		return args[0], nil
	case cfg.Input.DefaultDir != "":
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir returns the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// resolveExtension picks the output extension: an explicit --ext, then
// "pdf" when rendering PDFs, then the configured extension.
func resolveExtension(flagExt string, cfg *config.Config) string {
	if flagExt != "" {
		return cfg.Output.Extension
	}
	if cfg.Render.PDF {
		return "pdf"
	}
	if cfg.Output.Extension == "" {
		return "html"
	}
	return cfg.Output.Extension
}

// xsltprocBinary returns the xsltproc executable: flag, then MDXSL_XSLTPROC.
func xsltprocBinary(flags *convertFlags, env *envConfig) string {
	if flags.transform.xsltproc != "" {
		return flags.transform.xsltproc
	}
	return env.Xsltproc
}

// readCSS loads the CSS injected into pages before printing.
func readCSS(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadCSS, err)
	}
	return string(data), nil
}

// buildOptions turns the merged configuration into converter options.
func buildOptions(cfg *config.Config, xsltproc, css string, logger *slog.Logger) ([]mdxsl.Option, error) {
	opts := []mdxsl.Option{
		mdxsl.WithLogger(logger),
		mdxsl.WithAssetPath(cfg.Assets.BasePath),
		mdxsl.WithStylesheetBase(cfg.Transform.BasePath),
		mdxsl.WithHighlightStyle(cfg.Highlight.Style),
	}

	if cfg.Transform.XMLOnly {
		opts = append(opts, mdxsl.WithTransformer(mdxsl.Identity{}))
	} else if xsltproc != "" {
		opts = append(opts, mdxsl.WithXsltproc(xsltproc))
	}

	if cfg.Render.PDF {
		page, err := buildPageSettings(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, mdxsl.WithPDF(page, css))

		timeout, err := cfg.Render.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		if timeout > 0 {
			opts = append(opts, mdxsl.WithTimeout(timeout))
		}
	}

	return opts, nil
}

// buildPageSettings overlays the configured page fields on the defaults.
func buildPageSettings(cfg *config.Config) (*mdxsl.PageSettings, error) {
	page := mdxsl.DefaultPageSettings()
	if cfg.Render.Page.Size != "" {
		page.Size = cfg.Render.Page.Size
	}
	if cfg.Render.Page.Orientation != "" {
		page.Orientation = cfg.Render.Page.Orientation
	}
	if cfg.Render.Page.Margin != 0 {
		page.Margin = cfg.Render.Page.Margin
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return page, nil
}

// newLogger builds the stderr logger: warnings by default, debug with
// --verbose, errors only with --quiet.
func newLogger(w io.Writer, f commonFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case f.quiet:
		level = slog.LevelError
	case f.verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
