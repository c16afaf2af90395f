package mdxsl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/alnah/go-mdxsl/internal/assets"
	"github.com/alnah/go-mdxsl/internal/extfunc"
	"github.com/alnah/go-mdxsl/internal/markup"
	"github.com/alnah/go-mdxsl/internal/pipeline"
	"github.com/alnah/go-mdxsl/internal/render"
	"github.com/alnah/go-mdxsl/internal/xslt"
)

// Converter orchestrates the document-to-XML-to-XSLT pipeline.
// Create with NewConverter, use Convert for conversion, and Close when done.
// A Converter is not safe for concurrent use; see ConverterPool.
type Converter struct {
	cfg         converterConfig
	logger      *slog.Logger
	parser      *markup.Parser
	loader      assets.StylesheetLoader
	transformer Transformer
	renderer    Renderer
}

// NewConverter creates a Converter with default configuration: built-in
// extension functions, embedded stylesheets, xsltproc, no PDF output.
// Returns error if the asset path or page settings are invalid.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.cfg.functions == nil {
		c.cfg.functions = extfunc.Builtins()
	}

	resolver, err := assets.NewResolver(c.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	c.loader = resolver

	if c.cfg.pdf && c.renderer == nil {
		if err := c.cfg.page.Validate(); err != nil {
			return nil, err
		}
		r := render.NewRodRenderer(c.cfg.page, c.cfg.timeout)
		r.CSS = c.cfg.pdfCSS
		c.renderer = r
	}

	c.parser = markup.NewParser(markup.Options{
		Functions:      c.cfg.functions,
		Cookie:         c.cfg.cookie,
		HighlightStyle: c.cfg.highlightStyle,
	})

	return c, nil
}

// Convert runs the full pipeline and returns one result per output
// document: a single unnamed result, or one named result per multidoc
// instance, in instance order. Recoverable directive problems are logged
// as warnings; fatal ones return a *ParseError. References are resolved
// within each instance after the split, and the first instance that fails
// to resolve aborts the run.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (results []Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic during conversion", "source", input.SourcePath, "panic", r, "stack", string(debug.Stack()))
			results = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if len(input.Source) == 0 {
		return nil, ErrEmptySource
	}

	parsed, err := c.parser.Parse(ctx, input.Source, input.SourcePath)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			c.logDiagnostics(pe.Diagnostics)
		}
		return nil, err
	}
	c.logDiagnostics(parsed.Diagnostics)

	tree, err := pipeline.Build(parsed.Document, pipeline.BuildOptions{
		SmartPunctuation: input.SmartPunctuation,
	})
	if err != nil {
		return nil, fmt.Errorf("building XML: %w", err)
	}

	sourceDir := sourceDirOf(input.SourcePath)
	resolver := xslt.IncludeResolver{BasePath: c.cfg.stylesheetBase, RelDir: sourceDir}
	if input.StylesheetBase != "" {
		resolver.BasePath = input.StylesheetBase
	}

	transformer := c.transformerFor(resolver)
	sheet, err := c.selectStylesheet(input.Template, tree.Template, resolver, transformer)
	if err != nil {
		return nil, err
	}

	instances, err := pipeline.Split(tree.Doc, tree.Multidoc)
	if err != nil {
		return nil, fmt.Errorf("splitting document: %w", err)
	}
	c.logger.Debug("document built", "source", input.SourcePath, "instances", len(instances), "stylesheet", sheetName(sheet))

	results = make([]Result, 0, len(instances))
	for _, inst := range instances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := c.convertInstance(ctx, inst, sheet, transformer, input, sourceDir)
		if err != nil {
			if inst.Name != "" {
				return nil, fmt.Errorf("instance %q: %w", inst.Name, err)
			}
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

// convertInstance resolves, transforms, serializes, and optionally renders
// one output document.
func (c *Converter) convertInstance(ctx context.Context, inst pipeline.Instance, sheet *Stylesheet, transformer Transformer, input Input, sourceDir string) (Result, error) {
	log := c.logger.With("source", input.SourcePath, "instance", inst.Name)

	if err := pipeline.Resolve(inst.Doc); err != nil {
		return Result{}, err
	}
	log.Debug("references resolved")

	out, err := transformer.Transform(ctx, inst.Doc, sheet, input.Params)
	if err != nil {
		return Result{}, err
	}
	log.Debug("stylesheet applied")

	data, err := pipeline.Serialize(out, input.Encoding)
	if err != nil {
		return Result{}, err
	}
	res := Result{Name: inst.Name, XML: data}

	if c.renderer != nil {
		pdf, err := c.renderer.Render(ctx, data, sourceDir)
		if err != nil {
			return Result{}, err
		}
		res.PDF = pdf
		log.Debug("pdf rendered", "bytes", len(pdf))
	}

	return res, nil
}

// transformerFor returns the configured transformer, or an xsltproc
// engine that resolves includes with resolver.
func (c *Converter) transformerFor(resolver xslt.IncludeResolver) Transformer {
	if c.transformer != nil {
		return c.transformer
	}
	x := xslt.NewXsltproc(resolver)
	if c.cfg.xsltproc != "" {
		x.Binary = c.cfg.xsltproc
	}
	return x
}

// selectStylesheet loads the override template, else the document's
// xsl-template. Identity transforms never load one, so a missing
// template does not block XML-only output.
func (c *Converter) selectStylesheet(override, fromDoc string, resolver xslt.IncludeResolver, t Transformer) (*Stylesheet, error) {
	if isIdentity(t) {
		return nil, nil
	}

	id, inDoc := override, false
	if id == "" {
		id, inDoc = fromDoc, true
	}
	if id == "" {
		return nil, ErrNoTemplate
	}

	if !assets.IsPath(id) {
		return c.loader.LoadStylesheet(id)
	}
	return assets.LoadFile(stylesheetPath(id, inDoc, resolver))
}

// stylesheetPath locates a stylesheet file. Absolute paths are anchored on
// the base path when there is one. Relative paths named by the document
// are relative to the document; relative overrides are used as given.
func stylesheetPath(id string, inDoc bool, resolver xslt.IncludeResolver) string {
	if filepath.IsAbs(id) || strings.HasPrefix(id, "/") {
		return resolver.Stylesheet(id)
	}
	if inDoc {
		return resolver.Resolve(id, "")
	}
	return id
}

func (c *Converter) logDiagnostics(diags []Diagnostic) {
	for _, d := range diags {
		c.logger.Warn(d.Message,
			"source", d.Source,
			"line", d.Line,
			"severity", d.Level.String(),
		)
	}
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

func isIdentity(t Transformer) bool {
	switch t.(type) {
	case Identity, *Identity:
		return true
	}
	return false
}

func sourceDirOf(sourcePath string) string {
	if sourcePath == "" {
		return "."
	}
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return filepath.Dir(sourcePath)
	}
	return filepath.Dir(abs)
}

func sheetName(s *Stylesheet) string {
	switch {
	case s == nil:
		return ""
	case s.Path != "":
		return s.Path
	}
	return s.Name
}

// Compile-time interface checks.
var (
	_ Transformer = (*xslt.Xsltproc)(nil)
	_ Renderer    = (*render.RodRenderer)(nil)
)
