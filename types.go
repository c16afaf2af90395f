package mdxsl

import (
	"log/slog"
	"time"

	"github.com/alnah/go-mdxsl/internal/assets"
	"github.com/alnah/go-mdxsl/internal/extfunc"
	"github.com/alnah/go-mdxsl/internal/render"
	"github.com/alnah/go-mdxsl/internal/xslt"
)

// Input is one document to convert.
type Input struct {
	// SourcePath names the document in diagnostics and anchors relative
	// paths: source files, data files, and relative stylesheet includes.
	// It may be empty.
	SourcePath string

	// Source is the document text.
	Source []byte

	// SmartPunctuation converts quotes, dashes, and ellipses in non-raw
	// text into typographic characters.
	SmartPunctuation bool

	// Encoding of the output (default: ASCII, non-ASCII escaped as
	// character references).
	Encoding string

	// Template overrides the document's xsl-template field.
	Template string

	// StylesheetBase anchors absolute include hrefs; it overrides the
	// converter's WithStylesheetBase.
	StylesheetBase string

	// Params are passed to the stylesheet as XPath expressions, so string
	// values need quotes: {"title": "'Report'"}.
	Params map[string]string
}

// Result is one output document.
type Result struct {
	// Name is the multidoc instance name, empty when the document was not
	// split.
	Name string

	// XML is the serialized transformation result.
	XML []byte

	// PDF is set when the converter renders PDFs.
	PDF []byte
}

// Aliases for the extension points of internal packages.
type (
	// Stylesheet is a loaded XSLT stylesheet.
	Stylesheet = assets.Stylesheet

	// Transformer applies a stylesheet to a document.
	Transformer = xslt.Transformer

	// Identity is a Transformer that applies no stylesheet.
	Identity = xslt.Identity

	// Func is an extension function callable from pyxslt directives.
	Func = extfunc.Func

	// Registry maps function names to extension functions.
	Registry = extfunc.Registry

	// Named forces the element name of a serialized value.
	Named = extfunc.Named

	// PageSettings configures PDF page dimensions.
	PageSettings = render.PageSettings

	// Renderer prints a transformed page to PDF.
	Renderer = render.Renderer
)

// NewRegistry returns an empty function registry.
func NewRegistry() *Registry { return extfunc.NewRegistry() }

// Builtins returns a registry with the yaml, sql, and date functions.
func Builtins() *Registry { return extfunc.Builtins() }

// DefaultPageSettings returns letter, portrait, half-inch margins.
func DefaultPageSettings() *PageSettings { return render.DefaultPageSettings() }

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds options applied by NewConverter.
type converterConfig struct {
	functions      *extfunc.Registry
	cookie         any
	assetPath      string
	stylesheetBase string
	highlightStyle string
	xsltproc       string
	pdf            bool
	page           *PageSettings
	pdfCSS         string
	timeout        time.Duration
}

// WithTransformer replaces the xsltproc engine.
func WithTransformer(t Transformer) Option {
	return func(c *Converter) {
		c.transformer = t
	}
}

// WithXsltproc sets the xsltproc executable (default: "xsltproc" on PATH).
func WithXsltproc(binary string) Option {
	return func(c *Converter) {
		c.cfg.xsltproc = binary
	}
}

// WithFunctions sets the functions callable from pyxslt directives.
// The built-in functions are used when this option is not given.
func WithFunctions(r *Registry) Option {
	return func(c *Converter) {
		c.cfg.functions = r
	}
}

// WithCookie sets the value passed unchanged to every extension function.
func WithCookie(cookie any) Option {
	return func(c *Converter) {
		c.cfg.cookie = cookie
	}
}

// WithLogger sets the logger for parse diagnostics and stage tracing.
// A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = l
	}
}

// WithAssetPath adds a directory searched for named stylesheets
// (<path>/stylesheets/<name>.xsl) before the embedded ones.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithStylesheetBase anchors absolute include hrefs in stylesheets.
func WithStylesheetBase(path string) Option {
	return func(c *Converter) {
		c.cfg.stylesheetBase = path
	}
}

// WithHighlightStyle renders code blocks with inline styles from the named
// chroma style instead of CSS classes.
func WithHighlightStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.highlightStyle = style
	}
}

// WithPDF renders every result to PDF with headless Chrome. A nil page
// uses DefaultPageSettings; css is injected into each page before printing.
func WithPDF(page *PageSettings, css string) Option {
	return func(c *Converter) {
		c.cfg.pdf = true
		c.cfg.page = page
		c.cfg.pdfCSS = css
	}
}

// WithRenderer replaces the PDF renderer. It implies PDF output.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) {
		c.renderer = r
	}
}

// WithTimeout bounds page loading during PDF rendering.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdxsl: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}
