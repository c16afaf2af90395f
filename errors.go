package mdxsl

import (
	"errors"

	"github.com/alnah/go-mdxsl/internal/assets"
	"github.com/alnah/go-mdxsl/internal/markup"
	"github.com/alnah/go-mdxsl/internal/pipeline"
	"github.com/alnah/go-mdxsl/internal/render"
	"github.com/alnah/go-mdxsl/internal/xslt"
)

// Sentinel errors for library operations.
var (
	ErrEmptySource      = errors.New("source document cannot be empty")
	ErrNoTemplate       = errors.New("no stylesheet given and the document has no xsl-template field")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrInternal         = errors.New("internal error")
)

// Errors raised by the pipeline stages, matched with errors.Is.
var (
	// Source parsing.
	ErrSourceParse        = markup.ErrSourceParse
	ErrDirectiveArgument  = markup.ErrDirectiveArgument
	ErrMultidocResultType = markup.ErrMultidocResultType

	// Tree conversion, resolution, and splitting.
	ErrEmptyDocument       = pipeline.ErrEmptyDocument
	ErrUnresolvedReference = pipeline.ErrUnresolvedReference
	ErrDuplicateMultidoc   = pipeline.ErrDuplicateMultidoc
	ErrMultidocNames       = pipeline.ErrMultidocNames
	ErrEmptyInstanceName   = pipeline.ErrEmptyInstanceName
	ErrUnknownEncoding     = pipeline.ErrUnknownEncoding
	ErrUnencodable         = pipeline.ErrUnencodable

	// Stylesheets and transformation.
	ErrStylesheetNotFound = assets.ErrStylesheetNotFound
	ErrStylesheet         = xslt.ErrStylesheet
	ErrTransform          = xslt.ErrTransform
	ErrEngineNotFound     = xslt.ErrEngineNotFound

	// PDF rendering.
	ErrBrowserConnect = render.ErrBrowserConnect
	ErrPageLoad       = render.ErrPageLoad
	ErrPDFGeneration  = render.ErrPDFGeneration

	// Page settings validation.
	ErrInvalidPageSize    = render.ErrInvalidPageSize
	ErrInvalidOrientation = render.ErrInvalidOrientation
	ErrInvalidMargin      = render.ErrInvalidMargin
)

// Typed errors carrying detail for callers.
type (
	// ParseError lists the diagnostics that stopped a parse.
	ParseError = markup.ParseError

	// UnresolvedReferenceError names the expression that matched nothing.
	UnresolvedReferenceError = pipeline.UnresolvedReferenceError

	// Diagnostic is one parser message with its source position.
	Diagnostic = markup.Diagnostic
)
