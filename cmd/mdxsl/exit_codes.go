package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	mdxsl "github.com/alnah/go-mdxsl"
	"github.com/alnah/go-mdxsl/internal/assets"
	"github.com/alnah/go-mdxsl/internal/config"
	"github.com/alnah/go-mdxsl/internal/fileutil"
	"github.com/alnah/go-mdxsl/internal/hints"
)

// Exit codes for the mdxsl CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Successful conversion
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or validation
	ExitIO        = 3 // File not found, permission denied
	ExitSource    = 4 // Source document or reference errors
	ExitTransform = 5 // Stylesheet, xsltproc, or browser errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Transform and render errors (exit 5)
	if errors.Is(err, mdxsl.ErrTransform) ||
		errors.Is(err, mdxsl.ErrStylesheet) ||
		errors.Is(err, mdxsl.ErrEngineNotFound) ||
		errors.Is(err, mdxsl.ErrBrowserConnect) ||
		errors.Is(err, mdxsl.ErrPageLoad) ||
		errors.Is(err, mdxsl.ErrPDFGeneration) {
		return ExitTransform
	}

	// Source and reference errors (exit 4)
	if errors.Is(err, mdxsl.ErrSourceParse) ||
		errors.Is(err, mdxsl.ErrEmptySource) ||
		errors.Is(err, mdxsl.ErrEmptyDocument) ||
		errors.Is(err, mdxsl.ErrUnresolvedReference) ||
		errors.Is(err, mdxsl.ErrDuplicateMultidoc) ||
		errors.Is(err, mdxsl.ErrMultidocResultType) ||
		errors.Is(err, mdxsl.ErrMultidocNames) ||
		errors.Is(err, mdxsl.ErrEmptyInstanceName) ||
		errors.Is(err, mdxsl.ErrUnencodable) ||
		errors.Is(err, ErrOutputCollision) {
		return ExitSource
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, mdxsl.ErrNoTemplate) ||
		errors.Is(err, mdxsl.ErrStylesheetNotFound) ||
		errors.Is(err, mdxsl.ErrUnknownEncoding) ||
		errors.Is(err, mdxsl.ErrInvalidAssetPath) ||
		errors.Is(err, mdxsl.ErrInvalidPageSize) ||
		errors.Is(err, mdxsl.ErrInvalidOrientation) ||
		errors.Is(err, mdxsl.ErrInvalidMargin) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidParam) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, ErrUnknownCommand) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadSource) ||
		errors.Is(err, ErrReadCSS) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoSourceFiles) {
		return ExitIO
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, mdxsl.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, mdxsl.ErrEngineNotFound):
		return hints.ForEngineNotFound()
	case errors.Is(err, mdxsl.ErrNoTemplate):
		return hints.ForNoTemplate()
	case errors.Is(err, mdxsl.ErrUnresolvedReference):
		return hints.ForUnresolvedReference()
	case errors.Is(err, mdxsl.ErrPageLoad), errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, mdxsl.ErrStylesheetNotFound):
		return hints.ForStylesheetNotFound(assets.NewEmbeddedLoader().Names())
	case errors.Is(err, ErrWriteOutput), errors.Is(err, fileutil.ErrEmptyPath):
		return hints.ForOutputDirectory()
	}
	return ""
}

// triedPaths extracts the searched locations from a config-not-found
// message ("... tried a.yaml, b.yml").
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// printError writes err and its hint to w.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v%s\n", err, hintFor(err))
}
