package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultStylesheetName is the name of the built-in XHTML stylesheet.
const DefaultStylesheetName = "xhtml"

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStylesheet loads a stylesheet by name using the default embedded loader.
// Returns ErrStylesheetNotFound if the stylesheet does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadStylesheet(name string) (*Stylesheet, error) {
	return defaultLoader.LoadStylesheet(name)
}

// IsPath reports whether a template identifier names a file rather than
// an asset: it contains a path separator or ends in .xsl or .xslt.
func IsPath(id string) bool {
	if strings.ContainsAny(id, `/\`) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(id))
	return ext == ".xsl" || ext == ".xslt"
}

// LoadFile reads a stylesheet from an explicit path.
func LoadFile(path string) (*Stylesheet, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}

	content, err := os.ReadFile(abs) // #nosec G304 -- path chosen by the document author
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrStylesheetNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}

	return &Stylesheet{Name: path, Path: abs, Content: content}, nil
}
