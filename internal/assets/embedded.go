package assets

import (
	"embed"
	"fmt"
)

//go:embed stylesheets/*.xsl
var stylesheets embed.FS

// EmbeddedLoader loads stylesheets from the embedded filesystem.
// Implements StylesheetLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStylesheet loads a stylesheet from embedded assets by name.
// The name should not include the .xsl extension.
func (e *EmbeddedLoader) LoadStylesheet(name string) (*Stylesheet, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	content, err := stylesheets.ReadFile("stylesheets/" + name + ".xsl")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrStylesheetNotFound, name)
	}

	return &Stylesheet{Name: name, Content: content}, nil
}

// Names lists the embedded stylesheet names.
func (e *EmbeddedLoader) Names() []string {
	entries, err := stylesheets.ReadDir("stylesheets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name()[:len(entry.Name())-len(".xsl")])
	}
	return names
}

// Compile-time interface check.
var _ StylesheetLoader = (*EmbeddedLoader)(nil)
