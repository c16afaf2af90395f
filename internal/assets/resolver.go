package assets

import (
	"errors"
)

// Resolver combines custom and embedded loaders with fallback logic.
// When a custom loader is configured, it tries custom first, then falls back
// to embedded if the stylesheet is not found in the custom location.
type Resolver struct {
	custom   StylesheetLoader // nil if no custom path configured
	embedded StylesheetLoader
}

// NewResolver creates a Resolver.
// If customBasePath is empty, only embedded stylesheets are used.
// Returns error if customBasePath is set but invalid.
func NewResolver(customBasePath string) (*Resolver, error) {
	resolver := &Resolver{
		embedded: NewEmbeddedLoader(),
	}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}

	return resolver, nil
}

// LoadStylesheet loads a stylesheet, trying the custom loader first if
// available.
func (r *Resolver) LoadStylesheet(name string) (*Stylesheet, error) {
	// If no custom loader, use embedded directly
	if r.custom == nil {
		return r.embedded.LoadStylesheet(name)
	}

	ss, err := r.custom.LoadStylesheet(name)
	if err == nil {
		return ss, nil
	}

	// Only fall back for "not found" errors, not validation or I/O errors
	if !errors.Is(err, ErrStylesheetNotFound) {
		return nil, err
	}

	return r.embedded.LoadStylesheet(name)
}

// Compile-time interface check.
var _ StylesheetLoader = (*Resolver)(nil)
