package assets

// Stylesheet is a loaded XSLT stylesheet.
type Stylesheet struct {
	// Name is the asset name or the path it was loaded from.
	Name string

	// Path is the file the stylesheet was read from. It is empty for
	// embedded stylesheets, which cannot include relative files.
	Path string

	Content []byte
}

// StylesheetLoader defines the contract for loading XSLT stylesheets.
type StylesheetLoader interface {
	// LoadStylesheet loads a stylesheet by name (without .xsl extension).
	// Returns ErrStylesheetNotFound if the stylesheet doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadStylesheet(name string) (*Stylesheet, error)
}
