package assets

import "errors"

var (
	// ErrStylesheetNotFound is returned when no loader has the named
	// stylesheet or an explicit stylesheet path does not exist.
	ErrStylesheetNotFound = errors.New("stylesheet not found")

	// ErrInvalidAssetName rejects names that are not plain identifiers.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath rejects an asset directory that cannot be read.
	ErrInvalidBasePath = errors.New("invalid base path")

	ErrAssetRead     = errors.New("failed to read asset")
	ErrPathTraversal = errors.New("path traversal detected")
)
