package xslt

import "errors"

// Sentinel errors for transformation failures.
var (
	// ErrTransform indicates the engine failed or produced unusable output.
	ErrTransform = errors.New("transform failed")

	// ErrStylesheet indicates a stylesheet could not be read or parsed.
	ErrStylesheet = errors.New("invalid stylesheet")

	// ErrEngineNotFound indicates the xsltproc binary is not installed.
	ErrEngineNotFound = errors.New("xsltproc not found")
)
