// Package assets provides the XSLT stylesheets documents are transformed
// with.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	StylesheetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in stylesheets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── Resolver          - combines both with custom-first fallback
//
// EmbeddedLoader provides the built-in xhtml stylesheet compiled into the
// binary.
//
// FilesystemLoader allows users to provide custom stylesheets from a
// directory, with path traversal protection and symlink resolution.
//
// Resolver is the loader used by the converter. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the stylesheet
// is not found.
//
// # Directory Structure
//
//	{basePath}/
//	└── stylesheets/
//	    └── {name}.xsl
//
// # Names and Paths
//
// A template identifier that looks like a path (see IsPath) names a file
// on disk and bypasses the loaders; anything else is an asset name.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
