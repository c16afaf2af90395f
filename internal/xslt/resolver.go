package xslt

import (
	"path/filepath"
	"strings"
)

// IncludeResolver locates stylesheets named by xsl:include and xsl:import.
type IncludeResolver struct {
	// BasePath anchors absolute hrefs. Empty leaves them untouched.
	BasePath string

	// RelDir anchors relative hrefs that have no referring file, usually
	// the source document's directory.
	RelDir string
}

// Resolve returns the file an href refers to. Absolute hrefs are joined
// onto BasePath with their leading separator dropped; relative hrefs are
// joined onto referrerDir, or RelDir when referrerDir is empty. URLs are
// returned unchanged.
func (r IncludeResolver) Resolve(href, referrerDir string) string {
	if strings.Contains(href, "://") {
		return href
	}

	if filepath.IsAbs(href) || strings.HasPrefix(href, "/") {
		if r.BasePath == "" {
			return href
		}
		return filepath.Join(r.BasePath, strings.TrimLeft(href, `/\`))
	}

	if referrerDir == "" {
		referrerDir = r.RelDir
	}
	return filepath.Clean(filepath.Join(referrerDir, href))
}

// Stylesheet resolves the top-level stylesheet path. Without a base path
// the path is used as given.
func (r IncludeResolver) Stylesheet(path string) string {
	if r.BasePath == "" {
		return path
	}
	return r.Resolve(path, r.RelDir)
}
