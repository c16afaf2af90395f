// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-mdxsl/internal/fileutil"
)

// ciVariables are set by the CI systems mdxsl is commonly run under.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// IsInContainer reports whether /.dockerenv exists. Tests replace it.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether any known CI variable is set.
func InCI() bool {
	return slices.ContainsFunc(ciVariables, func(v string) bool { return os.Getenv(v) != "" })
}

// ForBrowserConnect suggests the rod variables that usually fix a failed
// Chrome launch: no sandbox under CI or Docker, an explicit binary otherwise.
func ForBrowserConnect() string {
	var hints []string
	if (InCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	return formatHints(hints)
}

// ForEngineNotFound returns hints for a missing xsltproc binary.
func ForEngineNotFound() string {
	return formatHints([]string{
		"install xsltproc (libxslt) or set MDXSL_XSLTPROC",
		"use --xml-only to skip the stylesheet",
	})
}

// ForNoTemplate returns hints for documents that name no stylesheet.
func ForNoTemplate() string {
	return format("add an :xsl-template: field to the document or pass --stylesheet")
}

// ForUnresolvedReference points at the XML the expression ran against.
func ForUnresolvedReference() string {
	return format("run with --xml-only to inspect the document the expression is evaluated on")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-mdxsl/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	marker := filepath.Join(".config", "go-mdxsl")
	for _, p := range searchedPaths {
		if strings.Contains(p, marker) {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStylesheetNotFound lists the stylesheets that can be named instead.
func ForStylesheetNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", ") + ", or a path to an .xsl file")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
