// Package render prints transformed XHTML pages to PDF with headless
// Chrome.
//
// Rod downloads Chromium on first use when no browser is installed. Set
// ROD_BROWSER_BIN to use a pre-installed binary; the sandbox is disabled
// when it is set or when CI=true.
package render
