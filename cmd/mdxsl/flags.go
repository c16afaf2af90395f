package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// transformFlags holds source conversion and stylesheet flags.
type transformFlags struct {
	stylesheet       string
	stylesheetBase   string
	params           []string // name=xpath
	stringParams     []string // name=literal
	encoding         string
	smartPunctuation bool
	xmlOnly          bool
	xsltproc         string
}

// pdfFlags holds PDF rendering flags.
type pdfFlags struct {
	enabled     bool
	size        string
	orientation string
	margin      float64
	css         string
	timeout     string
}

// assetFlags holds asset-related flags.
type assetFlags struct {
	assetPath      string // Override asset directory
	highlightStyle string // Chroma style for code blocks
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common    commonFlags
	output    string
	extension string
	workers   int
	watch     bool
	transform transformFlags
	pdf       pdfFlags
	assets    assetFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addTransformFlags adds conversion and stylesheet flags to a FlagSet.
func addTransformFlags(fs *flag.FlagSet, f *transformFlags) {
	fs.StringVarP(&f.stylesheet, "stylesheet", "s", "", "stylesheet name or path (overrides xsl-template)")
	fs.StringVar(&f.stylesheetBase, "stylesheet-base", "", "directory anchoring absolute include hrefs")
	fs.StringArrayVarP(&f.params, "param", "P", nil, "stylesheet parameter name=xpath (repeatable)")
	fs.StringArrayVar(&f.stringParams, "string-param", nil, "stylesheet parameter name=string (repeatable)")
	fs.StringVarP(&f.encoding, "encoding", "e", "", "output encoding (default: ascii)")
	fs.BoolVar(&f.smartPunctuation, "smart-punctuation", false, "typographic quotes, dashes, and ellipses")
	fs.BoolVarP(&f.xmlOnly, "xml-only", "x", false, "skip the stylesheet, write the document XML")
	fs.StringVar(&f.xsltproc, "xsltproc", "", "xsltproc executable")
}

// addPDFFlags adds PDF rendering flags to a FlagSet.
func addPDFFlags(fs *flag.FlagSet, f *pdfFlags) {
	fs.BoolVar(&f.enabled, "pdf", false, "print results to PDF with headless Chrome")
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0.25-3.0)")
	fs.StringVar(&f.css, "css", "", "CSS file injected before printing")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF generation timeout (e.g., 30s, 2m)")
}

// addAssetFlags adds asset-related flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "chroma style for code blocks (default: CSS classes)")
}

// newConvertFlagSet registers every convert flag on a fresh FlagSet.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVar(&f.extension, "ext", "", "output file extension (default: html, pdf with --pdf)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.watch, "watch", false, "convert again when sources change")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addTransformFlags(fs, &f.transform)
	addPDFFlags(fs, &f.pdf)
	addAssetFlags(fs, &f.assets)

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.Usage = func() { printConvertUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
