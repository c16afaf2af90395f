package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdxsl <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert source documents through XSLT")
	fmt.Fprintln(w, "  doctor     Check xsltproc and Chrome availability")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "'mdxsl <file>' is short for 'mdxsl convert <file>'.")
	fmt.Fprintln(w, "Run 'mdxsl help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdxsl convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert source documents to XML and apply their stylesheet.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Source file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>          Output file or directory")
	fmt.Fprintln(w, "      --ext <s>                Output extension (default: html, pdf with --pdf)")
	fmt.Fprintln(w, "  -c, --config <name>          Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>            Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --watch                  Convert again when sources change")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Transform:")
	fmt.Fprintln(w, "  -s, --stylesheet <s>         Stylesheet name or path (overrides xsl-template)")
	fmt.Fprintln(w, "      --stylesheet-base <dir>  Directory anchoring absolute include hrefs")
	fmt.Fprintln(w, "  -P, --param <name=xpath>     Stylesheet parameter, value is an XPath expression")
	fmt.Fprintln(w, "      --string-param <name=s>  Stylesheet parameter, value is a string")
	fmt.Fprintln(w, "  -e, --encoding <s>           Output encoding (default: ascii)")
	fmt.Fprintln(w, "      --smart-punctuation      Typographic quotes, dashes, and ellipses")
	fmt.Fprintln(w, "  -x, --xml-only               Skip the stylesheet, write the document XML")
	fmt.Fprintln(w, "      --xsltproc <path>        xsltproc executable")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Assets:")
	fmt.Fprintln(w, "      --asset-path <dir>       Custom stylesheet directory")
	fmt.Fprintln(w, "      --highlight-style <s>    Chroma style for code blocks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PDF:")
	fmt.Fprintln(w, "      --pdf                    Print results to PDF with headless Chrome")
	fmt.Fprintln(w, "  -p, --page-size <s>          Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>        Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>             Margin in inches (0.25-3.0)")
	fmt.Fprintln(w, "      --css <path>             CSS file injected before printing")
	fmt.Fprintln(w, "  -t, --timeout <d>            PDF generation timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                  Only show errors")
	fmt.Fprintln(w, "  -v, --verbose                Show debug logs and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MDXSL_CONFIG, MDXSL_STYLESHEET, MDXSL_XSLTPROC, MDXSL_TIMEOUT,")
	fmt.Fprintln(w, "  MDXSL_INPUT_DIR, MDXSL_OUTPUT_DIR, MDXSL_ASSET_PATH, MDXSL_WORKERS,")
	fmt.Fprintln(w, "  MDXSL_STYLESHEET_BASE, MDXSL_ENCODING, MDXSL_HIGHLIGHT_STYLE, MDXSL_PAGE_SIZE")
	fmt.Fprintln(w, "  Flags win over environment, environment over the config file.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdxsl doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that xsltproc and Chrome are available.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdxsl version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdxsl help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
