// Package mdxsl converts structured-text documents into XML and hands the
// result to an XSLT engine.
//
// # Quick Start
//
// Create a converter and convert a document:
//
//	conv, err := mdxsl.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	results, err := conv.Convert(ctx, mdxsl.Input{
//	    SourcePath: "report.md",
//	    Source:     src,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("report.html", results[0].XML, 0644)
//
// # Conversion Pipeline
//
// The conversion process follows these stages:
//
//  1. Markup parsing (goldmark plus field lists, the :xpath: role, and the
//     pyxslt, code-block, and raw directives)
//  2. Tree conversion into XML, with optional smart punctuation
//  3. Multidoc splitting, one document per instance
//  4. Reference resolution within each instance
//  5. Stylesheet application through xsltproc
//  6. Serialization in the requested encoding (ASCII by default)
//  7. Optional PDF rendering via headless Chrome (go-rod)
//
// # Stylesheets
//
// The stylesheet comes from Input.Template when set, otherwise from the
// document's :xsl-template: field. A value containing a path separator or
// ending in .xsl is a file; anything else names an embedded stylesheet
// ("xhtml") or one under the asset path:
//
//	conv, err := mdxsl.NewConverter(
//	    mdxsl.WithAssetPath("/path/to/assets"),      // assets/stylesheets/*.xsl
//	    mdxsl.WithStylesheetBase("/site/xsl"),       // anchors absolute includes
//	)
//
// WithTransformer(mdxsl.Identity{}) skips the stylesheet and returns the
// document XML itself.
//
// # Extension Functions
//
// The pyxslt directive calls a registered function and embeds its result:
//
//	reg := mdxsl.Builtins()
//	_ = reg.Register("team", func(ctx context.Context, cookie any, args map[string]string) (any, error) {
//	    return []any{map[string]any{"name": "Ann"}}, nil
//	})
//	conv, err := mdxsl.NewConverter(mdxsl.WithFunctions(reg))
//
// # Parallel Processing
//
// A Converter is not safe for concurrent use. For batch conversion, use
// ConverterPool:
//
//	pool := mdxsl.NewConverterPool(4)
//	defer pool.Close()
//
//	conv := pool.Acquire()
//	defer pool.Release(conv)
//	results, err := conv.Convert(ctx, input)
//
// # Browser Requirements
//
// PDF rendering requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package mdxsl
