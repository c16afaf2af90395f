// Package xslt applies XSLT stylesheets to converted documents.
//
// Transformation itself is delegated to an external engine (xsltproc)
// behind the Transformer interface. Before the engine runs, the top-level
// stylesheet and every stylesheet it includes or imports are copied into a
// private directory with their hrefs rewritten by an IncludeResolver, so
// absolute hrefs can be anchored at a configurable base path.
package xslt
