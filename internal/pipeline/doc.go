// Package pipeline implements the document-to-XML conversion stages.
//
// The stages run in order for every source document:
//   - Build converts the source document tree into an XML tree
//   - Split produces one XML tree per multidoc instance
//   - Resolve replaces deferred XPath references with their targets
//   - Serialize writes a transformed tree in the requested encoding
//
// Stylesheet application sits between Resolve and Serialize and is handled
// by the xslt package. Every stage works on github.com/beevik/etree trees;
// XPath evaluation uses github.com/antchfx/xpath through the navigator in
// xpathnav.go.
package pipeline
