// Package doctree defines the source document tree produced by the markup
// adapter and consumed by the XML converter.
//
// Node kinds use docutils names so stylesheets written against the classic
// restructured-text XML vocabulary keep working. The tree is built once and
// never mutated after parsing.
package doctree

import (
	"strings"

	"github.com/beevik/etree"
)

// Node kinds.
const (
	KindDocument       = "document"
	KindSection        = "section"
	KindTitle          = "title"
	KindParagraph      = "paragraph"
	KindEmphasis       = "emphasis"
	KindStrong         = "strong"
	KindLiteral        = "literal"
	KindLiteralBlock   = "literal_block"
	KindRaw            = "raw"
	KindOptionString   = "option_string"
	KindFieldList      = "field_list"
	KindField          = "field"
	KindFieldName      = "field_name"
	KindFieldBody      = "field_body"
	KindBulletList     = "bullet_list"
	KindEnumeratedList = "enumerated_list"
	KindListItem       = "list_item"
	KindBlockQuote     = "block_quote"
	KindReference      = "reference"
	KindImage          = "image"
	KindTransition     = "transition"
	KindSystemMessage  = "system_message"
	KindText           = "#text"

	// KindXMLFragment carries a pre-built XML element produced by an
	// extension function.
	KindXMLFragment = "xml_fragment"

	// KindPathReference carries an XPath expression resolved against the
	// output tree after conversion.
	KindPathReference = "path_reference"
)

// textElements are kinds whose content is inline text; AsText joins their
// children without separators.
var textElements = map[string]bool{
	KindTitle:        true,
	KindParagraph:    true,
	KindEmphasis:     true,
	KindStrong:       true,
	KindLiteral:      true,
	KindLiteralBlock: true,
	KindRaw:          true,
	KindFieldName:    true,
	KindReference:    true,
	KindOptionString: true,
}

// Attr is a node attribute. List attributes keep their items separately so
// the converter can escape each one.
type Attr struct {
	Name   string
	Value  string
	Values []string
	List   bool
}

// Node is one element of the source tree.
type Node struct {
	Kind     string
	Attrs    []Attr
	Children []*Node

	// Text is set on KindText leaves.
	Text string

	// Fragment is set on KindXMLFragment nodes.
	Fragment *etree.Element

	// Expr is set on KindPathReference nodes.
	Expr string

	// Line is the 1-based source line, zero when unknown.
	Line int
}

// Document is a parsed source document plus the settings captured while
// parsing it.
type Document struct {
	Root *Node

	// Source is the path of the parsed file, empty for in-memory input.
	Source string

	// Multidoc is the instance-name expression declared by a multidoc
	// directive, empty when the document is not split.
	Multidoc string
}

// NewNode returns a node of the given kind with children appended in order.
func NewNode(kind string, children ...*Node) *Node {
	n := &Node{Kind: kind}
	n.Append(children...)
	return n
}

// NewText returns a text leaf.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// NewFragment returns a node wrapping a pre-built XML element.
func NewFragment(elem *etree.Element) *Node {
	return &Node{Kind: KindXMLFragment, Fragment: elem}
}

// NewPathReference returns a deferred reference to expr.
func NewPathReference(expr string) *Node {
	return &Node{Kind: KindPathReference, Expr: expr}
}

// Append adds children, skipping nils.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// SetAttr sets a scalar attribute, replacing an existing one in place.
func (n *Node) SetAttr(name, value string) *Node {
	return n.setAttr(Attr{Name: name, Value: value})
}

// SetListAttr sets a list-valued attribute.
func (n *Node) SetListAttr(name string, values ...string) *Node {
	return n.setAttr(Attr{Name: name, Values: append([]string(nil), values...), List: true})
}

func (n *Node) setAttr(a Attr) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == a.Name {
			n.Attrs[i] = a
			return n
		}
	}
	n.Attrs = append(n.Attrs, a)
	return n
}

// Attr returns the named attribute.
func (n *Node) Attr(name string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// FirstChild returns the first direct child of the given kind, or nil.
func (n *Node) FirstChild(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// AsText returns the plain-text content of the subtree. Inline kinds join
// their children directly; block kinds separate them with a blank line.
func (n *Node) AsText() string {
	switch n.Kind {
	case KindText:
		return n.Text
	case KindPathReference:
		return ""
	case KindXMLFragment:
		if n.Fragment == nil {
			return ""
		}
		return n.Fragment.Text()
	}

	sep := "\n\n"
	if textElements[n.Kind] {
		sep = ""
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, c.AsText())
	}
	return strings.Join(parts, sep)
}

// WalkAction tells Walk how to continue after entering a node.
type WalkAction int

const (
	// Continue descends into the node's children.
	Continue WalkAction = iota

	// SkipChildren leaves the subtree unvisited. Exit is still called.
	SkipChildren

	// SkipNode leaves the subtree unvisited and suppresses Exit.
	SkipNode
)

// Visitor receives enter and exit events in document order.
type Visitor interface {
	Enter(n *Node) WalkAction
	Exit(n *Node)
}

// Walk visits n depth-first, calling Enter before a node's children and
// Exit after them.
func Walk(n *Node, v Visitor) {
	if n == nil {
		return
	}
	switch v.Enter(n) {
	case SkipNode:
		return
	case SkipChildren:
	default:
		for _, c := range n.Children {
			Walk(c, v)
		}
	}
	v.Exit(n)
}
