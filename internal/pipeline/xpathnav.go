package pipeline

import (
	"strings"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// navigator adapts an etree document to xpath.NodeNavigator.
// Only elements, text, and comments are visible; processing instructions
// and directives are skipped.
type navigator struct {
	root *etree.Element
	curr etree.Token
	attr int
}

var _ xpath.NodeNavigator = (*navigator)(nil)

func newNavigator(doc *etree.Document) *navigator {
	return &navigator{root: &doc.Element, curr: &doc.Element, attr: -1}
}

func (n *navigator) NodeType() xpath.NodeType {
	switch t := n.curr.(type) {
	case *etree.Element:
		if t == n.root {
			return xpath.RootNode
		}
		if n.attr != -1 {
			return xpath.AttributeNode
		}
		return xpath.ElementNode
	case *etree.CharData:
		return xpath.TextNode
	case *etree.Comment:
		return xpath.CommentNode
	}
	return xpath.ElementNode
}

func (n *navigator) LocalName() string {
	if e, ok := n.curr.(*etree.Element); ok {
		if n.attr != -1 {
			return e.Attr[n.attr].Key
		}
		return e.Tag
	}
	return ""
}

func (n *navigator) Prefix() string {
	if e, ok := n.curr.(*etree.Element); ok {
		if n.attr != -1 {
			return e.Attr[n.attr].Space
		}
		return e.Space
	}
	return ""
}

func (n *navigator) Value() string {
	switch t := n.curr.(type) {
	case *etree.Element:
		if n.attr != -1 {
			return t.Attr[n.attr].Value
		}
		return stringValue(t)
	case *etree.CharData:
		return t.Data
	case *etree.Comment:
		return t.Data
	}
	return ""
}

func (n *navigator) Copy() xpath.NodeNavigator {
	c := *n
	return &c
}

func (n *navigator) MoveToRoot() {
	n.curr = n.root
	n.attr = -1
}

func (n *navigator) MoveToParent() bool {
	if n.attr != -1 {
		n.attr = -1
		return true
	}
	if n.curr == etree.Token(n.root) {
		return false
	}
	p := n.curr.Parent()
	if p == nil {
		return false
	}
	n.curr = p
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	e, ok := n.curr.(*etree.Element)
	if !ok || e == n.root || n.attr >= len(e.Attr)-1 {
		return false
	}
	n.attr++
	return true
}

func (n *navigator) MoveToChild() bool {
	if n.attr != -1 {
		return false
	}
	e, ok := n.curr.(*etree.Element)
	if !ok {
		return false
	}
	if c := nextVisible(e, 0); c != nil {
		n.curr = c
		return true
	}
	return false
}

func (n *navigator) MoveToFirst() bool {
	if n.attr != -1 || n.curr == etree.Token(n.root) {
		return false
	}
	p := n.curr.Parent()
	if p == nil {
		return false
	}
	first := nextVisible(p, 0)
	if first == nil || first == n.curr {
		return false
	}
	n.curr = first
	return true
}

func (n *navigator) MoveToNext() bool {
	if n.attr != -1 || n.curr == etree.Token(n.root) {
		return false
	}
	p := n.curr.Parent()
	if p == nil {
		return false
	}
	if c := nextVisible(p, n.curr.Index()+1); c != nil {
		n.curr = c
		return true
	}
	return false
}

func (n *navigator) MoveToPrevious() bool {
	if n.attr != -1 || n.curr == etree.Token(n.root) {
		return false
	}
	p := n.curr.Parent()
	if p == nil {
		return false
	}
	for i := n.curr.Index() - 1; i >= 0; i-- {
		if visible(p.Child[i]) {
			n.curr = p.Child[i]
			return true
		}
	}
	return false
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.root != n.root {
		return false
	}
	n.curr = o.curr
	n.attr = o.attr
	return true
}

// element returns the element under the navigator, or nil when it is on an
// attribute or a non-element node.
func (n *navigator) element() *etree.Element {
	if n.attr != -1 {
		return nil
	}
	e, ok := n.curr.(*etree.Element)
	if !ok || e == n.root {
		return nil
	}
	return e
}

// nextVisible returns the first navigable child of e at or after index from.
func nextVisible(e *etree.Element, from int) etree.Token {
	for i := from; i < len(e.Child); i++ {
		if visible(e.Child[i]) {
			return e.Child[i]
		}
	}
	return nil
}

func visible(t etree.Token) bool {
	switch t.(type) {
	case *etree.Element, *etree.CharData, *etree.Comment:
		return true
	}
	return false
}

// stringValue is the XPath string-value of an element: all descendant text
// in document order.
func stringValue(e *etree.Element) string {
	var sb strings.Builder
	collectText(e, &sb)
	return sb.String()
}

func collectText(e *etree.Element, sb *strings.Builder) {
	for _, c := range e.Child {
		switch t := c.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			collectText(t, sb)
		}
	}
}

// evaluate compiles expr and evaluates it against doc.
func evaluate(doc *etree.Document, expr string) (any, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(newNavigator(doc)), nil
}

// selectElements returns the elements matched by expr in document order.
// Non-element matches are ignored.
func selectElements(doc *etree.Document, expr string) ([]*etree.Element, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, err
	}
	var out []*etree.Element
	it := compiled.Select(newNavigator(doc))
	for it.MoveNext() {
		if nav, ok := it.Current().(*navigator); ok {
			if e := nav.element(); e != nil {
				out = append(out, e)
			}
		}
	}
	return out, nil
}
