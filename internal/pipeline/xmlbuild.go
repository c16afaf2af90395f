package pipeline

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/alnah/go-mdxsl/internal/doctree"
	"github.com/alnah/go-mdxsl/internal/smartpunct"
)

// Reserved names shared with stylesheets and the markup adapter.
const (
	// FragmentTag is the root element of every extension-function result.
	FragmentTag = "pyxslt"

	// ReferenceTag marks a deferred XPath reference in the built tree.
	ReferenceTag = "pyxslt-xpath-reference"

	// MultidocAttr marks the fragment whose children become instances.
	MultidocAttr = "multidoc"

	// TemplateField is the field name that selects a stylesheet.
	TemplateField = "xsl-template"

	lineBreakTag = "br"
)

// Preserved-whitespace replacements keep browsers from collapsing or
// wrapping literal blocks.
const (
	noBreakSpace  = " "
	noBreakHyphen = "‑"
)

// BuildOptions controls text handling during conversion.
type BuildOptions struct {
	// SmartPunctuation converts quotes, dashes, and ellipses in non-raw
	// text into typographic characters.
	SmartPunctuation bool
}

// Tree is the XML rendition of a source document.
type Tree struct {
	Doc *etree.Document

	// Template is the body of the last xsl-template field, if any.
	Template string

	// Multidoc is the instance-name expression carried over from the
	// source document.
	Multidoc string
}

// frame is one entry of the conversion context stack.
type frame struct {
	elem               *etree.Element
	raw                bool
	preserveWhitespace bool
}

// builder walks the source tree and emits XML. It is single-use.
type builder struct {
	opts     BuildOptions
	doc      *etree.Document
	root     *etree.Element
	stack    []frame
	template string
}

var _ doctree.Visitor = (*builder)(nil)

// Build converts a source document into an XML tree.
// The first node entered becomes the root element. Text under literal, raw,
// and option_string nodes is never normalized; literal_block text also keeps
// its whitespace and line breaks.
func Build(doc *doctree.Document, opts BuildOptions) (tree *Tree, err error) {
	if doc == nil || doc.Root == nil {
		return nil, ErrEmptyDocument
	}

	b := &builder{opts: opts, doc: etree.NewDocument()}

	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = fmt.Errorf("%w: %v", ErrMalformedTree, r)
		}
	}()

	doctree.Walk(doc.Root, b)

	if b.root == nil {
		return nil, ErrEmptyDocument
	}
	if len(b.stack) != 0 {
		return nil, fmt.Errorf("%w: %d unclosed elements", ErrMalformedTree, len(b.stack))
	}

	return &Tree{Doc: b.doc, Template: b.template, Multidoc: doc.Multidoc}, nil
}

func (b *builder) Enter(n *doctree.Node) doctree.WalkAction {
	switch n.Kind {
	case doctree.KindSystemMessage:
		return doctree.SkipNode
	case doctree.KindText:
		b.text(n.Text)
		return doctree.SkipNode
	case doctree.KindXMLFragment:
		if n.Fragment != nil {
			b.top().elem.AddChild(n.Fragment.Copy())
		}
		return doctree.SkipNode
	case doctree.KindPathReference:
		b.top().elem.CreateElement(ReferenceTag).SetText(n.Expr)
		return doctree.SkipNode
	case doctree.KindField:
		b.captureTemplate(n)
	}

	raw, preserve := rawFlags(n.Kind)
	b.push(n, raw, preserve)
	return doctree.Continue
}

func (b *builder) Exit(*doctree.Node) {
	if len(b.stack) == 0 {
		panic("exit without matching enter")
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// rawFlags reports the frame flags for a node kind.
func rawFlags(kind string) (raw, preserveWhitespace bool) {
	switch kind {
	case doctree.KindLiteralBlock:
		return true, true
	case doctree.KindLiteral, doctree.KindRaw, doctree.KindOptionString:
		return true, false
	}
	return false, false
}

func (b *builder) push(n *doctree.Node, raw, preserve bool) {
	var elem *etree.Element
	if b.root == nil {
		elem = etree.NewElement(n.Kind)
		b.doc.SetRoot(elem)
		b.root = elem
	} else {
		elem = b.top().elem.CreateElement(n.Kind)
	}

	for _, a := range n.Attrs {
		elem.CreateAttr(a.Name, attrValue(a))
	}

	b.stack = append(b.stack, frame{elem: elem, raw: raw, preserveWhitespace: preserve})
}

func (b *builder) top() frame {
	if len(b.stack) == 0 {
		panic("content outside of the root element")
	}
	return b.stack[len(b.stack)-1]
}

// captureTemplate records the stylesheet named by an xsl-template field.
func (b *builder) captureTemplate(n *doctree.Node) {
	name := n.FirstChild(doctree.KindFieldName)
	if name == nil || name.AsText() != TemplateField {
		return
	}
	if body := n.FirstChild(doctree.KindFieldBody); body != nil {
		b.template = body.AsText()
	}
}

func (b *builder) text(text string) {
	f := b.top()

	if b.opts.SmartPunctuation && !f.raw {
		text = smartpunct.Normalize(text)
	}

	if !f.preserveWhitespace {
		appendText(f.elem, text)
		return
	}

	text = strings.ReplaceAll(text, " ", noBreakSpace)
	text = strings.ReplaceAll(text, "-", noBreakHyphen)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			f.elem.CreateElement(lineBreakTag)
		}
		appendText(f.elem, line)
	}
}

// appendText adds text after the last child of elem, merging with a
// trailing text token so XPath sees a single text node.
func appendText(elem *etree.Element, text string) {
	if text == "" {
		return
	}
	if n := len(elem.Child); n > 0 {
		if cd, ok := elem.Child[n-1].(*etree.CharData); ok && !cd.IsCData() {
			cd.Data += text
			return
		}
	}
	elem.CreateText(text)
}

// attrValue renders an attribute. List items are escaped so the joined
// value can be split back unambiguously.
func attrValue(a doctree.Attr) string {
	if !a.List {
		return a.Value
	}
	items := make([]string, len(a.Values))
	for i, v := range a.Values {
		v = strings.ReplaceAll(v, `\`, `\\`)
		items[i] = strings.ReplaceAll(v, " ", `\ `)
	}
	return strings.Join(items, " ")
}
