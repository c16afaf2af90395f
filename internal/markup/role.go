package markup

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// XPathRole is the interpreted-text role for deferred references:
//
//	The total is :xpath:`invoice/total`.
const XPathRole = "xpath"

// PathRef is an inline node holding an unresolved XPath expression.
type PathRef struct {
	ast.BaseInline
	Expr string
}

// KindPathRef is the NodeKind of PathRef.
var KindPathRef = ast.NewNodeKind("PathRef")

// Kind implements ast.Node.
func (n *PathRef) Kind() ast.NodeKind {
	return KindPathRef
}

// Dump implements ast.Node.
func (n *PathRef) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Expr": n.Expr}, nil)
}

var rolePattern = regexp.MustCompile("^:" + XPathRole + ":`([^`]+)`")

type pathRefParser struct{}

// Trigger implements parser.InlineParser.
func (p *pathRefParser) Trigger() []byte {
	return []byte{':'}
}

// Parse implements parser.InlineParser.
func (p *pathRefParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	m := rolePattern.FindSubmatch(line)
	if m == nil {
		return nil
	}
	block.Advance(len(m[0]))
	return &PathRef{Expr: string(m[1])}
}

type roles struct{}

// Roles adds the :xpath: role to a goldmark instance.
var Roles goldmark.Extender = &roles{}

func (e *roles) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&pathRefParser{}, 90),
		),
	)
}
