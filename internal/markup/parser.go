// Package markup parses the source document dialect into a doctree.
//
// The dialect is CommonMark (parsed with goldmark) extended with the
// restructured-text constructs stylesheets rely on:
//   - field lists: paragraphs whose every line reads ":name: value"
//   - the :xpath:`expr` role for deferred references
//   - fenced directives: ```pyxslt, ```code-block, and ```raw
//
// Headings open nested sections the way docutils does, so the resulting
// tree matches the docutils XML vocabulary.
package markup

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/alnah/go-mdxsl/internal/doctree"
	"github.com/alnah/go-mdxsl/internal/extfunc"
)

// fieldPattern matches one line of a field list.
var fieldPattern = regexp.MustCompile(`^:([A-Za-z][A-Za-z0-9_-]*):(?:[ \t]+(.*))?$`)

// Options configures a Parser.
type Options struct {
	// Functions are callable from pyxslt directives.
	Functions *extfunc.Registry

	// Cookie is passed unchanged to every extension function.
	Cookie any

	// HighlightStyle selects inline-styled code highlighting; empty means
	// CSS classes.
	HighlightStyle string
}

// Parser converts source documents into doctrees. A Parser may be reused
// but is not safe for concurrent use.
type Parser struct {
	md          goldmark.Markdown
	opts        Options
	highlighter *Highlighter
}

// Result is a parsed document with its recoverable diagnostics.
type Result struct {
	Document    *doctree.Document
	Diagnostics []Diagnostic
}

// NewParser returns a parser configured with opts.
func NewParser(opts Options) *Parser {
	return &Parser{
		md:          goldmark.New(goldmark.WithExtensions(Roles)),
		opts:        opts,
		highlighter: NewHighlighter(opts.HighlightStyle),
	}
}

// Parse converts src into a document tree. sourcePath names the document
// in diagnostics and anchors relative file references; it may be empty.
// Fatal diagnostics are returned as a *ParseError.
func (p *Parser) Parse(ctx context.Context, src []byte, sourcePath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baseDir := "."
	if sourcePath != "" {
		if abs, err := filepath.Abs(sourcePath); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}

	src = normalizeSource(src)

	c := &converter{
		p:       p,
		ctx:     extfunc.WithBaseDir(ctx, baseDir),
		src:     src,
		source:  sourcePath,
		baseDir: baseDir,
		doc:     &doctree.Document{Source: sourcePath},
		ids:     make(map[string]int),
	}

	root := p.md.Parser().Parse(text.NewReader(src))
	c.doc.Root = c.document(root)

	var fatal bool
	for _, d := range c.diags {
		if d.Fatal {
			fatal = true
			break
		}
	}
	if fatal {
		return nil, &ParseError{Source: sourcePath, Diagnostics: c.diags}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{Document: c.doc, Diagnostics: c.diags}, nil
}

// converter holds the state of one Parse call.
type converter struct {
	p       *Parser
	ctx     context.Context
	src     []byte
	source  string
	baseDir string
	doc     *doctree.Document
	diags   []Diagnostic
	ids     map[string]int
}

// sectionEntry is one level of the open-section stack.
type sectionEntry struct {
	node  *doctree.Node
	level int
}

func (c *converter) document(root ast.Node) *doctree.Node {
	docNode := doctree.NewNode(doctree.KindDocument)
	if c.source != "" {
		docNode.SetAttr("source", c.source)
	}

	// Level 0 is the document; headings nest under the closest lower level.
	stack := []sectionEntry{{node: docNode, level: 0}}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			section := c.section(h)
			stack[len(stack)-1].node.Append(section)
			stack = append(stack, sectionEntry{node: section, level: h.Level})
			continue
		}
		appendBlock(stack[len(stack)-1].node, c.block(n)...)
	}
	return docNode
}

func (c *converter) section(h *ast.Heading) *doctree.Node {
	title := doctree.NewNode(doctree.KindTitle, c.inlines(h, c.src)...)
	name := normalizeName(title.AsText())

	section := doctree.NewNode(doctree.KindSection, title)
	section.SetListAttr("ids", c.uniqueID(name))
	section.SetListAttr("names", name)
	section.Line = c.lineOf(h)
	return section
}

// appendBlock adds converted blocks to parent, merging adjacent field lists.
func appendBlock(parent *doctree.Node, blocks ...*doctree.Node) {
	for _, b := range blocks {
		if b.Kind == doctree.KindFieldList && len(parent.Children) > 0 {
			last := parent.Children[len(parent.Children)-1]
			if last.Kind == doctree.KindFieldList {
				last.Append(b.Children...)
				continue
			}
		}
		parent.Append(b)
	}
}

// block converts one block node. Directives may expand to zero or more
// nodes.
func (c *converter) block(n ast.Node) []*doctree.Node {
	switch b := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if fl := c.fieldList(n); fl != nil {
			return []*doctree.Node{fl}
		}
		p := doctree.NewNode(doctree.KindParagraph, c.inlines(n, c.src)...)
		p.Line = c.lineOf(n)
		return []*doctree.Node{p}

	case *ast.Heading:
		// Headings below the top level cannot open sections.
		p := doctree.NewNode(doctree.KindParagraph,
			doctree.NewNode(doctree.KindStrong, c.inlines(b, c.src)...))
		return []*doctree.Node{p}

	case *ast.ThematicBreak:
		return []*doctree.Node{doctree.NewNode(doctree.KindTransition)}

	case *ast.Blockquote:
		return []*doctree.Node{c.container(doctree.KindBlockQuote, b)}

	case *ast.List:
		return []*doctree.Node{c.list(b)}

	case *ast.FencedCodeBlock:
		return c.fenced(b)

	case *ast.CodeBlock:
		return []*doctree.Node{literalBlock(linesText(b, c.src), "")}

	case *ast.HTMLBlock:
		raw := doctree.NewNode(doctree.KindRaw, doctree.NewText(htmlBlockText(b, c.src)))
		raw.SetAttr("format", "html")
		raw.SetAttr("xml:space", "preserve")
		return []*doctree.Node{raw}
	}

	// Unknown block kinds keep their text.
	if t := strings.TrimSpace(linesText(n, c.src)); t != "" {
		return []*doctree.Node{doctree.NewNode(doctree.KindParagraph, doctree.NewText(t))}
	}
	return nil
}

func (c *converter) container(kind string, n ast.Node) *doctree.Node {
	node := doctree.NewNode(kind)
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		appendBlock(node, c.block(child)...)
	}
	return node
}

func (c *converter) list(l *ast.List) *doctree.Node {
	var node *doctree.Node
	if l.IsOrdered() {
		node = doctree.NewNode(doctree.KindEnumeratedList)
		node.SetAttr("enumtype", "arabic")
		node.SetAttr("prefix", "")
		node.SetAttr("suffix", string(l.Marker))
		if l.Start > 1 {
			node.SetAttr("start", strconv.Itoa(l.Start))
		}
	} else {
		node = doctree.NewNode(doctree.KindBulletList)
		node.SetAttr("bullet", string(l.Marker))
	}

	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		node.Append(c.container(doctree.KindListItem, item))
	}
	return node
}

// fieldList converts a paragraph made only of ":name: value" lines.
func (c *converter) fieldList(n ast.Node) *doctree.Node {
	lines := n.Lines()
	if lines.Len() == 0 {
		return nil
	}

	type field struct{ name, value string }
	fields := make([]field, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(c.src)), "\r\n")
		m := fieldPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			return nil
		}
		fields = append(fields, field{name: m[1], value: strings.TrimSpace(m[2])})
	}

	list := doctree.NewNode(doctree.KindFieldList)
	list.Line = c.lineOf(n)
	for _, f := range fields {
		body := doctree.NewNode(doctree.KindFieldBody)
		if f.value != "" {
			body.Append(c.inlineParagraph(f.value))
		}
		list.Append(doctree.NewNode(doctree.KindField,
			doctree.NewNode(doctree.KindFieldName, doctree.NewText(f.name)),
			body,
		))
	}
	return list
}

// inlineParagraph parses value as inline markup in a paragraph of its own.
func (c *converter) inlineParagraph(value string) *doctree.Node {
	src := []byte(value)
	root := c.p.md.Parser().Parse(text.NewReader(src))
	para := doctree.NewNode(doctree.KindParagraph)
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		para.Append(c.inlines(n, src)...)
	}
	return para
}

// inlines converts the inline children of n.
func (c *converter) inlines(n ast.Node, src []byte) []*doctree.Node {
	var out []*doctree.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.inline(child, src)...)
	}
	return mergeText(out)
}

func (c *converter) inline(n ast.Node, src []byte) []*doctree.Node {
	switch t := n.(type) {
	case *ast.Text:
		s := string(t.Segment.Value(src))
		if t.SoftLineBreak() || t.HardLineBreak() {
			s += "\n"
		}
		return []*doctree.Node{doctree.NewText(s)}

	case *ast.String:
		return []*doctree.Node{doctree.NewText(string(t.Value))}

	case *ast.Emphasis:
		kind := doctree.KindEmphasis
		if t.Level >= 2 {
			kind = doctree.KindStrong
		}
		return []*doctree.Node{doctree.NewNode(kind, c.inlines(t, src)...)}

	case *ast.CodeSpan:
		return []*doctree.Node{doctree.NewNode(doctree.KindLiteral, doctree.NewText(plainText(t, src)))}

	case *ast.Link:
		ref := doctree.NewNode(doctree.KindReference, c.inlines(t, src)...)
		ref.SetAttr("name", normalizeName(ref.AsText()))
		ref.SetAttr("refuri", string(t.Destination))
		if len(t.Title) > 0 {
			ref.SetAttr("title", string(t.Title))
		}
		return []*doctree.Node{ref}

	case *ast.AutoLink:
		url := string(t.URL(src))
		ref := doctree.NewNode(doctree.KindReference, doctree.NewText(string(t.Label(src))))
		ref.SetAttr("refuri", url)
		return []*doctree.Node{ref}

	case *ast.Image:
		img := doctree.NewNode(doctree.KindImage)
		img.SetAttr("uri", string(t.Destination))
		if alt := plainText(t, src); alt != "" {
			img.SetAttr("alt", alt)
		}
		return []*doctree.Node{img}

	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < t.Segments.Len(); i++ {
			seg := t.Segments.At(i)
			buf.Write(seg.Value(src))
		}
		raw := doctree.NewNode(doctree.KindRaw, doctree.NewText(buf.String()))
		raw.SetAttr("format", "html")
		return []*doctree.Node{raw}

	case *PathRef:
		return []*doctree.Node{doctree.NewPathReference(t.Expr)}
	}

	return c.inlines(n, src)
}

// mergeText joins adjacent text leaves.
func mergeText(nodes []*doctree.Node) []*doctree.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == doctree.KindText && len(out) > 0 && out[len(out)-1].Kind == doctree.KindText {
			out[len(out)-1].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}

// plainText returns the text content of an inline subtree.
func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(plainText(child, src))
		}
	}
	return buf.String()
}

// linesText concatenates the source lines of a block.
func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

func htmlBlockText(b *ast.HTMLBlock, src []byte) string {
	s := linesText(b, src)
	if b.HasClosure() {
		s += string(b.ClosureLine.Value(src))
	}
	return strings.TrimRight(s, "\n")
}

// literalBlock builds a preformatted block. Trailing newlines are dropped
// so the last line does not produce an empty line break.
func literalBlock(content, language string) *doctree.Node {
	lb := doctree.NewNode(doctree.KindLiteralBlock, doctree.NewText(strings.TrimRight(content, "\n")))
	lb.SetAttr("xml:space", "preserve")
	if language != "" {
		lb.SetListAttr("classes", "code", language)
		lb.SetAttr("language", language)
	}
	return lb
}

// normalizeName lowercases and collapses whitespace, as docutils does for
// reference names.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var idInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// uniqueID derives an identifier from a name, numbering repeats.
func (c *converter) uniqueID(name string) string {
	id := strings.Trim(idInvalid.ReplaceAllString(name, "-"), "-")
	if id == "" {
		id = "section"
	}
	n := c.ids[id]
	c.ids[id] = n + 1
	if n == 0 {
		return id
	}
	return fmt.Sprintf("%s-%d", id, n)
}

// lineOf returns the 1-based source line of a block node.
func (c *converter) lineOf(n ast.Node) int {
	if n.Type() != ast.TypeBlock {
		return 0
	}
	lines := n.Lines()
	if lines.Len() == 0 {
		return 0
	}
	return lineAt(c.src, lines.At(0).Start)
}

func lineAt(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}
