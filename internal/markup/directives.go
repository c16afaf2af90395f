package markup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/alnah/go-mdxsl/internal/doctree"
	"github.com/alnah/go-mdxsl/internal/extfunc"
	"github.com/alnah/go-mdxsl/internal/pipeline"
)

// Directive names recognized in a fenced block's info string.
const (
	DirectivePyxslt    = "pyxslt"
	DirectiveCodeBlock = "code-block"
	DirectiveRaw       = "raw"
)

// Control arguments of the pyxslt directive. They are consumed by the
// directive and never passed to the function.
const (
	argClass    = "class"
	argMultidoc = "multidoc"
)

var (
	// argPattern matches a pyxslt keyword argument.
	argPattern = regexp.MustCompile(`^:([A-Za-z][A-Za-z0-9_]*):\s*(.*)$`)

	// optionPattern matches a code-block option; names may contain hyphens.
	optionPattern = regexp.MustCompile(`^:([A-Za-z][A-Za-z0-9_-]*):\s*(.*)$`)
)

// directive is a fenced block whose info string names a directive.
type directive struct {
	name  string
	args  []string
	lines []string
	line  int
	block string
}

func (c *converter) fenced(b *ast.FencedCodeBlock) []*doctree.Node {
	var info string
	line := c.lineOf(b)
	if b.Info != nil {
		info = strings.TrimSpace(string(b.Info.Segment.Value(c.src)))
		line = lineAt(c.src, b.Info.Segment.Start)
	} else if line > 1 {
		line--
	}

	content := linesText(b, c.src)
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return []*doctree.Node{literalBlock(content, "")}
	}

	d := directive{
		name:  fields[0],
		args:  fields[1:],
		lines: strings.Split(strings.TrimRight(content, "\n"), "\n"),
		line:  line,
		block: "```" + info + "\n" + content + "```",
	}
	if content == "" {
		d.lines = nil
	}

	switch d.name {
	case DirectivePyxslt:
		return c.pyxslt(d)
	case DirectiveCodeBlock:
		return c.codeBlock(d)
	case DirectiveRaw:
		return c.raw(d, content)
	}
	return []*doctree.Node{literalBlock(content, fields[0])}
}

// pyxslt calls an extension function and embeds its serialized result.
//
//	```pyxslt people
//	:db: team.db
//	:class: roster
//	:multidoc: row/name
//	```
func (c *converter) pyxslt(d directive) []*doctree.Node {
	if len(d.args) != 1 {
		return c.fatal(d, ErrDirectiveArgument, "pyxslt directive needs exactly one function name")
	}
	method := d.args[0]

	args := make(map[string]string)
	for _, l := range d.lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		m := argPattern.FindStringSubmatch(strings.TrimSpace(l))
		if m == nil {
			return c.fatal(d, ErrDirectiveArgument, "Invalid function argument: "+strings.TrimSpace(l))
		}
		args[m[1]] = strings.TrimSpace(m[2])
	}

	class, hasClass := args[argClass]
	delete(args, argClass)

	designation, isMultidoc := args[argMultidoc]
	delete(args, argMultidoc)
	if isMultidoc {
		if c.doc.Multidoc != "" {
			return c.fatal(d, ErrDuplicateMultidoc, "There can only be one multidoc directive in the document.")
		}
		if designation == "" {
			return c.fatal(d, ErrDirectiveArgument, "multidoc needs an instance name expression")
		}
	}

	fn, err := c.p.opts.Functions.Lookup(method)
	if err != nil {
		return c.recoverable(d, err, fmt.Sprintf("Cannot find function %s.", method))
	}

	result, err := fn(c.ctx, c.p.opts.Cookie, args)
	if err != nil {
		return c.recoverable(d, err, fmt.Sprintf("Error executing function %s: %v", method, err))
	}

	if isMultidoc && !extfunc.IsSequence(result) {
		return c.fatal(d, ErrMultidocResultType,
			fmt.Sprintf("multidoc results must be a sequence, not %T.", result))
	}

	frag, err := extfunc.Serialize(result)
	if err != nil {
		return c.recoverable(d, err, fmt.Sprintf("Cannot serialize result of %s: %v", method, err))
	}

	frag.CreateAttr("method", method)
	if hasClass && class != "" {
		frag.CreateAttr(argClass, class)
	}
	if isMultidoc {
		frag.CreateAttr(pipeline.MultidocAttr, "true")
		c.doc.Multidoc = designation
	}

	node := doctree.NewFragment(frag)
	node.Line = d.line
	return []*doctree.Node{node}
}

// codeBlock renders highlighted source, inline or from a file.
//
//	```code-block go
//	:source-file: ../main.go
//	```
func (c *converter) codeBlock(d directive) []*doctree.Node {
	options, body := splitOptions(d.lines)

	language := options["language"]
	if len(d.args) > 0 {
		language = d.args[0]
	}
	sourceFile, hasSource := options["source-file"]

	code := strings.Join(body, "\n")
	if strings.TrimSpace(code) != "" && hasSource {
		return c.recoverable(d, ErrConflictingContent, "Must specify a source-file or provide content, not both.")
	}

	if strings.TrimSpace(code) == "" {
		if !hasSource {
			return nil
		}
		path := sourceFile
		if !filepath.IsAbs(path) {
			path = filepath.Clean(filepath.Join(c.baseDir, path))
		}
		data, err := os.ReadFile(path) // #nosec G304 -- path chosen by the document author
		if err != nil {
			return c.recoverable(d, err, fmt.Sprintf("Could not read file %s.", path))
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight(l, " \t\r")
		}
		code = strings.Join(lines, "\n")
	}

	lexer, err := Lexer(language, sourceFile)
	if err != nil {
		return c.recoverable(d, err, fmt.Sprintf("No lexer found for language %q.", language))
	}

	html, err := c.p.highlighter.Render(lexer, code)
	if err != nil {
		return c.recoverable(d, err, err.Error())
	}

	raw := doctree.NewNode(doctree.KindRaw, doctree.NewText(html))
	raw.SetAttr("format", "html")
	raw.SetAttr("xml:space", "preserve")
	raw.Line = d.line
	return []*doctree.Node{raw}
}

// raw passes content through untouched for the named output format.
func (c *converter) raw(d directive, content string) []*doctree.Node {
	if len(d.args) == 0 {
		return c.recoverable(d, ErrDirectiveArgument, "raw directive needs an output format")
	}
	raw := doctree.NewNode(doctree.KindRaw, doctree.NewText(strings.TrimRight(content, "\n")))
	raw.SetAttr("format", strings.Join(d.args, " "))
	raw.SetAttr("xml:space", "preserve")
	raw.Line = d.line
	return []*doctree.Node{raw}
}

// splitOptions separates leading ":name: value" lines from the content
// that follows them. One blank line after the options is dropped.
func splitOptions(lines []string) (map[string]string, []string) {
	options := make(map[string]string)
	i := 0
	for ; i < len(lines); i++ {
		m := optionPattern.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			break
		}
		options[m[1]] = strings.TrimSpace(m[2])
	}
	if i > 0 && i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return options, lines[i:]
}

// recoverable records an error and returns a system_message in place of
// the directive output.
func (c *converter) recoverable(d directive, err error, msg string) []*doctree.Node {
	c.diags = append(c.diags, Diagnostic{
		Source:  c.source,
		Line:    d.line,
		Level:   LevelError,
		Message: msg,
		Err:     err,
	})
	return []*doctree.Node{c.systemMessage(d, LevelError, msg)}
}

// fatal records an error that aborts the parse.
func (c *converter) fatal(d directive, err error, msg string) []*doctree.Node {
	c.diags = append(c.diags, Diagnostic{
		Source:  c.source,
		Line:    d.line,
		Level:   LevelSevere,
		Message: msg,
		Err:     err,
		Fatal:   true,
	})
	return []*doctree.Node{c.systemMessage(d, LevelSevere, msg)}
}

func (c *converter) systemMessage(d directive, level Level, msg string) *doctree.Node {
	n := doctree.NewNode(doctree.KindSystemMessage,
		doctree.NewNode(doctree.KindParagraph, doctree.NewText(msg)),
		literalBlock(d.block, ""),
	)
	n.SetAttr("level", strconv.Itoa(int(level)))
	n.SetAttr("type", level.String())
	if d.line > 0 {
		n.SetAttr("line", strconv.Itoa(d.line))
	}
	if c.source != "" {
		n.SetAttr("source", c.source)
	}
	n.Line = d.line
	return n
}

// IsFatal reports whether err came from a fatal parse diagnostic.
func IsFatal(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
