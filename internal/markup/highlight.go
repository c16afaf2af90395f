package markup

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter renders source code as HTML wrapped in a code element.
// Without a style, tokens carry CSS classes; with one, inline styles.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter returns a highlighter. An empty or unknown style name
// selects class-based output.
func NewHighlighter(style string) *Highlighter {
	if style != "" {
		if s, ok := styles.Registry[strings.ToLower(style)]; ok {
			return &Highlighter{
				style:     s,
				formatter: chromahtml.New(chromahtml.PreventSurroundingPre(true)),
			}
		}
	}
	return &Highlighter{
		style: styles.Fallback,
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Lexer returns the lexer for a language name or alias, falling back to
// matching a file name when language is empty.
func Lexer(language, filename string) (chroma.Lexer, error) {
	var lexer chroma.Lexer
	switch {
	case language != "":
		lexer = lexers.Get(language)
	case filename != "":
		lexer = lexers.Match(filename)
	}
	if lexer == nil {
		name := language
		if name == "" {
			name = filename
		}
		return nil, fmt.Errorf("%w %q", ErrUnknownLexer, name)
	}
	return chroma.Coalesce(lexer), nil
}

// Render highlights code with lexer.
func (h *Highlighter) Render(lexer chroma.Lexer, code string) (string, error) {
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("<code>")
	if err := h.formatter.Format(&sb, h.style, iterator); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	sb.WriteString("</code>\n")
	return sb.String(), nil
}
