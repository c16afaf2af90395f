package markup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-mdxsl/internal/doctree"
	"github.com/alnah/go-mdxsl/internal/extfunc"
)

// recorder is an extension function that remembers its last call.
type recorder struct {
	mu      sync.Mutex
	args    map[string]string
	cookie  any
	baseDir string
	result  any
	err     error
}

func (r *recorder) call(ctx context.Context, cookie any, args map[string]string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.args = args
	r.cookie = cookie
	r.baseDir = extfunc.BaseDir(ctx)
	return r.result, r.err
}

func newParser(t *testing.T, fns map[string]extfunc.Func) *Parser {
	t.Helper()

	reg := extfunc.NewRegistry()
	for name, fn := range fns {
		if err := reg.Register(name, fn); err != nil {
			t.Fatalf("Register(%q) error = %v", name, err)
		}
	}
	return NewParser(Options{Functions: reg, Cookie: "cookie"})
}

// ---------------------------------------------------------------------------
// TestPyxslt - Function Directive
// ---------------------------------------------------------------------------

func TestPyxslt(t *testing.T) {
	t.Parallel()

	rec := &recorder{result: []any{"ann", "bob"}}
	p := newParser(t, map[string]extfunc.Func{"people": rec.call})

	src := "```pyxslt people\n:team: core\n\n:class: roster\n```\n"
	res, err := p.Parse(context.Background(), []byte(src), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	frag := findOne(t, res.Document.Root, doctree.KindXMLFragment)
	if frag.Fragment == nil {
		t.Fatal("fragment element is nil")
	}
	if got := frag.Fragment.SelectAttrValue("method", ""); got != "people" {
		t.Errorf("method = %q, want people", got)
	}
	if got := frag.Fragment.SelectAttrValue("class", ""); got != "roster" {
		t.Errorf("class = %q, want roster", got)
	}
	if items := frag.Fragment.SelectElements("item"); len(items) != 2 {
		t.Errorf("item count = %d, want 2", len(items))
	}

	if !reflect.DeepEqual(rec.args, map[string]string{"team": "core"}) {
		t.Errorf("function args = %v, want only team", rec.args)
	}
	if rec.cookie != "cookie" {
		t.Errorf("cookie = %v", rec.cookie)
	}
	if res.Document.Multidoc != "" {
		t.Errorf("Multidoc = %q, want empty", res.Document.Multidoc)
	}
}

func TestPyxslt_Multidoc(t *testing.T) {
	t.Parallel()

	rec := &recorder{result: []any{"a", "b"}}
	p := newParser(t, map[string]extfunc.Func{"list": rec.call})

	res, err := p.Parse(context.Background(), []byte("```pyxslt list\n:multidoc: string(.)\n```\n"), "")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if res.Document.Multidoc != "string(.)" {
		t.Errorf("Multidoc = %q, want string(.)", res.Document.Multidoc)
	}
	frag := findOne(t, res.Document.Root, doctree.KindXMLFragment)
	if got := frag.Fragment.SelectAttrValue("multidoc", ""); got != "true" {
		t.Errorf("multidoc attr = %q, want true", got)
	}
	if _, ok := rec.args["multidoc"]; ok {
		t.Error("multidoc control argument passed to function")
	}
}

func TestPyxslt_BaseDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &recorder{result: "ok"}
	p := newParser(t, map[string]extfunc.Func{"f": rec.call})

	_, err := p.Parse(context.Background(), []byte("```pyxslt f\n```\n"), filepath.Join(dir, "doc.md"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rec.baseDir != dir {
		t.Errorf("BaseDir = %q, want %q", rec.baseDir, dir)
	}
}

// ---------------------------------------------------------------------------
// TestPyxslt_Recoverable - system_message Output
// ---------------------------------------------------------------------------

func TestPyxslt_Recoverable(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := &recorder{err: boom}
	unsupported := &recorder{result: make(chan int)}

	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"unknown function", "```pyxslt missing\n```\n", extfunc.ErrUnknownFunction},
		{"function error", "```pyxslt failing\n```\n", boom},
		{"unserializable result", "```pyxslt unsupported\n```\n", extfunc.ErrUnsupportedValue},
	}

	p := newParser(t, map[string]extfunc.Func{
		"failing":     failing.call,
		"unsupported": unsupported.call,
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := p.Parse(context.Background(), []byte("Before.\n\n"+tt.src), "doc.md")
			if err != nil {
				t.Fatalf("Parse() error = %v, want recoverable", err)
			}
			if len(res.Diagnostics) != 1 {
				t.Fatalf("diagnostics = %d, want 1", len(res.Diagnostics))
			}
			d := res.Diagnostics[0]
			if !errors.Is(d.Err, tt.wantErr) {
				t.Errorf("diagnostic error = %v, want %v", d.Err, tt.wantErr)
			}
			if d.Fatal || d.Level != LevelError {
				t.Errorf("diagnostic = %+v, want recoverable error", d)
			}

			msg := findOne(t, res.Document.Root, doctree.KindSystemMessage)
			if got := attr(msg, "type"); got != "ERROR" {
				t.Errorf("type = %q, want ERROR", got)
			}
			if got := attr(msg, "line"); got != "3" {
				t.Errorf("line = %q, want 3", got)
			}
			if got := attr(msg, "source"); got != "doc.md" {
				t.Errorf("source = %q", got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPyxslt_Fatal - Aborting Errors
// ---------------------------------------------------------------------------

func TestPyxslt_Fatal(t *testing.T) {
	t.Parallel()

	scalar := &recorder{result: "not a list"}
	list := &recorder{result: []any{"x"}}

	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"missing name", "```pyxslt\n```\n", ErrDirectiveArgument},
		{"invalid argument line", "```pyxslt list\nnot an argument\n```\n", ErrDirectiveArgument},
		{"empty multidoc", "```pyxslt list\n:multidoc:\n```\n", ErrDirectiveArgument},
		{"non-sequence multidoc", "```pyxslt scalar\n:multidoc: .\n```\n", ErrMultidocResultType},
		{
			"duplicate multidoc",
			"```pyxslt list\n:multidoc: .\n```\n\n```pyxslt list\n:multidoc: .\n```\n",
			ErrDuplicateMultidoc,
		},
	}

	p := newParser(t, map[string]extfunc.Func{"scalar": scalar.call, "list": list.call})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := p.Parse(context.Background(), []byte(tt.src), "")
			if err == nil {
				t.Fatalf("Parse() = %+v, want error", res)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrSourceParse) {
				t.Errorf("Parse() error = %v, want ErrSourceParse", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCodeBlock - Highlighted Source
// ---------------------------------------------------------------------------

func TestCodeBlock(t *testing.T) {
	t.Parallel()

	res := parse(t, NewParser(Options{}), "```code-block go\nfunc main() {}\n```\n")
	raw := findOne(t, res.Document.Root, doctree.KindRaw)

	if got := attr(raw, "format"); got != "html" {
		t.Errorf("format = %q, want html", got)
	}
	html := raw.AsText()
	if !strings.HasPrefix(html, "<code>") || !strings.Contains(html, "main") {
		t.Errorf("highlighted output = %q", html)
	}
	if !strings.Contains(html, `class="`) {
		t.Errorf("default highlighting should use classes: %q", html)
	}
}

func TestCodeBlock_LanguageOption(t *testing.T) {
	t.Parallel()

	res := parse(t, NewParser(Options{}), "```code-block\n:language: python\n\nprint(1)\n```\n")
	raw := findOne(t, res.Document.Root, doctree.KindRaw)
	if !strings.Contains(raw.AsText(), "print") {
		t.Errorf("output = %q", raw.AsText())
	}
	if strings.Contains(raw.AsText(), ":language:") {
		t.Error("option line leaked into highlighted content")
	}
}

func TestCodeBlock_SourceFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	code := "package main   \n\nfunc main() {}\n"
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(code), 0o600); err != nil {
		t.Fatal(err)
	}

	src := "```code-block go\n:source-file: main.go\n```\n"
	res, err := NewParser(Options{}).Parse(context.Background(), []byte(src), filepath.Join(dir, "doc.md"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", res.Diagnostics)
	}

	raw := findOne(t, res.Document.Root, doctree.KindRaw)
	if !strings.Contains(raw.AsText(), "package") {
		t.Errorf("file content not rendered: %q", raw.AsText())
	}
	if strings.Contains(raw.AsText(), "main   ") {
		t.Error("trailing whitespace kept")
	}
}

func TestCodeBlock_Recoverable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"content and file", "```code-block go\n:source-file: x.go\n\nx := 1\n```\n", ErrConflictingContent},
		{"missing file", "```code-block go\n:source-file: nowhere.go\n```\n", os.ErrNotExist},
		{"unknown lexer", "```code-block nosuchlanguage\ncode\n```\n", ErrUnknownLexer},
	}

	p := NewParser(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := p.Parse(context.Background(), []byte(tt.src), filepath.Join(t.TempDir(), "doc.md"))
			if err != nil {
				t.Fatalf("Parse() error = %v, want recoverable", err)
			}
			if len(res.Diagnostics) != 1 || !errors.Is(res.Diagnostics[0].Err, tt.wantErr) {
				t.Fatalf("diagnostics = %+v, want %v", res.Diagnostics, tt.wantErr)
			}
			findOne(t, res.Document.Root, doctree.KindSystemMessage)
		})
	}
}

// ---------------------------------------------------------------------------
// TestRaw - Passthrough Directive
// ---------------------------------------------------------------------------

func TestRaw(t *testing.T) {
	t.Parallel()

	res := parse(t, NewParser(Options{}), "```raw html\n<b>kept</b>\n```\n")
	raw := findOne(t, res.Document.Root, doctree.KindRaw)

	if got := attr(raw, "format"); got != "html" {
		t.Errorf("format = %q", got)
	}
	if got := raw.AsText(); got != "<b>kept</b>" {
		t.Errorf("content = %q", got)
	}
}

func TestRaw_MissingFormat(t *testing.T) {
	t.Parallel()

	res := parse(t, NewParser(Options{}), "```raw\n<b>x</b>\n```\n")
	if len(res.Diagnostics) != 1 || !errors.Is(res.Diagnostics[0].Err, ErrDirectiveArgument) {
		t.Errorf("diagnostics = %+v", res.Diagnostics)
	}
}

// ---------------------------------------------------------------------------
// TestHighlighter
// ---------------------------------------------------------------------------

func TestHighlighter_InlineStyle(t *testing.T) {
	t.Parallel()

	lexer, err := Lexer("go", "")
	if err != nil {
		t.Fatalf("Lexer() error = %v", err)
	}
	html, err := NewHighlighter("monokai").Render(lexer, "var x = 1")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(html, `style="`) {
		t.Errorf("named style should inline colors: %q", html)
	}
	if !strings.HasSuffix(html, "</code>\n") {
		t.Errorf("output not wrapped in code: %q", html)
	}
}

func TestLexer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		language string
		filename string
		wantErr  bool
	}{
		{"by name", "python", "", false},
		{"by alias", "py", "", false},
		{"by filename", "", "main.go", false},
		{"language wins", "go", "script.py", false},
		{"unknown", "nosuchlanguage", "", true},
		{"nothing", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Lexer(tt.language, tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lexer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownLexer) {
				t.Errorf("Lexer() error = %v, want ErrUnknownLexer", err)
			}
		})
	}
}
