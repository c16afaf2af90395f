package mdxsl_test

// Notes:
// - The xsltproc engine is replaced by fakeTransformer or Identity, so these
//   tests run without libxslt. Real engine runs live behind the integration
//   build tag.

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"

	"github.com/alnah/go-mdxsl"
)

// fakeTransformer records its inputs and returns a copy of the document.
type fakeTransformer struct {
	mu     sync.Mutex
	sheets []*mdxsl.Stylesheet
	params []map[string]string
	docs   []string
	err    error
	panic  bool
}

func (f *fakeTransformer) Transform(_ context.Context, doc *etree.Document, ss *mdxsl.Stylesheet, params map[string]string) (*etree.Document, error) {
	if f.panic {
		panic("engine exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	s, _ := doc.WriteToString()
	f.sheets = append(f.sheets, ss)
	f.params = append(f.params, params)
	f.docs = append(f.docs, s)
	if f.err != nil {
		return nil, f.err
	}
	return doc.Copy(), nil
}

// fakeRenderer returns a fixed PDF and counts Close calls.
type fakeRenderer struct {
	pages  int
	closed int
}

func (f *fakeRenderer) Render(_ context.Context, page []byte, _ string) ([]byte, error) {
	f.pages++
	return []byte("%PDF-" + string(rune('0'+f.pages))), nil
}

func (f *fakeRenderer) Close() error {
	f.closed++
	return nil
}

func newConverter(t *testing.T, opts ...mdxsl.Option) *mdxsl.Converter {
	t.Helper()

	conv, err := mdxsl.NewConverter(opts...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv
}

// dataFuncs registers "data", returning a fixed nested value, and "people",
// returning three records.
func dataFuncs(t *testing.T) *mdxsl.Registry {
	t.Helper()

	reg := mdxsl.NewRegistry()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(reg.Register("data", func(context.Context, any, map[string]string) (any, error) {
		return map[string]any{"foo": map[string]any{"bar": 42}}, nil
	}))
	must(reg.Register("people", func(context.Context, any, map[string]string) (any, error) {
		return []any{
			map[string]any{"name": "ann"},
			map[string]any{"name": "bob"},
			map[string]any{"name": "cid"},
		}, nil
	}))
	return reg
}

// ---------------------------------------------------------------------------
// TestConvert_XMLOnly - Identity Output
// ---------------------------------------------------------------------------

func TestConvert_XMLOnly(t *testing.T) {
	t.Parallel()

	conv := newConverter(t, mdxsl.WithTransformer(mdxsl.Identity{}))

	results, err := conv.Convert(context.Background(), mdxsl.Input{
		Source: []byte("# Title\n\nCaf\u00e9 \"quoted\" -- text.\n"),
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Name != "" {
		t.Errorf("Name = %q, want empty", results[0].Name)
	}

	xml := string(results[0].XML)
	if !strings.HasPrefix(xml, `<?xml version="1.0" encoding="ASCII"?>`) {
		t.Errorf("missing ASCII declaration: %s", xml)
	}
	for _, want := range []string{"<document", "<section", "<title>Title</title>", "Caf&#xE9;", "quoted", "-- text."} {
		if !strings.Contains(xml, want) {
			t.Errorf("output missing %q:\n%s", want, xml)
		}
	}
}

func TestConvert_SmartPunctuationAndEncoding(t *testing.T) {
	t.Parallel()

	conv := newConverter(t, mdxsl.WithTransformer(mdxsl.Identity{}))

	results, err := conv.Convert(context.Background(), mdxsl.Input{
		Source:           []byte("He said \"hi\" -- then left...\n\n    \"raw\" -- kept\n"),
		SmartPunctuation: true,
		Encoding:         "UTF-8",
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	xml := string(results[0].XML)
	if !strings.Contains(xml, "He said \u201chi\u201d \u2013 then left\u2026") {
		t.Errorf("text not normalized:\n%s", xml)
	}
	if !strings.Contains(xml, "raw") || !strings.Contains(xml, "\u2011\u2011\u00a0kept") || strings.Contains(xml, "\u201craw") {
		t.Errorf("literal block was normalized:\n%s", xml)
	}
	if !strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing UTF-8 declaration")
	}
}

// ---------------------------------------------------------------------------
// TestConvert_References - Deferred Resolution
// ---------------------------------------------------------------------------

func TestConvert_ResolvesReferences(t *testing.T) {
	t.Parallel()

	conv := newConverter(t,
		mdxsl.WithTransformer(mdxsl.Identity{}),
		mdxsl.WithFunctions(dataFuncs(t)),
	)

	src := "```pyxslt data\n```\n\nValue: :xpath:`foo/bar`.\n"
	results, err := conv.Convert(context.Background(), mdxsl.Input{Source: []byte(src)})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	xml := string(results[0].XML)
	if !strings.Contains(xml, "Value: 42.") {
		t.Errorf("reference not resolved:\n%s", xml)
	}
	if strings.Contains(xml, "pyxslt-xpath-reference") {
		t.Errorf("placeholder left in output:\n%s", xml)
	}
}

func TestConvert_UnresolvedReference(t *testing.T) {
	t.Parallel()

	conv := newConverter(t,
		mdxsl.WithTransformer(mdxsl.Identity{}),
		mdxsl.WithFunctions(dataFuncs(t)),
	)

	src := "```pyxslt data\n```\n\nValue: :xpath:`foo/missing`.\n"
	_, err := conv.Convert(context.Background(), mdxsl.Input{Source: []byte(src)})
	if !errors.Is(err, mdxsl.ErrUnresolvedReference) {
		t.Fatalf("Convert() error = %v, want ErrUnresolvedReference", err)
	}

	var ure *mdxsl.UnresolvedReferenceError
	if !errors.As(err, &ure) {
		t.Fatalf("error %T is not an UnresolvedReferenceError", err)
	}
	if ure.Expr != "foo/missing" {
		t.Errorf("Expr = %q, want foo/missing", ure.Expr)
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Multidoc - One Result per Instance
// ---------------------------------------------------------------------------

func TestConvert_Multidoc(t *testing.T) {
	t.Parallel()

	fake := &fakeTransformer{}
	conv := newConverter(t,
		mdxsl.WithTransformer(fake),
		mdxsl.WithFunctions(dataFuncs(t)),
	)

	src := "```pyxslt people\n:multidoc: item/name\n```\n\nHello :xpath:`item/name`.\n"
	results, err := conv.Convert(context.Background(), mdxsl.Input{
		Source:   []byte(src),
		Template: "xhtml",
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	wantNames := []string{"ann", "bob", "cid"}
	if len(results) != len(wantNames) {
		t.Fatalf("got %d results, want %d", len(results), len(wantNames))
	}
	for i, want := range wantNames {
		if results[i].Name != want {
			t.Errorf("results[%d].Name = %q, want %q", i, results[i].Name, want)
		}
		// Each instance resolves against its own record only.
		if !strings.Contains(string(results[i].XML), "Hello "+want+".") {
			t.Errorf("instance %s output:\n%s", want, results[i].XML)
		}
		for _, other := range wantNames {
			if other != want && strings.Contains(string(results[i].XML), "<name>"+other+"</name>") {
				t.Errorf("instance %s contains record %s", want, other)
			}
		}
	}
	if len(fake.docs) != 3 {
		t.Errorf("transformer called %d times, want 3", len(fake.docs))
	}
}

func TestConvert_MultidocResultType(t *testing.T) {
	t.Parallel()

	conv := newConverter(t,
		mdxsl.WithTransformer(mdxsl.Identity{}),
		mdxsl.WithFunctions(dataFuncs(t)),
	)

	src := "```pyxslt data\n:multidoc: foo\n```\n"
	_, err := conv.Convert(context.Background(), mdxsl.Input{Source: []byte(src)})
	if !errors.Is(err, mdxsl.ErrMultidocResultType) {
		t.Errorf("Convert() error = %v, want ErrMultidocResultType", err)
	}
	if !errors.Is(err, mdxsl.ErrSourceParse) {
		t.Errorf("Convert() error = %v, want ErrSourceParse", err)
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Stylesheet - Template Selection
// ---------------------------------------------------------------------------

func TestConvert_NoTemplate(t *testing.T) {
	t.Parallel()

	conv := newConverter(t, mdxsl.WithTransformer(&fakeTransformer{}))
	_, err := conv.Convert(context.Background(), mdxsl.Input{Source: []byte("text\n")})
	if !errors.Is(err, mdxsl.ErrNoTemplate) {
		t.Errorf("Convert() error = %v, want ErrNoTemplate", err)
	}
}

func TestConvert_TemplateField(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sheet := filepath.Join(dir, "page.xsl")
	if err := os.WriteFile(sheet, []byte(`<xsl:stylesheet version="1.0" xmlns:xsl="http://www.w3.org/1999/XSL/Transform"/>`), 0o644); err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(dir, "doc.md")

	fake := &fakeTransformer{}
	conv := newConverter(t, mdxsl.WithTransformer(fake))

	_, err := conv.Convert(context.Background(), mdxsl.Input{
		SourcePath: source,
		Source:     []byte(":xsl-template: page.xsl\n\nBody.\n"),
		Params:     map[string]string{"title": "'T'"},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if got := fake.sheets[0]; got == nil || got.Path != sheet {
		t.Errorf("stylesheet = %+v, want path %s", got, sheet)
	}
	if fake.params[0]["title"] != "'T'" {
		t.Errorf("params = %v", fake.params[0])
	}
}

func TestConvert_TemplateOverride(t *testing.T) {
	t.Parallel()

	fake := &fakeTransformer{}
	conv := newConverter(t, mdxsl.WithTransformer(fake))

	_, err := conv.Convert(context.Background(), mdxsl.Input{
		Source:   []byte(":xsl-template: missing.xsl\n\nBody.\n"),
		Template: "xhtml",
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if fake.sheets[0].Name != "xhtml" {
		t.Errorf("stylesheet = %q, want embedded xhtml", fake.sheets[0].Name)
	}
}

func TestConvert_StylesheetNotFound(t *testing.T) {
	t.Parallel()

	conv := newConverter(t, mdxsl.WithTransformer(&fakeTransformer{}))
	_, err := conv.Convert(context.Background(), mdxsl.Input{
		Source:   []byte("Body.\n"),
		Template: "nonexistent",
	})
	if !errors.Is(err, mdxsl.ErrStylesheetNotFound) {
		t.Errorf("Convert() error = %v, want ErrStylesheetNotFound", err)
	}
}

func TestConvert_XMLOnlyIgnoresMissingTemplate(t *testing.T) {
	t.Parallel()

	conv := newConverter(t, mdxsl.WithTransformer(mdxsl.Identity{}))

	tests := []mdxsl.Input{
		{Source: []byte(":xsl-template: foo.xsl\n\nBody.\n")},
		{Source: []byte("Body.\n"), Template: "nonexistent"},
	}
	for _, input := range tests {
		results, err := conv.Convert(context.Background(), input)
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if !strings.Contains(string(results[0].XML), "Body.") {
			t.Errorf("output missing body:\n%s", results[0].XML)
		}
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Encoding - Extension Results
// ---------------------------------------------------------------------------

func TestConvert_NonASCIIKeysStayWellFormed(t *testing.T) {
	t.Parallel()

	reg := mdxsl.NewRegistry()
	if err := reg.Register("menu", func(context.Context, any, map[string]string) (any, error) {
		return map[string]any{"café": "crème"}, nil
	}); err != nil {
		t.Fatal(err)
	}
	conv := newConverter(t, mdxsl.WithTransformer(mdxsl.Identity{}), mdxsl.WithFunctions(reg))

	results, err := conv.Convert(context.Background(), mdxsl.Input{
		Source: []byte("```pyxslt menu\n```\n"),
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	xml := results[0].XML
	if !bytes.Contains(xml, []byte("<caf_>cr&#xE8;me</caf_>")) {
		t.Errorf("unexpected serialization:\n%s", xml)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	if err := doc.ReadFromBytes(xml); err != nil {
		t.Fatalf("output is not well-formed: %v\n%s", err, xml)
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Errors - Failure Paths
// ---------------------------------------------------------------------------

func TestConvert_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fake    *fakeTransformer
		input   mdxsl.Input
		wantErr error
	}{
		{
			name:    "empty source",
			fake:    &fakeTransformer{},
			input:   mdxsl.Input{Template: "xhtml"},
			wantErr: mdxsl.ErrEmptySource,
		},
		{
			name:    "transform failure",
			fake:    &fakeTransformer{err: mdxsl.ErrTransform},
			input:   mdxsl.Input{Source: []byte("x\n"), Template: "xhtml"},
			wantErr: mdxsl.ErrTransform,
		},
		{
			name:    "unknown encoding",
			fake:    &fakeTransformer{},
			input:   mdxsl.Input{Source: []byte("x\n"), Template: "xhtml", Encoding: "klingon"},
			wantErr: mdxsl.ErrUnknownEncoding,
		},
		{
			name:    "panic recovered",
			fake:    &fakeTransformer{panic: true},
			input:   mdxsl.Input{Source: []byte("x\n"), Template: "xhtml"},
			wantErr: mdxsl.ErrInternal,
		},
		{
			name:    "fatal directive",
			fake:    &fakeTransformer{},
			input:   mdxsl.Input{Source: []byte("```pyxslt\n```\n"), Template: "xhtml"},
			wantErr: mdxsl.ErrSourceParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := newConverter(t, mdxsl.WithTransformer(tt.fake))
			_, err := conv.Convert(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Convert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConvert_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := newConverter(t, mdxsl.WithTransformer(mdxsl.Identity{}))
	_, err := conv.Convert(ctx, mdxsl.Input{Source: []byte("x\n")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Diagnostics - Warning Logs
// ---------------------------------------------------------------------------

func TestConvert_LogsRecoverableDiagnostics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	conv := newConverter(t,
		mdxsl.WithTransformer(mdxsl.Identity{}),
		mdxsl.WithFunctions(mdxsl.NewRegistry()),
		mdxsl.WithLogger(logger),
	)

	results, err := conv.Convert(context.Background(), mdxsl.Input{
		SourcePath: "notes.md",
		Source:     []byte("Intro.\n\n```pyxslt nothing\n```\n"),
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	log := buf.String()
	for _, want := range []string{"level=WARN", "Cannot find function nothing.", "source=notes.md", "line=3"} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %q:\n%s", want, log)
		}
	}
	if strings.Contains(string(results[0].XML), "system_message") {
		t.Error("system_message leaked into the XML")
	}
}

// ---------------------------------------------------------------------------
// TestConvert_PDF - Renderer Wiring
// ---------------------------------------------------------------------------

func TestConvert_Renderer(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{}
	conv, err := mdxsl.NewConverter(mdxsl.WithTransformer(mdxsl.Identity{}), mdxsl.WithRenderer(r))
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}

	results, err := conv.Convert(context.Background(), mdxsl.Input{Source: []byte("x\n")})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !bytes.HasPrefix(results[0].PDF, []byte("%PDF-")) {
		t.Errorf("PDF = %q", results[0].PDF)
	}

	if err := conv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if r.closed != 1 {
		t.Errorf("renderer closed %d times, want 1", r.closed)
	}
}

// ---------------------------------------------------------------------------
// TestNewConverter - Option Validation
// ---------------------------------------------------------------------------

func TestNewConverter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []mdxsl.Option
		wantErr error
	}{
		{"missing asset path", []mdxsl.Option{mdxsl.WithAssetPath("/nonexistent/assets")}, mdxsl.ErrInvalidAssetPath},
		{"bad page size", []mdxsl.Option{mdxsl.WithPDF(&mdxsl.PageSettings{Size: "tabloid", Orientation: "portrait", Margin: 1}, "")}, mdxsl.ErrInvalidPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := mdxsl.NewConverter(tt.opts...); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewConverter() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) did not panic")
		}
	}()
	mdxsl.WithTimeout(0)
}
