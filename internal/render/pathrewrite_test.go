package render

// Notes:
// - Traversal tests check observable behavior (reference kept as written)
//   rather than isPathUnderDir directly.

import (
	"runtime"
	"strings"
	"testing"
)

func testSourceDir() string {
	if runtime.GOOS == "windows" {
		return `C:\docs`
	}
	return "/docs"
}

// ---------------------------------------------------------------------------
// TestRewritePaths - Local References
// ---------------------------------------------------------------------------

func TestRewritePaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		page         string
		sourceDir    string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "relative image",
			page:         `<img src="images/logo.png">`,
			sourceDir:    testSourceDir(),
			wantContains: []string{`src="file://`},
		},
		{
			name:         "relative stylesheet link",
			page:         `<link rel="stylesheet" href="print.css">`,
			sourceDir:    testSourceDir(),
			wantContains: []string{`href="file://`},
		},
		{
			name:         "relative anchor",
			page:         `<a href="./appendix.html">A</a>`,
			sourceDir:    testSourceDir(),
			wantContains: []string{`href="file://`},
		},
		{
			name:         "fragment anchor unchanged",
			page:         `<a href="#intro">I</a>`,
			sourceDir:    testSourceDir(),
			wantContains: []string{`href="#intro"`},
		},
		{
			name:         "urls unchanged",
			page:         `<img src="https://example.com/a.png"><img src="data:image/png;base64,AA"><img src="//cdn/x.png">`,
			sourceDir:    testSourceDir(),
			wantExcludes: []string{"file://"},
		},
		{
			name:         "absolute path unchanged",
			page:         `<img src="/abs/logo.png">`,
			sourceDir:    testSourceDir(),
			wantContains: []string{`src="/abs/logo.png"`},
		},
		{
			name:         "script untouched",
			page:         `<script src="app.js"></script>`,
			sourceDir:    testSourceDir(),
			wantContains: []string{`src="app.js"`},
		},
		{
			name:         "traversal kept as written",
			page:         `<img src="../../etc/passwd">`,
			sourceDir:    testSourceDir(),
			wantContains: []string{`src="../../etc/passwd"`},
		},
		{
			name:         "spaces escaped",
			page:         `<img src="my images/logo.png">`,
			sourceDir:    testSourceDir(),
			wantContains: []string{"my%20images"},
		},
		{
			name:         "no source dir",
			page:         `<img src="logo.png">`,
			sourceDir:    "",
			wantContains: []string{`src="logo.png"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := RewritePaths([]byte(tt.page), tt.sourceDir)
			if err != nil {
				t.Fatalf("RewritePaths() error = %v", err)
			}
			got := string(out)

			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("RewritePaths() = %q, want to contain %q", got, want)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("RewritePaths() = %q, should not contain %q", got, exclude)
				}
			}
		})
	}
}

func TestRewritePaths_Document(t *testing.T) {
	t.Parallel()

	page := `<?xml version="1.0"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>T</title></head>
<body><p>Hi</p><img src="logo.png"/></body></html>`

	out, err := RewritePaths([]byte(page), testSourceDir())
	if err != nil {
		t.Fatalf("RewritePaths() error = %v", err)
	}
	got := string(out)

	if !strings.Contains(got, "<html") || !strings.Contains(got, "<title>T</title>") {
		t.Errorf("document structure lost: %q", got)
	}
	if !strings.Contains(got, `src="file://`) {
		t.Errorf("image not rewritten: %q", got)
	}
}

func TestRewritePaths_Fragment(t *testing.T) {
	t.Parallel()

	out, err := RewritePaths([]byte(`<div><p>Hello</p><img src="a.png"/></div>`), testSourceDir())
	if err != nil {
		t.Fatalf("RewritePaths() error = %v", err)
	}
	if strings.Contains(string(out), "<body>") {
		t.Errorf("fragment wrapped in body: %q", out)
	}
}

// ---------------------------------------------------------------------------
// TestIsRelativePath / TestPathToFileURL - Helpers
// ---------------------------------------------------------------------------

func TestIsRelativePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"a.png", true},
		{"./a.png", true},
		{"dir/a.png", true},
		{"", false},
		{"#top", false},
		{"//cdn/a.png", false},
		{"mailto:x@example.com", false},
		{"https://example.com", false},
		{"file:///a.png", false},
	}

	for _, tt := range tests {
		if got := isRelativePath(tt.path); got != tt.want {
			t.Errorf("isRelativePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPathToFileURL(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	if got := pathToFileURL("/docs/my file.png"); got != "file:///docs/my%20file.png" {
		t.Errorf("pathToFileURL() = %q", got)
	}
}
