package xslt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/alnah/go-mdxsl/internal/assets"
)

// xslNamespace is the XSLT namespace URI.
const xslNamespace = "http://www.w3.org/1999/XSL/Transform"

// DefaultBinary is the xsltproc executable name.
const DefaultBinary = "xsltproc"

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

// Run executes name and collects its output. The process is killed when
// ctx is done.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- binary configured by the caller

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: %v", ErrEngineNotFound, err)
		}
		return stdout.Bytes(), stderr.String(), err
	}
	return stdout.Bytes(), stderr.String(), nil
}

// Xsltproc transforms documents by invoking the xsltproc CLI.
type Xsltproc struct {
	Runner   CommandRunner
	Binary   string
	Resolver IncludeResolver
}

// NewXsltproc creates an Xsltproc with a real command runner.
func NewXsltproc(resolver IncludeResolver) *Xsltproc {
	return &Xsltproc{
		Runner:   &ExecRunner{},
		Binary:   DefaultBinary,
		Resolver: resolver,
	}
}

// Transform stages the stylesheet tree and the document in a temporary
// directory, runs xsltproc, and parses its output. Params are passed with
// --param, so their values are XPath expressions: quote string literals.
func (x *Xsltproc) Transform(ctx context.Context, doc *etree.Document, ss *assets.Stylesheet, params map[string]string) (*etree.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ss == nil {
		return nil, fmt.Errorf("%w: no stylesheet", ErrStylesheet)
	}

	dir, err := os.MkdirTemp("", "go-mdxsl-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	st := &stager{dir: dir, resolver: x.Resolver, staged: make(map[string]string)}
	sheetPath, err := st.stage(ss.Content, ss.Path)
	if err != nil {
		return nil, err
	}

	input, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: writing input: %v", ErrTransform, err)
	}
	inputPath := filepath.Join(dir, "input.xml")
	if err := os.WriteFile(inputPath, input, 0o600); err != nil {
		return nil, fmt.Errorf("writing temp file: %w", err)
	}

	binary := x.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	stdout, stderr, err := x.Runner.Run(ctx, binary, buildArgs(params, sheetPath, inputPath)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, ErrEngineNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrTransform, strings.TrimSpace(stderr), err)
	}

	out := etree.NewDocument()
	if len(bytes.TrimSpace(stdout)) == 0 {
		return out, nil
	}
	if err := out.ReadFromBytes(stdout); err != nil {
		return nil, fmt.Errorf("%w: result is not well-formed XML: %v", ErrTransform, err)
	}
	if out.Root() == nil {
		return nil, fmt.Errorf("%w: result has no root element", ErrTransform)
	}
	return out, nil
}

// buildArgs returns xsltproc arguments with params in sorted order.
func buildArgs(params map[string]string, sheetPath, inputPath string) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	args := []string{"--nonet"}
	for _, name := range names {
		args = append(args, "--param", name, params[name])
	}
	return append(args, sheetPath, inputPath)
}

// stager copies a stylesheet and its includes into dir, pointing every
// include and import at the staged copy.
type stager struct {
	dir      string
	resolver IncludeResolver
	staged   map[string]string
	n        int
}

// stage writes content under dir and returns the staged path. origin is
// the file content came from; empty for embedded stylesheets.
func (s *stager) stage(content []byte, origin string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrStylesheet, displayName(origin), err)
	}

	name := s.nextName()
	if origin != "" {
		s.staged[origin] = name
	}

	referrerDir := ""
	if origin != "" {
		referrerDir = filepath.Dir(origin)
	}

	if root := doc.Root(); root != nil {
		for _, child := range root.ChildElements() {
			if child.NamespaceURI() != xslNamespace || (child.Tag != "include" && child.Tag != "import") {
				continue
			}
			href := child.SelectAttr("href")
			if href == nil || href.Value == "" {
				continue
			}
			staged, err := s.include(href.Value, referrerDir)
			if err != nil {
				return "", err
			}
			if staged != "" {
				href.Value = staged
			}
		}
	}

	path := filepath.Join(s.dir, name)
	if err := doc.WriteToFile(path); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	return path, nil
}

// include stages the file an href resolves to and returns its staged
// name. Hrefs that do not resolve to a readable file are left for the
// engine to report.
func (s *stager) include(href, referrerDir string) (string, error) {
	target := s.resolver.Resolve(href, referrerDir)
	if strings.Contains(target, "://") {
		return "", nil
	}
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}

	if name, ok := s.staged[target]; ok {
		return name, nil
	}

	content, err := os.ReadFile(target) // #nosec G304 -- include named by the stylesheet author
	if err != nil {
		return "", nil
	}

	path, err := s.stage(content, target)
	if err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

func (s *stager) nextName() string {
	s.n++
	return "stylesheet-" + strconv.Itoa(s.n) + ".xsl"
}

func displayName(origin string) string {
	if origin == "" {
		return "<embedded>"
	}
	return origin
}
