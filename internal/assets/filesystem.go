package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// candidateLayouts lists where a named stylesheet may live under the base
// directory, in lookup order. The stylesheets/ subdirectory mirrors the
// embedded layout; a flat directory of .xsl files also works.
var candidateLayouts = []string{
	filepath.Join("stylesheets", "%s.xsl"),
	filepath.Join("stylesheets", "%s.xslt"),
	"%s.xsl",
	"%s.xslt",
}

// FilesystemLoader serves named stylesheets from a directory on disk.
type FilesystemLoader struct {
	root string // absolute, symlinks resolved
}

// NewFilesystemLoader opens dir as a stylesheet directory.
func NewFilesystemLoader(dir string) (*FilesystemLoader, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	// ReadDir on a regular file fails too, which covers "not a directory".
	if _, err := os.ReadDir(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, root)
		}
		return nil, fmt.Errorf("%w: cannot read %s: %v", ErrInvalidBasePath, root, err)
	}

	return &FilesystemLoader{root: root}, nil
}

// LoadStylesheet reads the first candidate layout that exists for name.
func (l *FilesystemLoader) LoadStylesheet(name string) (*Stylesheet, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	for _, layout := range candidateLayouts {
		path := filepath.Join(l.root, fmt.Sprintf(layout, name))

		resolved, err := l.contain(path)
		if err != nil {
			return nil, err
		}

		content, err := os.ReadFile(resolved) // #nosec G304 -- contained in root
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
		}
		return &Stylesheet{Name: name, Path: resolved, Content: content}, nil
	}

	return nil, fmt.Errorf("%w: %q in %s", ErrStylesheetNotFound, name, l.root)
}

// contain resolves symlinks in path and rejects results outside root.
// A path that does not exist yet is checked as written.
func (l *FilesystemLoader) contain(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s escapes %s", ErrPathTraversal, path, l.root)
	}
	return path, nil
}

var _ StylesheetLoader = (*FilesystemLoader)(nil)
