package render

import (
	"bytes"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// linkAttrs lists the attributes holding a local resource, per element.
// Media and script sources are left alone: the printed page cannot play
// them and scripts never load from rewritten paths.
var linkAttrs = map[atom.Atom]string{
	atom.Img:  "src",
	atom.A:    "href",
	atom.Link: "href",
}

// RewritePaths turns relative img, a, and link references in a transformed
// page into file:// URLs anchored at sourceDir, so the browser can load
// them from a temporary file. References escaping sourceDir are kept as
// written. An empty sourceDir returns page unchanged.
func RewritePaths(page []byte, sourceDir string) ([]byte, error) {
	if sourceDir == "" {
		return page, nil
	}

	absDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, err
	}

	root, fragment, err := parsePage(page)
	if err != nil {
		return nil, err
	}

	walk(root, func(n *html.Node) {
		key, ok := linkAttrs[n.DataAtom]
		if !ok {
			return
		}
		for i, a := range n.Attr {
			if a.Key != key || !isRelativePath(a.Val) {
				continue
			}
			abs := filepath.Join(absDir, a.Val)
			if !isPathUnderDir(abs, absDir) {
				continue
			}
			n.Attr[i].Val = pathToFileURL(abs)
		}
	})

	return renderPage(root, fragment)
}

// parsePage parses a full document, or a body fragment when the page has
// no html element.
func parsePage(page []byte) (*html.Node, bool, error) {
	head := strings.ToLower(string(bytes.TrimSpace(page[:min(len(page), 512)])))
	if strings.Contains(head, "<!doctype") || strings.Contains(head, "<html") {
		doc, err := html.Parse(bytes.NewReader(page))
		return doc, false, err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(bytes.NewReader(page), body)
	if err != nil {
		return nil, true, err
	}
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

func renderPage(root *html.Node, fragment bool) ([]byte, error) {
	var buf bytes.Buffer
	if !fragment {
		err := html.Render(&buf, root)
		return buf.Bytes(), err
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// isRelativePath reports whether a reference is a local relative path.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	if u, err := url.Parse(path); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return false
	}
	return !filepath.IsAbs(path)
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}
