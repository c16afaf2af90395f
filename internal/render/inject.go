package render

import (
	"bytes"
	"strings"
)

// InjectCSS inserts a <style> block into page, before </head> when there
// is one, otherwise after the opening <body> tag, otherwise at the start.
// Closing sequences in css are escaped so the block cannot end early.
func InjectCSS(page []byte, css string) []byte {
	if strings.TrimSpace(css) == "" {
		return page
	}

	block := []byte("<style>" + strings.ReplaceAll(css, "</", `<\/`) + "</style>")
	lower := bytes.ToLower(page)

	if i := bytes.Index(lower, []byte("</head>")); i != -1 {
		return splice(page, i, block)
	}
	if i := bytes.Index(lower, []byte("<body")); i != -1 {
		if end := bytes.IndexByte(page[i:], '>'); end != -1 {
			return splice(page, i+end+1, block)
		}
	}
	return splice(page, 0, block)
}

func splice(page []byte, at int, block []byte) []byte {
	out := make([]byte, 0, len(page)+len(block))
	out = append(out, page[:at]...)
	out = append(out, block...)
	return append(out, page[at:]...)
}
