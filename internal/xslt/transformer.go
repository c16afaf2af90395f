package xslt

import (
	"context"

	"github.com/beevik/etree"

	"github.com/alnah/go-mdxsl/internal/assets"
)

// Transformer applies a stylesheet to a document.
type Transformer interface {
	Transform(ctx context.Context, doc *etree.Document, ss *assets.Stylesheet, params map[string]string) (*etree.Document, error)
}

// Identity is a Transformer that returns a copy of its input. It backs
// XML-only output, where no stylesheet is applied.
type Identity struct{}

// Transform returns a deep copy of doc.
func (Identity) Transform(ctx context.Context, doc *etree.Document, _ *assets.Stylesheet, _ map[string]string) (*etree.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return doc.Copy(), nil
}

// Compile-time interface checks.
var (
	_ Transformer = Identity{}
	_ Transformer = (*Xsltproc)(nil)
)
