package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultEncoding is used when no output encoding is requested.
const DefaultEncoding = "ASCII"

// Serialize writes doc with an XML declaration naming the encoding.
// Text and attribute values escape the characters the encoding cannot
// represent as character references. Names, comments and processing
// instructions have no such escape, so they fail with ErrUnencodable.
func Serialize(doc *etree.Document, enc string) ([]byte, error) {
	target, err := encoderFor(enc)
	if err != nil {
		return nil, err
	}

	out := doc.Copy()
	stripDeclaration(out)
	if err := prepareMarkup(&out.Element, target.fits); err != nil {
		return nil, fmt.Errorf("%s: %w", target.label, err)
	}

	body, err := out.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}

	body, err = target.encode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownEncoding, target.label, err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", target.label)
	buf.Write(body)
	if !bytes.HasSuffix(body, []byte("\n")) {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// outputEncoding transcodes serialized UTF-8 into the declared encoding.
type outputEncoding struct {
	label  string
	fits   func(string) bool // s needs no character references
	encode func([]byte) ([]byte, error)
}

func encoderFor(name string) (*outputEncoding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "ASCII", "US-ASCII":
		label := strings.TrimSpace(name)
		if label == "" {
			label = DefaultEncoding
		}
		return &outputEncoding{label: label, fits: isASCII, encode: escapeNonASCII}, nil
	case "UTF-8", "UTF8":
		return &outputEncoding{
			label:  "UTF-8",
			fits:   func(string) bool { return true },
			encode: func(b []byte) ([]byte, error) { return b, nil },
		}, nil
	}

	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return &outputEncoding{
		label: name,
		fits: func(s string) bool {
			_, err := e.NewEncoder().String(s)
			return err == nil
		},
		encode: encoding.HTMLEscapeUnsupported(e.NewEncoder()).Bytes,
	}, nil
}

// prepareMarkup checks every token that cannot carry a character
// reference. CDATA sections that do not fit become plain text, which
// escapes the same content.
func prepareMarkup(e *etree.Element, fits func(string) bool) error {
	if !fits(e.Space) || !fits(e.Tag) {
		return fmt.Errorf("%w: element name %q", ErrUnencodable, e.FullTag())
	}
	for _, a := range e.Attr {
		if !fits(a.Space) || !fits(a.Key) {
			return fmt.Errorf("%w: attribute name %q", ErrUnencodable, a.FullKey())
		}
	}

	for i := 0; i < len(e.Child); i++ {
		switch t := e.Child[i].(type) {
		case *etree.Element:
			if err := prepareMarkup(t, fits); err != nil {
				return err
			}
		case *etree.CharData:
			if t.IsCData() && !fits(t.Data) {
				e.RemoveChildAt(i)
				e.InsertChildAt(i, etree.NewText(t.Data))
			}
		case *etree.Comment:
			if !fits(t.Data) {
				return fmt.Errorf("%w: comment %q", ErrUnencodable, t.Data)
			}
		case *etree.ProcInst:
			if !fits(t.Target) || !fits(t.Inst) {
				return fmt.Errorf("%w: processing instruction %q", ErrUnencodable, t.Target)
			}
		case *etree.Directive:
			if !fits(t.Data) {
				return fmt.Errorf("%w: directive %q", ErrUnencodable, t.Data)
			}
		}
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// escapeNonASCII replaces every rune above U+007F with a hexadecimal
// character reference. prepareMarkup has already confined such runes to
// text and attribute values.
func escapeNonASCII(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r < utf8.RuneSelf {
			buf.WriteByte(b[0])
		} else {
			fmt.Fprintf(&buf, "&#x%X;", r)
		}
		b = b[size:]
	}
	return buf.Bytes(), nil
}

// stripDeclaration removes a leading xml processing instruction so the
// declaration written by Serialize is the only one.
func stripDeclaration(doc *etree.Document) {
	for i := 0; i < len(doc.Child); i++ {
		if pi, ok := doc.Child[i].(*etree.ProcInst); ok && pi.Target == "xml" {
			doc.RemoveChildAt(i)
			return
		}
	}
}
