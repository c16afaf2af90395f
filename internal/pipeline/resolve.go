package pipeline

import (
	"fmt"
	"math"
	"strconv"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// defaultReferenceRoot prefixes expressions that do not start at the
// document root.
const defaultReferenceRoot = "//" + FragmentTag + "/"

// UnresolvedReferenceError reports a reference whose expression matched
// nothing or failed to compile. Expr is the expression as written in the
// source.
type UnresolvedReferenceError struct {
	Expr string
	Err  error
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %q: %v", ErrUnresolvedReference, e.Expr, e.Err)
	}
	return fmt.Sprintf("%v: %q", ErrUnresolvedReference, e.Expr)
}

func (e *UnresolvedReferenceError) Unwrap() error { return e.Err }

// Is matches ErrUnresolvedReference.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// ReferenceExpr returns the expression actually evaluated for a reference:
// relative expressions are anchored under any pyxslt element.
func ReferenceExpr(expr string) string {
	if len(expr) > 0 && expr[0] == '/' {
		return expr
	}
	return defaultReferenceRoot + expr
}

// Resolve replaces every reference placeholder in doc with a text node
// holding the string-value of the first node its expression selects.
// Placeholders are collected before any replacement, so a reference that
// points at another reference sees the unresolved placeholder text.
func Resolve(doc *etree.Document) error {
	placeholders, err := selectElements(doc, "//"+ReferenceTag)
	if err != nil {
		return err
	}

	for _, ph := range placeholders {
		expr := stringValue(ph)

		value, err := lookup(doc, ReferenceExpr(expr))
		if err != nil {
			return &UnresolvedReferenceError{Expr: expr, Err: err}
		}
		if value == nil {
			return &UnresolvedReferenceError{Expr: expr}
		}

		replaceWithText(ph, *value)
	}
	return nil
}

// lookup evaluates expr. A nil value means an empty node-set.
func lookup(doc *etree.Document, expr string) (*string, error) {
	result, err := evaluate(doc, expr)
	if err != nil {
		return nil, err
	}

	var s string
	switch v := result.(type) {
	case *xpath.NodeIterator:
		if !v.MoveNext() {
			return nil, nil
		}
		s = v.Current().Value()
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case float64:
		s = formatNumber(v)
	default:
		s = fmt.Sprint(v)
	}
	return &s, nil
}

// formatNumber follows the XPath number-to-string rules.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func replaceWithText(elem *etree.Element, text string) {
	parent := elem.Parent()
	if parent == nil {
		return
	}
	i := elem.Index()
	parent.RemoveChildAt(i)
	parent.InsertChildAt(i, etree.NewText(text))
}
