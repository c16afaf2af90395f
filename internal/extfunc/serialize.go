package extfunc

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// Element names used by the serializer.
const (
	RootTag = "pyxslt"
	ItemTag = "item"
)

// Named forces the element name of a value. Inside a sequence it replaces
// the default item element.
type Named struct {
	Name  string
	Value any
}

// Serialize converts a function result into a pyxslt element.
//
//   - nil produces an empty element
//   - strings, booleans, numbers, and time.Time become text
//   - slices and arrays produce one item child per element
//   - maps with string keys produce one child per key, in key order
//   - Named wraps its value in an element of the given name
//   - *etree.Element values are copied in as-is
func Serialize(v any) (*etree.Element, error) {
	root := etree.NewElement(RootTag)
	if err := serializeInto(root, v); err != nil {
		return nil, err
	}
	return root, nil
}

// IsSequence reports whether v is an ordered collection. Byte slices are
// treated as strings.
func IsSequence(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

func serializeInto(parent *etree.Element, v any) error {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		parent.CreateText(t)
		return nil
	case []byte:
		parent.CreateText(string(t))
		return nil
	case bool:
		parent.CreateText(strconv.FormatBool(t))
		return nil
	case time.Time:
		parent.CreateText(t.Format(time.RFC3339))
		return nil
	case *etree.Element:
		if t != nil {
			parent.AddChild(t.Copy())
		}
		return nil
	case Named:
		return serializeNamed(parent, t)
	case *Named:
		if t == nil {
			return nil
		}
		return serializeNamed(parent, *t)
	case fmt.Stringer:
		parent.CreateText(t.String())
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parent.CreateText(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		parent.CreateText(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		parent.CreateText(strconv.FormatFloat(rv.Float(), 'f', -1, 64))
	case reflect.String:
		parent.CreateText(rv.String())
	case reflect.Bool:
		parent.CreateText(strconv.FormatBool(rv.Bool()))
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return serializeInto(parent, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return serializeSequence(parent, rv)
	case reflect.Map:
		return serializeMap(parent, rv)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

func serializeNamed(parent *etree.Element, n Named) error {
	return serializeInto(parent.CreateElement(ElementName(n.Name)), n.Value)
}

func serializeSequence(parent *etree.Element, rv reflect.Value) error {
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		switch n := item.(type) {
		case Named:
			if err := serializeNamed(parent, n); err != nil {
				return err
			}
			continue
		case *Named:
			if n != nil {
				if err := serializeNamed(parent, *n); err != nil {
					return err
				}
				continue
			}
		}
		if err := serializeInto(parent.CreateElement(ItemTag), item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func serializeMap(parent *etree.Element, rv reflect.Value) error {
	if rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("%w: map key type %s", ErrUnsupportedValue, rv.Type().Key())
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	for _, k := range keys {
		val := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
		if err := serializeInto(parent.CreateElement(ElementName(k)), val); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	return nil
}

// ElementName turns an arbitrary key into a valid XML element name:
// characters outside the ASCII name set become underscores and names that
// cannot start an element get an underscore prefix. Names stay ASCII so
// they survive any output encoding.
func ElementName(key string) string {
	if key == "" {
		return "_"
	}
	var sb strings.Builder
	for i, r := range key {
		switch {
		case isNameStart(r):
			sb.WriteRune(r)
		case i > 0 && isNameChar(r):
			sb.WriteRune(r)
		case i == 0 && isNameChar(r):
			sb.WriteByte('_')
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func isNameStart(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isNameChar(r rune) bool {
	return isNameStart(r) || ('0' <= r && r <= '9') || r == '-' || r == '.'
}
