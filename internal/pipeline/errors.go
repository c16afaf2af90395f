package pipeline

import "errors"

// Sentinel errors for conversion stages.
var (
	// ErrEmptyDocument indicates the source tree produced no root element.
	ErrEmptyDocument = errors.New("document has no root element")

	// ErrMalformedTree indicates unbalanced enter and exit events while
	// building the XML tree.
	ErrMalformedTree = errors.New("malformed document tree")

	// ErrUnresolvedReference indicates an XPath reference matched nothing
	// or could not be compiled.
	ErrUnresolvedReference = errors.New("unresolved xpath reference")

	// ErrMultidocNames indicates the instance-name expression did not yield
	// one name per multidoc instance.
	ErrMultidocNames = errors.New("invalid multidoc name expression")

	// ErrEmptyInstanceName indicates a multidoc instance evaluated to an
	// empty name.
	ErrEmptyInstanceName = errors.New("multidoc instance name is empty")

	// ErrDuplicateMultidoc indicates more than one multidoc root in a tree.
	ErrDuplicateMultidoc = errors.New("document contains more than one multidoc directive")

	// ErrUnknownEncoding indicates the requested output encoding is not
	// supported.
	ErrUnknownEncoding = errors.New("unknown output encoding")

	// ErrUnencodable indicates markup the output encoding cannot hold, such
	// as a non-ASCII element name or comment under ASCII output.
	ErrUnencodable = errors.New("markup not representable in output encoding")
)
