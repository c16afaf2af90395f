package pipeline

import (
	"fmt"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// multidocRoot selects the fragment produced by a multidoc directive.
const multidocRoot = "//" + FragmentTag + `[@` + MultidocAttr + `="true"]`

// Instance is one output document of a split.
type Instance struct {
	// Name is the instance file name, empty when the tree was not split.
	Name string
	Doc  *etree.Document
}

// Split produces one document per child of the multidoc fragment. Each
// instance is a deep copy of doc in which the multidoc fragment is replaced
// by a plain pyxslt element holding a copy of that child only. Instance
// names come from evaluating designation relative to the multidoc fragment;
// the i-th name belongs to the i-th child.
//
// An empty designation returns doc itself as the only, unnamed instance.
func Split(doc *etree.Document, designation string) ([]Instance, error) {
	if designation == "" {
		return []Instance{{Doc: doc}}, nil
	}

	roots, err := selectElements(doc, multidocRoot)
	if err != nil {
		return nil, err
	}
	if len(roots) > 1 {
		return nil, fmt.Errorf("%w: found %d", ErrDuplicateMultidoc, len(roots))
	}

	candidates, err := selectElements(doc, multidocRoot+"/*")
	if err != nil {
		return nil, err
	}

	names, err := instanceNames(doc, designation)
	if err != nil {
		return nil, err
	}
	if len(names) < len(candidates) {
		return nil, fmt.Errorf("%w: %q selects %d names for %d instances",
			ErrMultidocNames, designation, len(names), len(candidates))
	}

	instances := make([]Instance, 0, len(candidates))
	for i, candidate := range candidates {
		if names[i] == "" {
			return nil, fmt.Errorf("%w: instance %d of %q", ErrEmptyInstanceName, i+1, designation)
		}
		instance, err := isolate(doc, candidate)
		if err != nil {
			return nil, err
		}
		instances = append(instances, Instance{Name: names[i], Doc: instance})
	}
	return instances, nil
}

// instanceNames evaluates the designation under the multidoc fragment and
// returns the string-value of every selected node.
func instanceNames(doc *etree.Document, designation string) ([]string, error) {
	result, err := evaluate(doc, multidocRoot+"/"+designation)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMultidocNames, designation, err)
	}

	it, ok := result.(*xpath.NodeIterator)
	if !ok {
		return nil, fmt.Errorf("%w: %q does not select nodes", ErrMultidocNames, designation)
	}

	var names []string
	for it.MoveNext() {
		names = append(names, it.Current().Value())
	}
	return names, nil
}

// isolate copies doc and swaps the multidoc fragment for a pyxslt element
// that contains only a copy of candidate.
func isolate(doc *etree.Document, candidate *etree.Element) (*etree.Document, error) {
	instance := doc.Copy()

	roots, err := selectElements(instance, multidocRoot)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: multidoc root vanished from copy", ErrMalformedTree)
	}
	mdRoot := roots[0]

	wrapper := etree.NewElement(FragmentTag)
	wrapper.AddChild(candidate.Copy())

	parent := mdRoot.Parent()
	i := mdRoot.Index()
	parent.RemoveChildAt(i)
	parent.InsertChildAt(i, wrapper)

	return instance, nil
}
