// Package extfunc holds the extension functions callable from documents and
// the serializer that turns their results into XML fragments.
//
// A function receives the caller-supplied cookie and the keyword arguments
// written in the document. Its result is any value accepted by Serialize.
package extfunc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for extension functions.
var (
	// ErrUnknownFunction indicates no function is registered under a name.
	ErrUnknownFunction = errors.New("unknown extension function")

	// ErrMissingArgument indicates a required keyword argument is absent.
	ErrMissingArgument = errors.New("missing function argument")

	// ErrUnsupportedValue indicates a result value cannot be serialized.
	ErrUnsupportedValue = errors.New("unsupported result value")

	// ErrInvalidName indicates a function name is empty.
	ErrInvalidName = errors.New("invalid function name")
)

// Func is an extension function.
type Func func(ctx context.Context, cookie any, args map[string]string) (any, error)

// Registry maps function names to implementations. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" || fn == nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
	return nil
}

// Lookup returns the named function.
func (r *Registry) Lookup(name string) (Func, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return fn, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge copies every function of other into r, replacing same-named ones.
func (r *Registry) Merge(other *Registry) {
	if other == nil || other == r {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, fn := range other.funcs {
		r.funcs[name] = fn
	}
}

type baseDirKey struct{}

// WithBaseDir records the directory of the document being converted.
// Functions resolve relative file arguments against it.
func WithBaseDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, baseDirKey{}, dir)
}

// BaseDir returns the directory recorded by WithBaseDir, or "".
func BaseDir(ctx context.Context) string {
	dir, _ := ctx.Value(baseDirKey{}).(string)
	return dir
}
