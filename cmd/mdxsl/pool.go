package main

import (
	"fmt"

	mdxsl "github.com/alnah/go-mdxsl"
)

// poolAdapter adapts *mdxsl.ConverterPool to the Pool interface.
type poolAdapter struct {
	pool *mdxsl.ConverterPool
}

// Compile-time interface implementation check.
var _ Pool = (*poolAdapter)(nil)

func (a *poolAdapter) Acquire() (CLIConverter, error) {
	conv, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release returns a converter to the pool. Panics when conv did not come
// from Acquire (programmer error).
func (a *poolAdapter) Release(conv CLIConverter) {
	c, ok := conv.(*mdxsl.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", conv))
	}
	a.pool.Release(c)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}
