package main

import (
	"io"
	"os"

	mdxsl "github.com/alnah/go-mdxsl"
	"github.com/alnah/go-mdxsl/internal/config"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, configuration, and extra converter options.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config // Loaded once, shared across the batch

	// Options are appended after the options built from flags and
	// config, so they win. Tests use them to swap the transformer.
	Options []mdxsl.Option
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: config.DefaultConfig(),
	}
}
