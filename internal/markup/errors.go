package markup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-mdxsl/internal/pipeline"
)

// Sentinel errors for source parsing.
var (
	// ErrSourceParse wraps every fatal parse failure.
	ErrSourceParse = errors.New("source document parse failed")

	// ErrDirectiveArgument indicates a malformed directive argument line.
	ErrDirectiveArgument = errors.New("invalid directive argument")

	// ErrDuplicateMultidoc indicates a second multidoc directive.
	ErrDuplicateMultidoc = pipeline.ErrDuplicateMultidoc

	// ErrMultidocResultType indicates a multidoc function returned a value
	// that is not a sequence.
	ErrMultidocResultType = errors.New("multidoc result must be a sequence")

	// ErrUnknownLexer indicates no highlighter exists for a language.
	ErrUnknownLexer = errors.New("no lexer for language")

	// ErrConflictingContent indicates a code block with both inline content
	// and a source file.
	ErrConflictingContent = errors.New("must specify a source-file or provide content, not both")
)

// Level is the severity of a diagnostic, using docutils numbering.
type Level int

// Diagnostic levels.
const (
	LevelInfo    Level = 1
	LevelWarning Level = 2
	LevelError   Level = 3
	LevelSevere  Level = 4
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelSevere:
		return "SEVERE"
	}
	return fmt.Sprintf("LEVEL%d", int(l))
}

// Diagnostic is a problem found while parsing. Recoverable diagnostics are
// also inserted into the tree as system_message nodes; fatal ones abort
// the parse.
type Diagnostic struct {
	Source  string
	Line    int
	Level   Level
	Message string
	Err     error
	Fatal   bool
}

func (d Diagnostic) String() string {
	loc := d.Source
	if loc == "" {
		loc = "<input>"
	}
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, d.Line)
	}
	return fmt.Sprintf("%s: (%s/%d) %s", loc, d.Level, int(d.Level), d.Message)
}

// ParseError reports fatal diagnostics. It matches ErrSourceParse and the
// sentinel of every fatal diagnostic with errors.Is.
type ParseError struct {
	Source      string
	Diagnostics []Diagnostic
}

func (e *ParseError) Error() string {
	msgs := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		if d.Fatal {
			msgs = append(msgs, d.String())
		}
	}
	if len(msgs) == 0 {
		return ErrSourceParse.Error()
	}
	return fmt.Sprintf("%v: %s", ErrSourceParse, strings.Join(msgs, "; "))
}

func (e *ParseError) Unwrap() []error {
	errs := []error{ErrSourceParse}
	for _, d := range e.Diagnostics {
		if d.Fatal && d.Err != nil {
			errs = append(errs, d.Err)
		}
	}
	return errs
}
