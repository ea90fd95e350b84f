package rom

import (
	"errors"

	"github.com/ezrec/shapedet/translate"
)

var f = translate.From

var (
	ErrTableSize    = errors.New(f("table size"))
	ErrTableShape   = errors.New(f("table shape"))
	ErrTableMiss    = errors.New(f("table missing"))
	ErrHexSyntax    = errors.New(f("hex syntax"))
	ErrCoeSyntax    = errors.New(f("coe syntax"))
	ErrBundle       = errors.New(f("bundle corrupt"))
	ErrLayerUnknown = errors.New(f("layer unknown"))
)

// ErrLine locates a parse error inside a table file.
type ErrLine struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrLine) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrLine) Unwrap() error {
	return err.Err
}

// ErrTable names the table that failed to load.
type ErrTable struct {
	Name string
	Err  error
}

func (err *ErrTable) Error() string {
	return f("%v: %v", err.Name, err.Err)
}

func (err *ErrTable) Unwrap() error {
	return err.Err
}
