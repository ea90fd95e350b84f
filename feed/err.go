package feed

import (
	"errors"

	"github.com/ezrec/shapedet/translate"
)

var f = translate.From

var (
	ErrSelector   = errors.New(f("pattern selector invalid"))
	ErrHexSyntax  = errors.New(f("pixel hex syntax"))
	ErrShortImage = errors.New(f("image short"))
	ErrLongImage  = errors.New(f("image long"))
	ErrScript     = errors.New(f("script has no pixel(x, y) function"))
	ErrPixelRange = errors.New(f("pixel out of range"))
	ErrPixelType  = errors.New(f("pixel not an int or bool"))
)

// ErrLine locates a syntax error in a hex pixel stream.
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

// ErrPixel locates a script evaluation failure.
type ErrPixel struct {
	X   int
	Y   int
	Err error
}

func (err *ErrPixel) Error() string {
	return f("pixel(%d, %d) %v", err.X, err.Y, err.Err)
}

func (err *ErrPixel) Unwrap() error {
	return err.Err
}
