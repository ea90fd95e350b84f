package detector

import (
	"errors"

	"github.com/ezrec/shapedet/engine"
	"github.com/ezrec/shapedet/translate"
)

var f = translate.From

var (
	ErrBusy       = errors.New(f("detector busy"))
	ErrIdle       = errors.New(f("detector idle"))
	ErrIncomplete = errors.New(f("frame incomplete"))
	ErrStalled    = errors.New(f("request stalled"))
	ErrMismatch   = errors.New(f("result mismatch"))
)

// ErrRequest indicates where in a request an error occurred.
type ErrRequest struct {
	Tick  int
	Stage engine.Stage
	Err   error
}

func (err *ErrRequest) Error() string {
	return f("tick %d %v %v", err.Tick, err.Stage, err.Err)
}

func (err *ErrRequest) Unwrap() error {
	return err.Err
}
