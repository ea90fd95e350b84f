package feed

import (
	"iter"
	"strconv"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/shapedet/engine"
)

const (
	SCRIPT_FUNCTION  = "pixel"
	SCRIPT_MAX_STEPS = 1 << 24
)

// Script renders a custom pattern from Starlark source that defines
//
//	def pixel(x, y):
//	    return 255 if (x + y) % 2 else 0
//
// pixel returns an int in 0..255, or a bool for PIXEL_ON/PIXEL_OFF.
// Every integer define is predeclared, so IMAGE_WIDTH and friends are
// available to the script.
type Script struct {
	Name    string // File name for error messages.
	Source  string // Starlark program text.
	Defines iter.Seq2[string, string]
}

// predeclared converts the integer defines to Starlark values.
// Non-integer defines are skipped.
func (sc *Script) predeclared() (pred starlark.StringDict) {
	pred = starlark.StringDict{}
	if sc.Defines == nil {
		return
	}
	for key, str := range sc.Defines {
		value, err := strconv.ParseInt(str, 0, 64)
		if err != nil {
			continue
		}
		pred[key] = starlark.MakeInt64(value)
	}
	return
}

// toPixel converts a Starlark result to a pixel value.
func toPixel(value starlark.Value) (pixel uint8, err error) {
	switch v := value.(type) {
	case starlark.Bool:
		if v {
			pixel = PIXEL_ON
		}
	case starlark.Int:
		raw, ok := v.Int64()
		if !ok || raw < 0 || raw > 0xff {
			err = ErrPixelRange
			return
		}
		pixel = uint8(raw)
	default:
		err = ErrPixelType
	}
	return
}

// Render evaluates pixel(x, y) over the whole frame.
func (sc *Script) Render() (img *engine.Image, err error) {
	thread := &starlark.Thread{Name: sc.Name}
	thread.SetMaxExecutionSteps(SCRIPT_MAX_STEPS)
	opts := syntax.FileOptions{}

	globals, err := starlark.ExecFileOptions(&opts, thread, sc.Name, sc.Source, sc.predeclared())
	if err != nil {
		return
	}

	fn, ok := globals[SCRIPT_FUNCTION].(starlark.Callable)
	if !ok {
		err = ErrScript
		return
	}

	img = &engine.Image{}
	for y := range engine.IMAGE_HEIGHT {
		for x := range engine.IMAGE_WIDTH {
			var value starlark.Value
			args := starlark.Tuple{starlark.MakeInt(x), starlark.MakeInt(y)}
			value, err = starlark.Call(thread, fn, args, nil)
			if err == nil {
				var pixel uint8
				pixel, err = toPixel(value)
				img.Set(x, y, pixel)
			}
			if err != nil {
				return nil, &ErrPixel{X: x, Y: y, Err: err}
			}
		}
	}

	return
}
