package feed

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/shapedet/engine"
)

// Selector picks one of the built-in test patterns.
type Selector uint8

const (
	SELECT_CIRCLE   = Selector(0)
	SELECT_SQUARE   = Selector(1)
	SELECT_TRIANGLE = Selector(2)
	SELECT_CUSTOM   = Selector(3)
)

const (
	PIXEL_ON  = 0xff
	PIXEL_OFF = 0x00

	CIRCLE_RADIUS   = 25
	SQUARE_SIZE     = 40
	TRIANGLE_APEX   = engine.IMAGE_HEIGHT / 3
	TRIANGLE_HEIGHT = engine.IMAGE_HEIGHT * 2 / 3
	CHECKER_SIZE    = engine.IMAGE_WIDTH / 10
)

var _feed_defines = map[string]string{
	"PIXEL_ON":        fmt.Sprintf("%v", PIXEL_ON),
	"PIXEL_OFF":       fmt.Sprintf("%v", PIXEL_OFF),
	"SELECT_CIRCLE":   fmt.Sprintf("%v", int(SELECT_CIRCLE)),
	"SELECT_SQUARE":   fmt.Sprintf("%v", int(SELECT_SQUARE)),
	"SELECT_TRIANGLE": fmt.Sprintf("%v", int(SELECT_TRIANGLE)),
	"SELECT_CUSTOM":   fmt.Sprintf("%v", int(SELECT_CUSTOM)),
}

// Defines returns the pattern constants as name/value pairs.
func Defines() iter.Seq2[string, string] {
	return maps.All(_feed_defines)
}

// draw builds an image from a predicate over pixel coordinates.
func draw(on func(x int, y int) bool) (img *engine.Image) {
	img = &engine.Image{}
	for y := range engine.IMAGE_HEIGHT {
		for x := range engine.IMAGE_WIDTH {
			if on(x, y) {
				img.Set(x, y, PIXEL_ON)
			}
		}
	}
	return
}

// Circle is a filled disc centered in the frame.
func Circle() *engine.Image {
	cx, cy := engine.IMAGE_WIDTH/2, engine.IMAGE_HEIGHT/2
	return draw(func(x, y int) bool {
		dx, dy := x-cx, y-cy
		return dx*dx+dy*dy <= CIRCLE_RADIUS*CIRCLE_RADIUS
	})
}

// Square is a filled square centered in the frame.
func Square() *engine.Image {
	lo := (engine.IMAGE_WIDTH - SQUARE_SIZE) / 2
	hi := lo + SQUARE_SIZE
	return draw(func(x, y int) bool {
		return x >= lo && x < hi && y >= lo && y < hi
	})
}

// Triangle is a filled isosceles triangle, apex up, widening by one pixel
// per row on each side.
func Triangle() *engine.Image {
	cx := engine.IMAGE_WIDTH / 2
	return draw(func(x, y int) bool {
		depth := y - TRIANGLE_APEX
		return depth >= 0 && y <= TRIANGLE_APEX+TRIANGLE_HEIGHT &&
			x >= cx-depth && x <= cx+depth
	})
}

// Checkerboard alternates CHECKER_SIZE squares, starting lit at the origin.
func Checkerboard() *engine.Image {
	return draw(func(x, y int) bool {
		return (x/CHECKER_SIZE+y/CHECKER_SIZE)%2 == 0
	})
}

// Generator is the test pattern collaborator: it maps a selector to a
// pixel stream.
type Generator struct {
	Custom *engine.Image // If set, replaces the checkerboard for SELECT_CUSTOM.
	Gap    int           // Passed to each Frame.
}

// Image returns the image for a selector.
func (gen *Generator) Image(sel Selector) (img *engine.Image, err error) {
	switch sel {
	case SELECT_CIRCLE:
		img = Circle()
	case SELECT_SQUARE:
		img = Square()
	case SELECT_TRIANGLE:
		img = Triangle()
	case SELECT_CUSTOM:
		img = gen.Custom
		if img == nil {
			img = Checkerboard()
		}
	default:
		err = ErrSelector
	}
	return
}

// Select returns the pixel stream for a selector.
func (gen *Generator) Select(sel Selector) (src Source, err error) {
	img, err := gen.Image(sel)
	if err != nil {
		return
	}

	src = &Frame{Image: img, Gap: gen.Gap}
	return
}
