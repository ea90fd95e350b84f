package engine

import (
	"fmt"
)

const (
	IMAGE_WIDTH  = 60
	IMAGE_HEIGHT = 60
	IMAGE_PIXELS = IMAGE_WIDTH * IMAGE_HEIGHT
)

// Image is a raster ordered 8-bit grayscale frame.
type Image [IMAGE_PIXELS]uint8

// At returns the pixel at column x, row y.
func (img *Image) At(x int, y int) uint8 {
	return img[y*IMAGE_WIDTH+x]
}

// Set stores the pixel at column x, row y.
func (img *Image) Set(x int, y int, pixel uint8) {
	img[y*IMAGE_WIDTH+x] = pixel
}

// Sample is one transfer on the pixel stream interface.
type Sample struct {
	FrameStart bool  // Marks the first sample of a frame.
	Valid      bool  // Pixel carries data.
	Pixel      uint8 // Raw grayscale value.
}

func (s Sample) String() string {
	var flags string
	if s.FrameStart {
		flags += "F"
	}
	if s.Valid {
		flags += "V"
	}
	return fmt.Sprintf("[%-2s] 0x%02x", flags, s.Pixel)
}

// Capture fills an Image from a pixel stream. Nothing is stored until a
// frame-start marker arms it; each valid sample then advances by one, and
// a new frame-start marker restarts at index 0.
type Capture struct {
	Image Image
	index int
	armed bool
}

// Reset disarms the capture, discarding any partial frame.
func (cb *Capture) Reset() {
	cb.index = 0
	cb.armed = false
}

// Index is the number of pixels captured in the current frame.
func (cb *Capture) Index() int {
	return cb.index
}

// Complete is true once all IMAGE_PIXELS pixels have been captured.
func (cb *Capture) Complete() bool {
	return cb.index == IMAGE_PIXELS
}

// Push consumes one sample, and reports whether the frame is complete.
func (cb *Capture) Push(s Sample) (complete bool) {
	if s.FrameStart {
		cb.index = 0
		cb.armed = true
	}

	if cb.armed && s.Valid && !cb.Complete() {
		cb.Image[cb.index] = s.Pixel
		cb.index++
	}

	return cb.Complete()
}
