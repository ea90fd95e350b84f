// Package feed supplies pixel streams to the detector: synthetic test
// patterns, scripted custom patterns, imported images, and hex pixel files.
package feed

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/ezrec/shapedet/engine"
)

// Source is an ordered pixel stream. The first valid sample of each frame
// carries the frame-start marker.
type Source interface {
	// Rewind restarts the stream from the first sample, where possible.
	Rewind()
	// Receive returns an iterator over the samples of the stream.
	Receive() iter.Seq[engine.Sample]
}

// Frame streams a complete in-memory image.
type Frame struct {
	Image *engine.Image
	Gap   int // If non-zero, an invalid sample follows every Gap pixels.
}

var _ Source = (*Frame)(nil)

// Rewind is a no-op; every Receive starts a fresh frame.
func (fr *Frame) Rewind() {
}

// Receive yields the pixels of the image in raster order.
func (fr *Frame) Receive() iter.Seq[engine.Sample] {
	return func(yield func(engine.Sample) bool) {
		for n, pixel := range fr.Image {
			if !yield(engine.Sample{FrameStart: n == 0, Valid: true, Pixel: pixel}) {
				return
			}
			if fr.Gap > 0 && (n+1)%fr.Gap == 0 {
				if !yield(engine.Sample{Pixel: pixel}) {
					return
				}
			}
		}
	}
}

// parsePixel converts a 2 digit hex word.
func parsePixel(word string) (pixel uint8, err error) {
	raw, err := strconv.ParseUint(word, 16, 8)
	if err != nil {
		err = ErrHexSyntax
		return
	}
	pixel = uint8(raw)
	return
}

// Tape streams pixels from hex text, one 2 digit word per line.
// A new frame starts after every IMAGE_PIXELS pixels. The read position is
// kept across Receive calls, so an abandoned iterator resumes where it
// stopped and frame starts stay on frame boundaries.
type Tape struct {
	Input io.Reader

	scanner *bufio.Scanner
	lineNo  int
	count   int // Pixels received so far.
	err     error
}

var _ Source = (*Tape)(nil)

// Rewind is not possible on a tape.
func (tc *Tape) Rewind() {
}

// Err returns the first syntax or read error seen by Receive.
func (tc *Tape) Err() error {
	return tc.err
}

// Receive yields one sample per non-blank line, stopping at the first error.
func (tc *Tape) Receive() iter.Seq[engine.Sample] {
	return func(yield func(engine.Sample) bool) {
		if tc.err != nil {
			return
		}
		if tc.scanner == nil {
			tc.scanner = bufio.NewScanner(tc.Input)
		}

		for tc.scanner.Scan() {
			tc.lineNo++
			line := tc.scanner.Text()
			word := strings.TrimSpace(line)
			if len(word) == 0 {
				continue
			}
			pixel, err := parsePixel(word)
			if err != nil {
				tc.err = &ErrLine{LineNo: tc.lineNo, Line: line, Err: err}
				return
			}
			sample := engine.Sample{FrameStart: tc.count%engine.IMAGE_PIXELS == 0, Valid: true, Pixel: pixel}
			tc.count++
			if !yield(sample) {
				return
			}
		}
		if err := tc.scanner.Err(); err != nil {
			tc.err = err
		}
	}
}

// ReadHex reads a single image from hex text.
func ReadHex(r io.Reader) (img *engine.Image, err error) {
	tape := &Tape{Input: r}

	img = &engine.Image{}
	count := 0
	for sample := range tape.Receive() {
		if count == engine.IMAGE_PIXELS {
			err = ErrLongImage
			return nil, err
		}
		img[count] = sample.Pixel
		count++
	}

	err = tape.Err()
	if err != nil {
		return nil, err
	}

	if count != engine.IMAGE_PIXELS {
		return nil, ErrShortImage
	}

	return
}

// WriteHex writes an image as hex text, one pixel per line.
func WriteHex(w io.Writer, img *engine.Image) (err error) {
	out := bufio.NewWriter(w)
	for _, pixel := range img {
		_, err = fmt.Fprintf(out, "%02x\n", pixel)
		if err != nil {
			return
		}
	}
	return out.Flush()
}
