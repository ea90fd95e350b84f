package feed

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/shapedet/engine"
)

func count(img *engine.Image) (lit int) {
	for _, pixel := range img {
		if pixel == PIXEL_ON {
			lit++
		}
	}
	return
}

func TestPatterns(t *testing.T) {
	assert := assert.New(t)

	sq := Square()
	assert.Equal(SQUARE_SIZE*SQUARE_SIZE, count(sq))
	assert.Equal(uint8(PIXEL_ON), sq.At(10, 10))
	assert.Equal(uint8(PIXEL_ON), sq.At(49, 49))
	assert.Equal(uint8(PIXEL_OFF), sq.At(50, 49))
	assert.Equal(uint8(PIXEL_OFF), sq.At(9, 10))

	ci := Circle()
	assert.Equal(uint8(PIXEL_ON), ci.At(30, 30))
	assert.Equal(uint8(PIXEL_ON), ci.At(30, 5))
	assert.Equal(uint8(PIXEL_OFF), ci.At(30, 4))
	assert.Equal(uint8(PIXEL_OFF), ci.At(0, 0))
	assert.InDelta(3.14159*25*25, float64(count(ci)), 100)
	for y := range engine.IMAGE_HEIGHT {
		for x := 1; x < engine.IMAGE_WIDTH; x++ {
			// Symmetric about x = 30.
			if mirror := 60 - x; mirror < engine.IMAGE_WIDTH {
				assert.Equal(ci.At(x, y), ci.At(mirror, y))
			}
		}
	}

	tri := Triangle()
	rowLit := func(y int) (lit int) {
		for x := range engine.IMAGE_WIDTH {
			if tri.At(x, y) == PIXEL_ON {
				lit++
			}
		}
		return
	}
	assert.Equal(0, rowLit(19))
	assert.Equal(1, rowLit(20))
	assert.Equal(uint8(PIXEL_ON), tri.At(30, 20))
	assert.Equal(11, rowLit(25))
	assert.Equal(59, rowLit(49))
	assert.Equal(60, rowLit(59))

	cb := Checkerboard()
	assert.Equal(uint8(PIXEL_ON), cb.At(0, 0))
	assert.Equal(uint8(PIXEL_ON), cb.At(5, 5))
	assert.Equal(uint8(PIXEL_OFF), cb.At(6, 0))
	assert.Equal(uint8(PIXEL_OFF), cb.At(0, 6))
	assert.Equal(uint8(PIXEL_ON), cb.At(6, 6))
	assert.Equal(engine.IMAGE_PIXELS/2, count(cb))
}

func TestGenerator(t *testing.T) {
	assert := assert.New(t)

	gen := &Generator{}
	table := []struct {
		Sel   Selector
		Image *engine.Image
	}{
		{Sel: SELECT_CIRCLE, Image: Circle()},
		{Sel: SELECT_SQUARE, Image: Square()},
		{Sel: SELECT_TRIANGLE, Image: Triangle()},
		{Sel: SELECT_CUSTOM, Image: Checkerboard()},
	}
	for _, tc := range table {
		img, err := gen.Image(tc.Sel)
		assert.NoError(err)
		assert.Equal(tc.Image, img, "selector %d", tc.Sel)
	}

	_, err := gen.Select(4)
	assert.ErrorIs(err, ErrSelector)

	gen.Custom = Square()
	src, err := gen.Select(SELECT_CUSTOM)
	assert.NoError(err)
	assert.Equal(Square(), src.(*Frame).Image)
}

func TestFrame(t *testing.T) {
	assert := assert.New(t)

	img := Triangle()
	fr := &Frame{Image: img}

	var got engine.Image
	n := 0
	for s := range fr.Receive() {
		assert.Equal(n == 0, s.FrameStart)
		assert.True(s.Valid)
		got[n] = s.Pixel
		n++
	}
	assert.Equal(engine.IMAGE_PIXELS, n)
	assert.Equal(*img, got)

	// Gaps are invalid samples that the capture skips.
	fr.Gap = 7
	capture := &engine.Capture{}
	samples := 0
	for s := range fr.Receive() {
		samples++
		capture.Push(s)
	}
	assert.Equal(engine.IMAGE_PIXELS+engine.IMAGE_PIXELS/7, samples)
	assert.True(capture.Complete())
	assert.Equal(*img, capture.Image)

	// Early stop.
	n = 0
	for range fr.Receive() {
		n++
		if n == 10 {
			break
		}
	}
	assert.Equal(10, n)
}

func TestTape(t *testing.T) {
	assert := assert.New(t)

	img := Circle()
	buf := &bytes.Buffer{}
	assert.NoError(WriteHex(buf, img))
	assert.Equal(engine.IMAGE_PIXELS*3, buf.Len())
	assert.True(strings.HasPrefix(buf.String(), "00\n"))

	text := buf.String()
	got, err := ReadHex(strings.NewReader(text))
	assert.NoError(err)
	assert.Equal(img, got)

	// Two frames on one tape.
	tape := &Tape{Input: strings.NewReader(text + "\n" + text)}
	starts := 0
	samples := 0
	for s := range tape.Receive() {
		samples++
		if s.FrameStart {
			starts++
		}
	}
	assert.NoError(tape.Err())
	assert.Equal(2, starts)
	assert.Equal(2*engine.IMAGE_PIXELS, samples)

	// A receive stopped early resumes mid-frame on the next call.
	tape = &Tape{Input: strings.NewReader(text + text)}
	samples = 0
	for range tape.Receive() {
		samples++
		if samples == 10 {
			break
		}
	}
	var starts_at []int
	for s := range tape.Receive() {
		if s.FrameStart {
			starts_at = append(starts_at, samples)
		}
		samples++
	}
	assert.NoError(tape.Err())
	assert.Equal([]int{engine.IMAGE_PIXELS}, starts_at)
	assert.Equal(2*engine.IMAGE_PIXELS, samples)

	// An exhausted tape stays exhausted.
	for range tape.Receive() {
		assert.Fail("sample after end of tape")
	}

	_, err = ReadHex(strings.NewReader("00\n01\n"))
	assert.ErrorIs(err, ErrShortImage)

	_, err = ReadHex(strings.NewReader(text + "ff\n"))
	assert.ErrorIs(err, ErrLongImage)

	_, err = ReadHex(strings.NewReader("00\n100\n"))
	assert.ErrorIs(err, ErrHexSyntax)
	var el *ErrLine
	assert.ErrorAs(err, &el)
	assert.Equal(2, el.LineNo)
}

func TestScript(t *testing.T) {
	assert := assert.New(t)

	sc := &Script{
		Name: "stripes.star",
		Source: `
def pixel(x, y):
    if x < IMAGE_WIDTH // 2:
        return PIXEL_ON
    return y % 2 == 0
`,
		Defines: maps.All(map[string]string{
			"IMAGE_WIDTH": "60",
			"PIXEL_ON":    "0xff",
			"NAME":        "not-a-number",
		}),
	}

	img, err := sc.Render()
	assert.NoError(err)
	assert.Equal(uint8(0xff), img.At(0, 1))
	assert.Equal(uint8(0xff), img.At(29, 1))
	assert.Equal(uint8(0xff), img.At(30, 0))
	assert.Equal(uint8(0x00), img.At(30, 1))

	table := []struct {
		Source string
		Err    error
	}{
		{Source: "x = 1\n", Err: ErrScript},
		{Source: "pixel = 3\n", Err: ErrScript},
		{Source: "def pixel(x, y):\n    return 256\n", Err: ErrPixelRange},
		{Source: "def pixel(x, y):\n    return -1\n", Err: ErrPixelRange},
		{Source: "def pixel(x, y):\n    return 'a'\n", Err: ErrPixelType},
	}
	for _, tc := range table {
		sc := &Script{Name: "bad.star", Source: tc.Source}
		_, err := sc.Render()
		assert.ErrorIs(err, tc.Err, tc.Source)
	}

	// Starlark errors are returned as-is.
	sc = &Script{Name: "broken.star", Source: "def pixel(x, y)\n"}
	_, err = sc.Render()
	assert.Error(err)

	sc = &Script{Name: "fail.star", Source: "def pixel(x, y):\n    return 0 if x < 3 else 1 // (x - 3)\n"}
	_, err = sc.Render()
	var ep *ErrPixel
	assert.ErrorAs(err, &ep)
	assert.Equal(3, ep.X)
	assert.Equal(0, ep.Y)
}

func TestImportImage(t *testing.T) {
	assert := assert.New(t)

	// Left half white, right half black, at twice the frame size.
	src := image.NewGray(image.Rect(0, 0, 120, 120))
	for y := range 120 {
		for x := range 60 {
			src.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	buf := &bytes.Buffer{}
	assert.NoError(png.Encode(buf, src))

	img, err := ImportImage(buf)
	assert.NoError(err)
	for y := range engine.IMAGE_HEIGHT {
		for x := range 25 {
			assert.Equal(uint8(0xff), img.At(x, y), "(%d, %d)", x, y)
			assert.Equal(uint8(0x00), img.At(59-x, y), "(%d, %d)", 59-x, y)
		}
	}

	// Color input is reduced to luminance before scaling.
	red := image.NewRGBA(image.Rect(0, 0, 90, 45))
	for y := range 45 {
		for x := range 90 {
			red.SetRGBA(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}
	buf.Reset()
	assert.NoError(png.Encode(buf, red))

	img, err = ImportImage(buf)
	assert.NoError(err)
	for n, pixel := range img {
		assert.InDelta(76, int(pixel), 1, "pixel %d", n)
	}

	_, err = ImportImage(strings.NewReader("not an image"))
	assert.ErrorIs(err, image.ErrFormat)
}
