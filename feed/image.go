package feed

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"

	"github.com/ezrec/shapedet/engine"
)

// ImportImage decodes a PNG or JPEG, converts it to grayscale, and scales
// it to the frame size with bilinear interpolation.
func ImportImage(r io.Reader) (img *engine.Image, err error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return
	}

	gray := image.NewGray(src.Bounds())
	draw.Draw(gray, gray.Bounds(), src, src.Bounds().Min, draw.Src)

	scaled := resize.Resize(engine.IMAGE_WIDTH, engine.IMAGE_HEIGHT, gray, resize.Bilinear)
	bounds := scaled.Bounds()

	img = &engine.Image{}
	for y := range engine.IMAGE_HEIGHT {
		for x := range engine.IMAGE_WIDTH {
			pixel := color.GrayModel.Convert(scaled.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			img.Set(x, y, pixel.Y)
		}
	}

	return
}
