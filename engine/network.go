package engine

import (
	"github.com/ezrec/shapedet/fixed"
	"github.com/ezrec/shapedet/rom"
)

const (
	POOL_GRID    = 8 // Regions per side.
	POOL_SIZE    = 8 // Pixels per region side.
	POOL_REGIONS = POOL_GRID * POOL_GRID
	HIDDEN_WIDTH = rom.HIDDEN_WIDTH
)

// poolCoord maps a region and a scan offset inside it to image coordinates.
// Regions are row-major over the grid, offsets row-major inside a region.
// The grid covers 64x64 pixels, so the last row and column of regions reach
// past the image; those coordinates report ok == false and are skipped.
func poolCoord(region int, offset int) (x int, y int, ok bool) {
	x = (region%POOL_GRID)*POOL_SIZE + offset%POOL_SIZE
	y = (region/POOL_GRID)*POOL_SIZE + offset/POOL_SIZE
	ok = x < IMAGE_WIDTH && y < IMAGE_HEIGHT
	return
}

// Preprocess converts every pixel of img to its input activation.
func Preprocess(img *Image) (out [IMAGE_PIXELS]fixed.Value) {
	for n, pixel := range img {
		out[n] = fixed.FromPixel(pixel)
	}
	return
}

// Pool max-reduces each region of the input activations, skipping
// coordinates outside the image.
func Pool(input *[IMAGE_PIXELS]fixed.Value) (out [POOL_REGIONS]fixed.Value) {
	for region := range POOL_REGIONS {
		peak := fixed.MIN
		for offset := range POOL_SIZE * POOL_SIZE {
			x, y, ok := poolCoord(region, offset)
			if !ok {
				continue
			}
			peak = max(peak, input[y*IMAGE_WIDTH+x])
		}
		out[region] = peak
	}
	return
}

// Dense computes every neuron of layer over input into output.
func Dense(layer *rom.Layer, input []fixed.Value, output []fixed.Value) {
	for j := range layer.FanOut {
		acc := fixed.Seed(layer.Bias(j))
		for i := range layer.FanIn {
			acc = acc.Mac(layer.Weight(j, i), input[i])
		}
		output[j] = acc.Truncate()
	}
}

// Activate applies fn to every element of vec in place.
func Activate(vec []fixed.Value, fn func(fixed.Value) fixed.Value) {
	for n, v := range vec {
		vec[n] = fn(v)
	}
}

// Evaluate runs the whole network over img in one call. It produces the
// same Result as a request stepped through an Engine.
func Evaluate(tables *rom.Rom, img *Image) (result Result) {
	input := Preprocess(img)

	pooled := Pool(&input)
	Activate(pooled[:], fixed.Tanh)

	var hidden2, hidden3 [HIDDEN_WIDTH]fixed.Value
	Dense(tables.Layer[rom.LAYER_HIDDEN2], pooled[:], hidden2[:])
	Activate(hidden2[:], fixed.Tanh)
	Dense(tables.Layer[rom.LAYER_HIDDEN3], hidden2[:], hidden3[:])
	Activate(hidden3[:], fixed.ReLU)
	Dense(tables.Layer[rom.LAYER_OUTPUT], hidden3[:], result.Scores[:])

	result.Class = Classify(result.Scores)
	return
}
