// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package rom holds the read-only weight and bias tables of the detector
// network, and the loaders for the asset formats produced by the model
// conversion tooling.
package rom

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/shapedet/fixed"
)

const (
	HIDDEN_WIDTH = 64 // Neurons in the pooled and hidden stages.
	CLASS_COUNT  = 3  // Output scores: circle, square, triangle.
)

// LayerIndex selects one of the three fully connected layers.
type LayerIndex int

const (
	LAYER_HIDDEN2 = LayerIndex(0) // layer2
	LAYER_HIDDEN3 = LayerIndex(1) // layer3
	LAYER_OUTPUT  = LayerIndex(2) // output
	LAYER_COUNT   = 3
)

// Shape is the fixed geometry of a layer.
type Shape struct {
	Name   string
	FanIn  int
	FanOut int
}

// Shapes of each layer, by LayerIndex.
var Shapes = [LAYER_COUNT]Shape{
	{Name: "layer2", FanIn: HIDDEN_WIDTH, FanOut: HIDDEN_WIDTH},
	{Name: "layer3", FanIn: HIDDEN_WIDTH, FanOut: HIDDEN_WIDTH},
	{Name: "output", FanIn: HIDDEN_WIDTH, FanOut: CLASS_COUNT},
}

var _rom_defines = map[string]string{
	"HIDDEN_WIDTH": fmt.Sprintf("%v", HIDDEN_WIDTH),
	"CLASS_COUNT":  fmt.Sprintf("%v", CLASS_COUNT),
}

// Layer is an immutable weight matrix and bias vector.
// Weights are row-major: weight(j, i) is at j*FanIn + i.
type Layer struct {
	Shape
	weights []fixed.Value
	biases  []fixed.Value
}

// NewLayer copies the tables into a new Layer, checking their sizes.
func NewLayer(shape Shape, weights []fixed.Value, biases []fixed.Value) (layer *Layer, err error) {
	if shape.FanIn <= 0 || shape.FanOut <= 0 {
		err = &ErrTable{Name: shape.Name, Err: ErrTableShape}
		return
	}
	if len(weights) != shape.FanIn*shape.FanOut {
		err = &ErrTable{Name: shape.Name + "_weights", Err: ErrTableSize}
		return
	}
	if len(biases) != shape.FanOut {
		err = &ErrTable{Name: shape.Name + "_biases", Err: ErrTableSize}
		return
	}

	layer = &Layer{
		Shape:   shape,
		weights: slices.Clone(weights),
		biases:  slices.Clone(biases),
	}

	return
}

// Weight returns the weight from input i to output neuron j.
func (layer *Layer) Weight(j int, i int) fixed.Value {
	return layer.weights[j*layer.FanIn+i]
}

// Bias returns the bias of output neuron j.
func (layer *Layer) Bias(j int) fixed.Value {
	return layer.biases[j]
}

// Weights iterates the weight table in storage order.
func (layer *Layer) Weights() iter.Seq[fixed.Value] {
	return slices.Values(layer.weights)
}

// Biases iterates the bias table in storage order.
func (layer *Layer) Biases() iter.Seq[fixed.Value] {
	return slices.Values(layer.biases)
}

// Rom is the complete set of layer tables. It is not modified after creation,
// and may be shared by any number of engines.
type Rom struct {
	Layer [LAYER_COUNT]*Layer
}

// New assembles a Rom from its three layers, which must match Shapes.
func New(layers ...*Layer) (rom *Rom, err error) {
	if len(layers) != LAYER_COUNT {
		err = ErrTableMiss
		return
	}

	rom = &Rom{}
	for n, layer := range layers {
		if layer == nil {
			err = &ErrTable{Name: Shapes[n].Name, Err: ErrTableMiss}
			return nil, err
		}
		if layer.Shape != Shapes[n] {
			err = &ErrTable{Name: Shapes[n].Name, Err: ErrTableShape}
			return nil, err
		}
		rom.Layer[n] = layer
	}

	return
}

// Zero returns a Rom where every weight and bias is zero.
func Zero() (rom *Rom) {
	rom = &Rom{}
	for n, shape := range Shapes {
		rom.Layer[n] = &Layer{
			Shape:   shape,
			weights: make([]fixed.Value, shape.FanIn*shape.FanOut),
			biases:  make([]fixed.Value, shape.FanOut),
		}
	}
	return
}

// FromFloat quantizes a float layer to Q1.15.
// weights[j][i] is the weight from input i to output neuron j.
func FromFloat(shape Shape, weights [][]float64, biases []float64) (layer *Layer, err error) {
	if len(weights) != shape.FanOut {
		err = &ErrTable{Name: shape.Name + "_weights", Err: ErrTableSize}
		return
	}

	var qw []fixed.Value
	for _, row := range weights {
		if len(row) != shape.FanIn {
			err = &ErrTable{Name: shape.Name + "_weights", Err: ErrTableSize}
			return
		}
		for _, w := range row {
			qw = append(qw, fixed.FromFloat(w))
		}
	}

	qb := make([]fixed.Value, len(biases))
	for n, b := range biases {
		qb[n] = fixed.FromFloat(b)
	}

	return NewLayer(shape, qw, qb)
}

// Defines returns the network geometry as name/value pairs.
func (rom *Rom) Defines() iter.Seq2[string, string] {
	return maps.All(_rom_defines)
}

// String summarizes the tables.
func (rom *Rom) String() (text string) {
	for _, layer := range rom.Layer {
		if layer == nil {
			continue
		}
		text += fmt.Sprintf("%-7s %2d -> %2d  weights:%4d biases:%2d\n",
			layer.Name, layer.FanIn, layer.FanOut, len(layer.weights), len(layer.biases))
	}
	return
}
