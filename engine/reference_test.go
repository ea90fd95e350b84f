package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/ezrec/shapedet/fixed"
	"github.com/ezrec/shapedet/rom"
)

// floatLayer computes a layer in floating point. Truncating the upper half
// of the accumulator halves the weighted sum and scales the bias by 2^-16.
func floatLayer(layer *rom.Layer, input []fixed.Value) (out []float64) {
	var weights []float64
	for w := range layer.Weights() {
		weights = append(weights, w.Float())
	}
	activations := make([]float64, len(input))
	for n, a := range input {
		activations[n] = a.Float()
	}

	w := mat.NewDense(layer.FanOut, layer.FanIn, weights)
	a := mat.NewVecDense(layer.FanIn, activations)

	var y mat.VecDense
	y.MulVec(w, a)

	out = make([]float64, layer.FanOut)
	for j := range out {
		out[j] = y.AtVec(j)/2 + layer.Bias(j).Float()/(1<<16)
	}
	return
}

func TestDenseFloatReference(t *testing.T) {
	assert := assert.New(t)

	// Small weights keep the sums inside the accumulator range.
	tables := randomRom(t, 11, 1<<9)
	rands := rand.New(rand.NewSource(12))

	lsb := 1.0 / fixed.ONE
	for _, layer := range tables.Layer {
		input := make([]fixed.Value, layer.FanIn)
		for i := range input {
			input[i] = fixed.Value(rands.Intn(1<<16) - (1 << 15))
		}

		output := make([]fixed.Value, layer.FanOut)
		Dense(layer, input, output)
		want := floatLayer(layer, input)

		for j := range output {
			// Truncation rounds toward negative infinity by less than one LSB.
			diff := want[j] - output[j].Float()
			assert.GreaterOrEqual(diff, -1e-9, "%v neuron %d", layer.Name, j)
			assert.Less(diff, lsb+1e-9, "%v neuron %d", layer.Name, j)
		}
	}
}

func TestNetworkFloatReference(t *testing.T) {
	assert := assert.New(t)

	tables := randomRom(t, 21, 1<<9)
	img := randomImage(22)

	result := Evaluate(tables, img)

	// Float path with the same activation approximations; each stage
	// may lose up to one LSB, which propagates through small weights.
	input := Preprocess(img)
	pooled := Pool(&input)
	Activate(pooled[:], fixed.Tanh)

	hidden := pooled[:]
	acts := []func(fixed.Value) fixed.Value{fixed.Tanh, fixed.ReLU, nil}
	var scores []float64
	for n, layer := range tables.Layer {
		exact := floatLayer(layer, hidden)
		next := make([]fixed.Value, len(exact))
		for j, v := range exact {
			next[j] = fixed.Value(math.Floor(v * fixed.ONE))
			if acts[n] != nil {
				next[j] = acts[n](next[j])
			}
		}
		hidden = next
		scores = exact
	}

	for j, score := range result.Scores {
		assert.InDelta(scores[j], score.Float(), 2.0/fixed.ONE, "class %d", j)
	}
}
