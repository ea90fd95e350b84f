// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package engine

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/shapedet/fixed"
	"github.com/ezrec/shapedet/internal"
	"github.com/ezrec/shapedet/rom"
)

// REQUEST_TICKS is the length of a request, from the start tick through the
// done tick, when the pixel stream has no gaps.
const REQUEST_TICKS = 1 + IMAGE_PIXELS +
	IMAGE_PIXELS + // preprocess
	POOL_REGIONS*POOL_SIZE*POOL_SIZE + // pool
	HIDDEN_WIDTH + // act-pool
	HIDDEN_WIDTH*(HIDDEN_WIDTH+2) + // layer2
	HIDDEN_WIDTH + // act2
	HIDDEN_WIDTH*(HIDDEN_WIDTH+2) + // layer3
	HIDDEN_WIDTH + // act3
	CLASS_COUNT*(HIDDEN_WIDTH+2) + // output
	CLASS_COUNT + // classify
	1 // done

var _engine_defines = map[string]string{
	"IMAGE_WIDTH":    fmt.Sprintf("%v", IMAGE_WIDTH),
	"IMAGE_HEIGHT":   fmt.Sprintf("%v", IMAGE_HEIGHT),
	"IMAGE_PIXELS":   fmt.Sprintf("%v", IMAGE_PIXELS),
	"POOL_GRID":      fmt.Sprintf("%v", POOL_GRID),
	"POOL_SIZE":      fmt.Sprintf("%v", POOL_SIZE),
	"REQUEST_TICKS":  fmt.Sprintf("%v", REQUEST_TICKS),
	"CLASS_UNKNOWN":  fmt.Sprintf("%v", int(CLASS_UNKNOWN)),
	"CLASS_CIRCLE":   fmt.Sprintf("%v", int(CLASS_CIRCLE)),
	"CLASS_SQUARE":   fmt.Sprintf("%v", int(CLASS_SQUARE)),
	"CLASS_TRIANGLE": fmt.Sprintf("%v", int(CLASS_TRIANGLE)),
}

// Input is the set of signals sampled on one tick.
type Input struct {
	Start  bool // Begin a request. Ignored unless idle.
	Reset  bool // Abandon any request and return to idle.
	Sample      // Pixel stream transfer, consumed while capturing.
}

// Engine is the simulation context of the classifier.
type Engine struct {
	Verbose bool // Set to log stage completions.

	Rom *rom.Rom // Weight and bias tables, shared read-only.

	Stage    Stage  // Current stage.
	Valid    bool   // Result valid pulse; high only while in STAGE_DONE.
	Result   Result // Last committed result, kept across resets.
	Ticks    int    // Ticks spent in the current, or last, request.
	Requests int    // Completed requests.

	capture Capture
	input   [IMAGE_PIXELS]fixed.Value
	pooled  [POOL_REGIONS]fixed.Value
	hidden2 [HIDDEN_WIDTH]fixed.Value
	hidden3 [HIDDEN_WIDTH]fixed.Value
	output  Scores

	index int               // Element, region, or neuron counter.
	step  int               // Offset within a region, or term within a neuron.
	acc   fixed.Accumulator // Running neuron sum.
	peak  fixed.Value       // Running maximum for pooling and classify.
	best  int               // Classify winner so far.
}

// NewEngine creates an idle engine using the given tables.
func NewEngine(tables *rom.Rom) (eng *Engine) {
	eng = &Engine{
		Rom: tables,
	}

	eng.clear()

	return
}

// Defines returns the engine geometry as name/value pairs.
func (eng *Engine) Defines() iter.Seq2[string, string] {
	seqs := []iter.Seq2[string, string]{
		maps.All(_engine_defines),
		fixed.Defines(),
	}
	if eng.Rom != nil {
		seqs = append(seqs, eng.Rom.Defines())
	}
	return internal.IterSeq2Concat(seqs...)
}

// Busy is true from the start tick until the engine is idle again.
func (eng *Engine) Busy() bool {
	return eng.Stage != STAGE_IDLE
}

// Done is the result-ready pulse.
func (eng *Engine) Done() bool {
	return eng.Stage == STAGE_DONE
}

// Captured is the number of pixels stored for the current frame.
func (eng *Engine) Captured() int {
	return eng.capture.Index()
}

// Image is the most recently captured frame.
func (eng *Engine) Image() *Image {
	return &eng.capture.Image
}

// String returns the engine state as a string.
func (eng *Engine) String() (text string) {
	text += fmt.Sprintf("%8s: %v\n", "stage", eng.Stage)
	text += fmt.Sprintf("%8s: %v\n", "busy", eng.Busy())
	text += fmt.Sprintf("%8s: %d\n", "ticks", eng.Ticks)
	text += fmt.Sprintf("%8s: %d\n", "captured", eng.capture.Index())
	text += fmt.Sprintf("%8s: %d.%d\n", "counter", eng.index, eng.step)
	text += fmt.Sprintf("%8s: %08X\n", "acc", uint32(eng.acc))
	text += fmt.Sprintf("%8s: %v\n", "valid", eng.Valid)
	text += fmt.Sprintf("%8s: %v %v\n", "result", eng.Result.Class, eng.Result.Scores)

	return
}

// clear zeros the per-request counters.
func (eng *Engine) clear() {
	eng.index = 0
	eng.step = 0
	eng.acc = 0
	eng.peak = fixed.MIN
	eng.best = 0
}

// Reset abandons any request in flight. The last committed Result is kept.
func (eng *Engine) Reset() {
	if eng.Verbose {
		log.Printf("engine: reset in %v tick=%d", eng.Stage, eng.Ticks)
	}

	eng.Stage = STAGE_IDLE
	eng.Valid = false
	eng.capture.Reset()
	eng.clear()
}

// advance moves to the next stage with fresh counters.
func (eng *Engine) advance() {
	if eng.Verbose {
		log.Printf("engine: %v complete tick=%d", eng.Stage, eng.Ticks)
	}

	eng.Stage = eng.Stage.Next()
	eng.clear()
}

// Tick performs a single scheduling step.
func (eng *Engine) Tick(in Input) {
	if in.Reset {
		eng.Reset()
		return
	}

	if eng.Stage != STAGE_IDLE {
		eng.Ticks++
	}

	switch eng.Stage {
	case STAGE_IDLE:
		if in.Start {
			eng.begin()
		}
	case STAGE_CAPTURE:
		if eng.capture.Push(in.Sample) {
			eng.advance()
		}
	case STAGE_PREPROCESS:
		eng.input[eng.index] = fixed.FromPixel(eng.capture.Image[eng.index])
		eng.index++
		if eng.index == IMAGE_PIXELS {
			eng.advance()
		}
	case STAGE_POOL:
		if eng.pool() {
			eng.advance()
		}
	case STAGE_ACT_POOL:
		if eng.activate(eng.pooled[:], fixed.Tanh) {
			eng.advance()
		}
	case STAGE_LAYER2:
		if eng.mac(eng.Rom.Layer[rom.LAYER_HIDDEN2], eng.pooled[:], eng.hidden2[:]) {
			eng.advance()
		}
	case STAGE_ACT2:
		if eng.activate(eng.hidden2[:], fixed.Tanh) {
			eng.advance()
		}
	case STAGE_LAYER3:
		if eng.mac(eng.Rom.Layer[rom.LAYER_HIDDEN3], eng.hidden2[:], eng.hidden3[:]) {
			eng.advance()
		}
	case STAGE_ACT3:
		if eng.activate(eng.hidden3[:], fixed.ReLU) {
			eng.advance()
		}
	case STAGE_OUTPUT:
		if eng.mac(eng.Rom.Layer[rom.LAYER_OUTPUT], eng.hidden3[:], eng.output[:]) {
			eng.advance()
		}
	case STAGE_CLASSIFY:
		if eng.classify() {
			eng.commit()
			eng.advance()
		}
	case STAGE_DONE:
		eng.Valid = false
		eng.advance()
	}
}

// begin starts a new request.
func (eng *Engine) begin() {
	if eng.Rom == nil {
		panic("engine: no weight tables")
	}

	if eng.Verbose {
		log.Printf("engine: start")
	}

	eng.capture.Reset()
	eng.clear()
	eng.Ticks = 1
	eng.Stage = STAGE_CAPTURE
}

// pool performs one region comparison.
func (eng *Engine) pool() (done bool) {
	x, y, ok := poolCoord(eng.index, eng.step)
	if ok {
		value := eng.input[y*IMAGE_WIDTH+x]
		if value > eng.peak {
			eng.peak = value
		}
	}

	eng.step++
	if eng.step < POOL_SIZE*POOL_SIZE {
		return
	}

	eng.pooled[eng.index] = eng.peak
	eng.peak = fixed.MIN
	eng.step = 0
	eng.index++

	return eng.index == POOL_REGIONS
}

// activate rewrites one element of vec.
func (eng *Engine) activate(vec []fixed.Value, fn func(fixed.Value) fixed.Value) (done bool) {
	vec[eng.index] = fn(vec[eng.index])
	eng.index++

	return eng.index == len(vec)
}

// mac performs one step of a neuron: seed the accumulator with the bias,
// add one weighted input, or store the truncated sum.
func (eng *Engine) mac(layer *rom.Layer, in []fixed.Value, out []fixed.Value) (done bool) {
	j := eng.index

	switch {
	case eng.step == 0:
		eng.acc = fixed.Seed(layer.Bias(j))
	case eng.step <= layer.FanIn:
		i := eng.step - 1
		eng.acc = eng.acc.Mac(layer.Weight(j, i), in[i])
	default:
		out[j] = eng.acc.Truncate()
		eng.acc = 0
		eng.step = 0
		eng.index++
		return eng.index == layer.FanOut
	}

	eng.step++
	return
}

// classify examines one score. The first score seeds the maximum; later
// scores replace it only when strictly greater.
func (eng *Engine) classify() (done bool) {
	n := eng.index
	if n == 0 || eng.output[n] > eng.peak {
		eng.best = n
		eng.peak = eng.output[n]
	}
	eng.index++

	return eng.index == CLASS_COUNT
}

// commit publishes the classification and raises the valid pulse.
func (eng *Engine) commit() {
	class := CLASS_UNKNOWN
	if eng.peak >= CLASS_THRESHOLD {
		class = CLASS_CIRCLE + Class(eng.best)
	}

	eng.Result = Result{Class: class, Scores: eng.output}
	eng.Valid = true
	eng.Requests++

	if eng.Verbose {
		log.Printf("engine: result %v scores=%v", class, eng.output)
	}
}
