// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package detector drives the classifier engine from a pixel source, one
// request at a time.
package detector

import (
	"errors"
	"iter"
	"log"

	"github.com/ezrec/shapedet/engine"
	"github.com/ezrec/shapedet/feed"
	"github.com/ezrec/shapedet/internal"
	"github.com/ezrec/shapedet/rom"
)

const (
	DEFAULT_MAX_TICKS = 4 * engine.REQUEST_TICKS // Tick budget per request.
)

// errSource is implemented by sources that can fail mid-stream.
type errSource interface {
	Err() error
}

// Detector state. Engine + pixel source.
type Detector struct {
	Verbose        bool // If set, enables verbose logging.
	*engine.Engine      // Reference to the engine simulation.

	MaxTicks int  // Tick budget per request; DEFAULT_MAX_TICKS if zero.
	Check    bool // If set, compare each result with engine.Evaluate.

	source feed.Source
	next   func() (engine.Sample, bool)
	stop   func()
	pulled int
}

// NewDetector creates a detector for the given tables.
func NewDetector(tables *rom.Rom) (det *Detector) {
	det = &Detector{
		Engine: engine.NewEngine(tables),
	}

	return
}

// Defines returns an iterator over all of the defines.
func (det *Detector) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(det.Engine.Defines(), feed.Defines())
}

// Close releases the pixel source.
func (det *Detector) Close() (err error) {
	det.release()
	det.source = nil

	return
}

// release stops any pull iterator on the source.
func (det *Detector) release() {
	if det.stop != nil {
		det.stop()
	}
	det.next = nil
	det.stop = nil
}

// pull fetches the next sample. A source that ends before any pixel of the
// request was transferred is rewound and received again.
func (det *Detector) pull() (sample engine.Sample, ok bool) {
	if det.next != nil {
		sample, ok = det.next()
		if ok && sample.Valid {
			det.pulled++
		}
		if ok || det.pulled > 0 {
			return
		}
	}

	det.release()
	det.source.Rewind()
	det.next, det.stop = iter.Pull(det.source.Receive())

	sample, ok = det.next()
	if ok && sample.Valid {
		det.pulled++
	}

	return
}

// Start begins a request reading pixels from src.
// The same source may be passed again to continue reading from it.
func (det *Detector) Start(src feed.Source) (err error) {
	if det.Busy() {
		err = ErrBusy
		return
	}

	if src != det.source {
		det.release()
		det.source = src
	}
	det.pulled = 0

	det.Engine.Verbose = det.Verbose
	det.Engine.Tick(engine.Input{Start: true})

	if det.Verbose {
		log.Printf("detector: start")
	}

	return
}

// Abort abandons the request in flight. The last result is kept.
func (det *Detector) Abort() {
	det.Engine.Tick(engine.Input{Reset: true})
	det.release()
}

// Tick performs a single tick of the detector. done is set on the tick
// that commits the result.
func (det *Detector) Tick() (done bool, err error) {
	stage := det.Stage
	defer func() {
		if err != nil {
			err = &ErrRequest{Tick: det.Ticks, Stage: stage, Err: err}
		}
	}()

	if !det.Busy() {
		err = ErrIdle
		return
	}

	var in engine.Input
	if stage == engine.STAGE_CAPTURE {
		var ok bool
		in.Sample, ok = det.pull()
		if !ok {
			err = ErrIncomplete
			if es, isErr := det.source.(errSource); isErr && es.Err() != nil {
				err = errors.Join(err, es.Err())
			}
			det.Abort()
			return
		}
	}

	det.Engine.Tick(in)

	limit := det.MaxTicks
	if limit == 0 {
		limit = DEFAULT_MAX_TICKS
	}
	if det.Busy() && det.Ticks >= limit {
		det.Abort()
		err = ErrStalled
		return
	}

	done = det.Valid
	return
}

// Detect runs one complete request and returns its result.
func (det *Detector) Detect(src feed.Source) (result engine.Result, err error) {
	err = det.Start(src)
	if err != nil {
		return
	}

	for done := false; !done; {
		done, err = det.Tick()
		if err != nil {
			return
		}
	}

	result = det.Result

	// Let the done pulse expire.
	_, err = det.Tick()
	if err != nil {
		return
	}

	if det.Check {
		want := engine.Evaluate(det.Rom, det.Image())
		if want != result {
			err = errors.Join(ErrMismatch, errors.New(f("got %v %v, want %v %v",
				result.Class, result.Scores, want.Class, want.Scores)))
			return
		}
	}

	if det.Verbose {
		log.Printf("detector: %v in %d ticks", result.Class, det.Ticks)
	}

	return
}
