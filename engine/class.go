package engine

import (
	"github.com/ezrec/shapedet/fixed"
	"github.com/ezrec/shapedet/rom"
)

// Class is the 2-bit classification code.
type Class int

//go:generate go tool stringer -linecomment -type=Class
const (
	CLASS_UNKNOWN  = Class(0) // unknown
	CLASS_CIRCLE   = Class(1) // circle
	CLASS_SQUARE   = Class(2) // square
	CLASS_TRIANGLE = Class(3) // triangle
)

const (
	CLASS_COUNT     = rom.CLASS_COUNT
	CLASS_THRESHOLD = fixed.HALF // Minimum winning score for a known class.
)

// Scores are the raw output layer values, indexed circle, square, triangle.
type Scores [CLASS_COUNT]fixed.Value

// Result is a committed classification.
type Result struct {
	Class  Class
	Scores Scores
}

// Argmax is the index of the highest score, lowest index on ties.
func Argmax(scores Scores) (best int) {
	for n := 1; n < CLASS_COUNT; n++ {
		if scores[n] > scores[best] {
			best = n
		}
	}
	return
}

// Classify picks the highest score; a later index wins only when strictly
// greater, so ties go to the lower index. A winner below CLASS_THRESHOLD is
// reported as unknown.
func Classify(scores Scores) Class {
	best := Argmax(scores)
	if scores[best] < CLASS_THRESHOLD {
		return CLASS_UNKNOWN
	}

	return CLASS_CIRCLE + Class(best)
}
