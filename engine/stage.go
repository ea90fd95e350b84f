package engine

// Stage is the single state selector of the engine.
type Stage int

//go:generate go tool stringer -linecomment -type=Stage
const (
	STAGE_IDLE       = Stage(0)  // idle
	STAGE_CAPTURE    = Stage(1)  // capture
	STAGE_PREPROCESS = Stage(2)  // preprocess
	STAGE_POOL       = Stage(3)  // pool
	STAGE_ACT_POOL   = Stage(4)  // act-pool
	STAGE_LAYER2     = Stage(5)  // layer2
	STAGE_ACT2       = Stage(6)  // act2
	STAGE_LAYER3     = Stage(7)  // layer3
	STAGE_ACT3       = Stage(8)  // act3
	STAGE_OUTPUT     = Stage(9)  // output
	STAGE_CLASSIFY   = Stage(10) // classify
	STAGE_DONE       = Stage(11) // done
)

// Next returns the stage that follows s in a request.
func (s Stage) Next() Stage {
	if s == STAGE_DONE {
		return STAGE_IDLE
	}
	return s + 1
}

// Steps is the number of ticks a stage takes, or 0 when it depends on
// the input (idle and capture).
func (s Stage) Steps() int {
	switch s {
	case STAGE_PREPROCESS:
		return IMAGE_PIXELS
	case STAGE_POOL:
		return POOL_REGIONS * POOL_SIZE * POOL_SIZE
	case STAGE_ACT_POOL, STAGE_ACT2, STAGE_ACT3:
		return HIDDEN_WIDTH
	case STAGE_LAYER2, STAGE_LAYER3:
		return HIDDEN_WIDTH * (HIDDEN_WIDTH + 2)
	case STAGE_OUTPUT:
		return CLASS_COUNT * (HIDDEN_WIDTH + 2)
	case STAGE_CLASSIFY:
		return CLASS_COUNT
	case STAGE_DONE:
		return 1
	}
	return 0
}
