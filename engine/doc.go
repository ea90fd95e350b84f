// Package engine implements the fixed-point shape classifier as an explicit
// state machine that advances exactly one scalar step per Tick.
//
// A request walks the stages
//
//	idle -> capture -> preprocess -> pool -> act-pool -> layer2 -> act2 ->
//	layer3 -> act3 -> output -> classify -> done -> idle
//
// Capture takes one pixel sample per tick, preprocessing converts one pixel,
// pooling performs one region comparison, each layer performs one
// multiply-accumulate, and each activation stage rewrites one element.
// Every stage has a statically bounded step count, so a request with a
// gap-free pixel stream always completes in REQUEST_TICKS ticks.
//
// The weight tables in rom are shared read-only; all activation buffers
// belong to the Engine and are overwritten by each request.
package engine
