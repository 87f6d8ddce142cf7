// Package motion holds the marker motion model: the initial great-circle
// bearing between two points, the timed linear transition of a marker's
// position, and the short rotation smoothing toward a new heading.
//
// Everything here is pure or locally mutable. Nothing blocks, starts
// goroutines or synchronises; callers serialise events and ticks into a
// single Interpolator / Smoother and drive sampling from their own clock.
package motion
