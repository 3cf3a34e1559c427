// Package offline provides deterministic stand-ins for every external
// service: a dialogue backend answering from a fixed table keyed by turn
// index, canned research, scripts, and outlines, and a speech synthesizer
// that renders silence. Each call waits for a configurable delay so progress
// reporting looks realistic in demos.
package offline
