// Package pipeline turns GenerationParams into finished podcast artifacts.
//
// Generate runs research, script, and narration strictly in sequence for a
// single episode, or plans a series and runs the same chain once per episode.
// Progress is reported through a progress.Channel with fractions that never
// decrease across the whole run. Any stage failure aborts the attempt with no
// partial result; retrying means calling Generate again with the same
// params. A CancelToken stops the run before the next stage call without
// interrupting a call already in flight.
package pipeline
