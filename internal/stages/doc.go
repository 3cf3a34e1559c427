// Package stages implements the request/response steps the generation
// pipeline chains together: research, script writing, narration, and series
// planning.
//
// Each stage is an interface with one LLM- or speech-backed implementation.
// Stages hold no state between calls; the offline package supplies canned
// implementations of the same interfaces for demos and tests. Every error a
// stage returns is wrapped with services.Wrap so callers can recover the
// failing stage and failure class.
package stages
