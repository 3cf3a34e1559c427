// Package podcast holds the records shared by the conversation engine, the
// generation pipeline, and the persistence layer.
//
// The types are plain structs. GenerationParams is the only handoff between a
// finished conversation and a generation run; Podcast and Series are exactly
// what the library store persists. Clone helpers exist so callers can hand out
// snapshots without sharing slices.
package podcast
