// Package main hosts the episodic CLI entrypoint and command graph.
//
// Commands resolve configuration once, assemble the dialogue engine and the
// generation pipeline (online or offline), and render conversation turns,
// progress, and library listings for the terminal. The HTTP API is started
// from the serve command with the same wiring.
//
// Keep this package thin: behaviour lives in the internal packages and is
// surfaced here through commands and flags.
package main
