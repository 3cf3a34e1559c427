// Package logs reads the episodic log file for the CLI "logs" command.
//
// Tail returns the last N lines (optionally filtered to one conversation or
// generation id) and, in follow mode, polls for appended lines from a byte
// offset so repeated calls never re-read the whole file.
package logs
