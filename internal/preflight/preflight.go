package preflight

import (
	"context"

	"episodic/internal/config"
	"episodic/internal/services/llm"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// Options selects which checks RunAll performs.
type Options struct {
	// Offline skips the remote service checks.
	Offline bool
	// Completer is probed for the text backend. When nil the backend check
	// only verifies the API key is present.
	Completer llm.Completer
}

// RunAll executes the preflight checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if opts.Offline {
		results = append(results,
			Result{Name: "Text backend", Passed: true, Skipped: true, Detail: "offline mode"},
			Result{Name: "Narration", Passed: true, Skipped: true, Detail: "offline mode"},
		)
	} else {
		results = append(results,
			CheckTextBackend(ctx, cfg.LLM, opts.Completer),
			CheckNarration(cfg.Narration),
		)
	}

	results = append(results, CheckNotifications(cfg.Notifications))
	return results
}

// Failed reports whether any non-skipped check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}
