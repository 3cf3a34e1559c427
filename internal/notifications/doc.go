// Package notifications publishes generation outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to check whether notifications are enabled. The
// completed and errors toggles in config.toml suppress individual outcomes.
package notifications
