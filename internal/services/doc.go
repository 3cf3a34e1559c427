// Package services defines shared utilities consumed by the generation stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp conversation IDs, generation IDs, stage names,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     stage that produced them, and the Classify/UserMessage pair that turns
//     them into the small user-facing catalog.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
