// Package llm provides an OpenRouter-compatible chat client used by the
// clarification dialogue and the research, script, and planning stages.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send a system prompt plus transcript, receive the reply.
// Client.CompleteJSON / CompleteText: single-prompt conveniences.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: tolerant JSON decoding (code fences, surrounding prose).
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 4
// attempts by default). Context cancellation aborts retries immediately.
//
// # Errors
//
// Returned errors carry services markers: ErrConfiguration when no key is
// configured or the provider rejects it, ErrTimeout for deadline overruns, and
// ErrExternalTool for every other request failure.
package llm
