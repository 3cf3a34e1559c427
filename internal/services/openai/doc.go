// Package openai adapts the official OpenAI SDK to episodic's backend
// contracts: ChatClient satisfies llm.Completer for text generation and
// SpeechClient synthesizes narration audio.
//
// Both clients translate SDK failures into services error markers so callers
// can tell a missing or rejected credential (ErrConfiguration) apart from a
// request failure (ErrExternalTool) or a deadline overrun (ErrTimeout).
package openai
