// Package api exposes conversations, generations, and the library over HTTP.
//
// Routes are served by gin. Each conversation owns at most one in-flight
// generation, enforced with a weighted semaphore of size one; progress for the
// current attempt can be polled or streamed over a WebSocket. A failed or
// cancelled attempt may be retried by starting a new generation.
package api
