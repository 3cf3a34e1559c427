// Package progress delivers generation progress events to subscribed
// listeners.
//
// A Channel lives for one generation attempt. It clamps fractions so they never
// decrease, pins the done event to exactly 1.0, and stops delivering after the
// first terminal event (done, cancelled, or failed).
package progress
