// Package playback manages short-lived audio owned by the component that
// requested it, such as a narration voice preview.
//
// A Handle is acquired, used, and released by one owner. There is no shared
// "current sound": starting a second preview means acquiring a second handle,
// and releasing one handle never touches another.
package playback
