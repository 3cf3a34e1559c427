// Package dialogue runs the clarification conversation that turns a topic
// into generation parameters.
//
// A Conversation is a small state machine. It starts in PhaseClarifying,
// asks the Backend one question per turn, and merges what the Classifier
// infers from each user reply into its Context. A backend reply carrying an
// episode plan moves it to PhaseApproval, where the user approves, modifies,
// or drops the plan in favour of a single episode. A readiness signal, or
// reaching the turn limit, moves it to PhaseReady. GenerationParams is the
// only output the generation pipeline consumes.
//
// Failed turns roll back: the transcript and context are left exactly as they
// were before the turn began, and the caller may resend.
package dialogue
