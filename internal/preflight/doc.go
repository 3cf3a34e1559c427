// Package preflight provides readiness checks for the directories and remote
// services a generation depends on.
//
// The CLI "config validate --check" command runs RunAll and prints one line
// per check. Remote checks are skipped in offline mode, and checks for
// unconfigured optional features report as skipped rather than failed.
package preflight
