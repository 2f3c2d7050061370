// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output and logs meant for people.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import (
	"fmt"
	"strings"

	"mkctf/internal/format"
	"mkctf/internal/runner"
)

var outcomeKinds = map[string]string{
	"completed":    "Completed",
	"timed-out":    "Timed out",
	"start-failed": "Failed to start",
}

// OutcomeKind returns the human-readable name for an outcome kind code.
// Unknown codes are returned as-is.
func OutcomeKind(code string) string {
	if name, ok := outcomeKinds[code]; ok {
		return name
	}
	return code
}

var actions = map[string]string{
	"build":  "Build",
	"deploy": "Deploy",
	"status": "Status check",
}

// Action returns the human-readable name for a lifecycle action.
func Action(code string) string {
	if name, ok := actions[code]; ok {
		return name
	}
	return code
}

// State returns "enabled" or "disabled".
func State(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// Summary is the one-line report of a lifecycle run:
// "Build of web/sqli: Completed (exit 0) in 850ms".
func Summary(action, id string, o runner.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s of %s: %s", Action(action), id, OutcomeKind(o.Kind.String()))
	switch o.Kind {
	case runner.Completed:
		if o.Signal != "" {
			fmt.Fprintf(&b, " (signal %s)", o.Signal)
		} else {
			fmt.Fprintf(&b, " (exit %d)", o.ExitCode)
		}
	case runner.StartFailed:
		fmt.Fprintf(&b, ": %v", o.Err)
		return b.String()
	}
	fmt.Fprintf(&b, " in %s", format.FmtDuration(o.Elapsed))
	return b.String()
}
