//go:build debug
// +build debug

package engine

import log "github.com/sirupsen/logrus"

// reportInvariantViolation logs an engine invariant violation and, in
// debug builds, panics immediately so the offending sequence of edges
// is caught at the point it happened rather than surfacing later as a
// confusing downstream symptom (spec §7).
func reportInvariantViolation(msg string) {
	log.Errorf("engine invariant violation: %s", msg)
	panic("engine invariant violation: " + msg)
}
