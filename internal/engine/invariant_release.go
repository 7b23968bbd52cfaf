//go:build !debug
// +build !debug

package engine

import log "github.com/sirupsen/logrus"

// reportInvariantViolation logs an engine invariant violation and
// carries on: a release build must keep the driver running rather
// than take down a user's keyboard over a single bad edge (spec §7).
func reportInvariantViolation(msg string) {
	log.Errorf("engine invariant violation: %s", msg)
}
