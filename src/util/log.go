// log.go centralises structured diagnostic logging for the lowering pipeline.

package util

import (
	log "github.com/sirupsen/logrus"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ---------------------
// ----- Constants -----
// ---------------------

// ---------------------
// ----- functions -----
// ---------------------

// Debugf logs a Debug-level trace of a lowering decision (closure synthesis, thunk-state
// generation, refcount helper emission). The type checker never logs; it only returns errors,
// see Check.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// DebugFields logs a Debug-level trace annotated with structured fields, for sites where a
// bare message loses context a reader would want (which definition, which record type).
func DebugFields(fields log.Fields, msg string) {
	log.WithFields(fields).Debug(msg)
}
