// Package xerrors re-exports github.com/cockroachdb/errors and defines the
// one error kind the engine's public contract raises: a malformed snapshot
// on deserialize (spec §7 — "Engine remains in the pre-call state; no
// partial restore").
package xerrors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New   = crdb.New
	Newf  = crdb.Newf
	Wrap  = crdb.Wrap
	Wrapf = crdb.Wrapf
	Is    = crdb.Is
	As    = crdb.As
)

// SnapshotFieldError reports a single malformed field encountered while
// deserializing a snapshot (spec §7: "InvalidSnapshot(field, reason)").
type SnapshotFieldError struct {
	Field  string
	Reason string
}

func (e *SnapshotFieldError) Error() string {
	return "invalid snapshot field " + e.Field + ": " + e.Reason
}

// InvalidSnapshot wraps a SnapshotFieldError with a stack trace via
// cockroachdb/errors, the pattern the rest of this module uses for every
// raised error.
func InvalidSnapshot(field, reason string) error {
	return Wrap(&SnapshotFieldError{Field: field, Reason: reason}, "deserialize")
}
