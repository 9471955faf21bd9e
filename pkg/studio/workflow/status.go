// Package workflow sequences the two-phase generation flow: configure,
// generate candidate directions, select, expand the selection into full
// assets, select again, persist. One controller instance drives one
// session; the state machine is written once and parameterized by the
// tool kind.
package workflow

// Status is the session's position in the workflow. Completed and
// Failed are terminal except for reset.
type Status string

const (
	StatusConfiguring         Status = "configuring"
	StatusGeneratingPrimary   Status = "generating_primary"
	StatusSelectingPrimary    Status = "selecting_primary"
	StatusGeneratingSecondary Status = "generating_secondary"
	StatusSelectingSecondary  Status = "selecting_secondary"
	StatusPersisting          Status = "persisting"
	StatusCompleted           Status = "completed"
	StatusFailed              Status = "failed"
)

// Generating reports whether an outbound call is in flight for this
// status. At most one call is in flight per session.
func (s Status) Generating() bool {
	switch s {
	case StatusGeneratingPrimary, StatusGeneratingSecondary, StatusPersisting:
		return true
	}
	return false
}

// Terminal reports whether the session has finished, successfully or
// not. Only reset leaves a terminal status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
