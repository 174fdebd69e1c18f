package report

import (
	"encoding/json"
	"fmt"

	"hermannm.dev/widgets/visualization"
)

// A comparable fingerprint of the fields of a draft that affect what gets persisted. Transient
// state (run results, errors, entry mode) does not participate.
type Snapshot string

// The saved snapshot before any report has been loaded or saved.
const NoBaseline Snapshot = ""

type snapshotFields struct {
	SQL           string                 `json:"sql"`
	Visualization visualization.Envelope `json:"visualization"`
	Name          string                 `json:"name"`
	StatementID   string                 `json:"statementId"`
}

func TakeSnapshot(draft Draft) Snapshot {
	fields := snapshotFields{
		SQL:           draft.SQL,
		Visualization: visualization.Envelope{Config: draft.Visualization},
		Name:          draft.Name,
		StatementID:   draft.Source.StatementID(),
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		// Only reachable with a config of invalid type, which still needs a stable fingerprint
		return Snapshot(fmt.Sprintf("%#v", fields))
	}
	return Snapshot(encoded)
}

func HasUnsavedChanges(current Snapshot, saved Snapshot) bool {
	if saved == NoBaseline {
		return false
	}
	return current != saved
}

// Tracks the snapshot of the last loaded or saved state of a draft.
type ChangeTracker struct {
	baseline Snapshot
}

func (tracker *ChangeTracker) SetBaseline(draft Draft) {
	tracker.baseline = TakeSnapshot(draft)
}

func (tracker *ChangeTracker) Reset() {
	tracker.baseline = NoBaseline
}

func (tracker *ChangeTracker) HasBaseline() bool {
	return tracker.baseline != NoBaseline
}

func (tracker *ChangeTracker) HasUnsavedChanges(draft Draft) bool {
	return HasUnsavedChanges(TakeSnapshot(draft), tracker.baseline)
}
