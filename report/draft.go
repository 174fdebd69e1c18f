package report

import (
	"strings"
	"time"

	"hermannm.dev/enumnames"
	"hermannm.dev/widgets/results"
	"hermannm.dev/widgets/visualization"
)

type EntryMode int8

const (
	EntryModeNone EntryMode = iota
	EntryModeNew
	EntryModeExisting
)

var entryModeMap = enumnames.NewMap(map[EntryMode]string{
	EntryModeNone:     "none",
	EntryModeNew:      "new",
	EntryModeExisting: "existing",
})

func (mode EntryMode) IsValid() bool {
	return entryModeMap.ContainsEnumValue(mode)
}

func (mode EntryMode) String() string {
	return entryModeMap.GetNameOrFallback(mode, "INVALID_ENTRY_MODE")
}

func (mode EntryMode) MarshalJSON() ([]byte, error) {
	return entryModeMap.MarshalToNameJSON(mode)
}

func (mode *EntryMode) UnmarshalJSON(bytes []byte) error {
	return entryModeMap.UnmarshalFromNameJSON(bytes, mode)
}

// The mutable authoring state of a widget. The zero value is an empty draft with no entry
// choice made.
type Draft struct {
	EntryMode EntryMode
	// Empty unless editing a previously saved report.
	ReportID string

	Source Source
	SQL    string

	// The SQL text of the last completed run, with its result. Result is nil if the run failed
	// or nothing has run yet.
	ExecutedSQL string
	Result      *results.Set
	Error       string

	Visualization visualization.Config
	Name          string
}

func (draft Draft) IsText() bool {
	return draft.Visualization != nil && !draft.Visualization.Type().NeedsSource()
}

// Returns true if the held result was produced by running exactly the current SQL text.
func (draft Draft) HasFreshResult() bool {
	return draft.Result != nil && draft.Error == "" && draft.ExecutedSQL == draft.SQL
}

// The result to validate visualizations against. Empty if there is no result.
func (draft Draft) CurrentResult() results.Set {
	if draft.Result == nil {
		return results.Set{}
	}
	return *draft.Result
}

func (draft Draft) HasName() bool {
	return strings.TrimSpace(draft.Name) != ""
}

// The persistence record for the draft. The statement reference is dropped if the working SQL
// has diverged from the referenced statement.
func (draft Draft) ToReport() Report {
	return Report{
		ID:            draft.ReportID,
		Name:          draft.Name,
		StatementRef:  draft.Source.StatementRef(draft.SQL),
		SQL:           draft.SQL,
		Visualization: visualization.Envelope{Config: draft.Visualization},
	}
}

// Hydrates a draft from a saved report. statement is the library statement the report
// references, or nil for inline SQL.
func FromSaved(saved SavedReport, statement *Statement) Draft {
	draft := Draft{
		EntryMode:     EntryModeExisting,
		ReportID:      saved.ID,
		SQL:           saved.SQL,
		Visualization: saved.Visualization.Config,
		Name:          saved.Name,
	}
	if statement != nil {
		draft.Source = StatementSource(*statement)
	}
	return draft
}

type Report struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	StatementRef  *string                `json:"sqlStatementRef"`
	SQL           string                 `json:"sqlText"`
	Visualization visualization.Envelope `json:"visualizationConfig"`
}

type SavedReport struct {
	Report
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
