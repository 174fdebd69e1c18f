package builder

import (
	"context"

	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/report"
	"hermannm.dev/widgets/results"
	"hermannm.dev/widgets/visualization"
	"hermannm.dev/wrap"
)

// A guided editing session for a single widget draft.
//
// All derived state (readiness, reachable step, unsaved changes) is recomputed from the draft on
// every call, so editing an earlier step after advancing can never leave a stale gate open.
//
// A Session is not safe for concurrent use. Callers that execute queries outside of the
// session's owner should use StartRun and CompleteRun instead of Run.
type Session struct {
	executor   db.QueryExecutor
	store      db.ReportStore
	statements db.StatementLibrary

	draft   report.Draft
	tracker report.ChangeTracker
	step    Step

	running  bool
	runToken uint64

	previewRevision int
}

func NewSession(
	executor db.QueryExecutor,
	store db.ReportStore,
	statements db.StatementLibrary,
) *Session {
	return &Session{executor: executor, store: store, statements: statements, step: StepStart}
}

// Starts a new empty draft. textFirst starts a text widget, which has no SQL source; otherwise
// the draft starts as a table.
func (session *Session) StartNew(textFirst bool) {
	var config visualization.Config = visualization.TableConfig{}
	if textFirst {
		config = visualization.TextConfig{}
	}

	session.reset(report.Draft{EntryMode: report.EntryModeNew, Visualization: config})
	session.tracker.Reset()
}

// Loads a saved report into the session, replacing the current draft. Non-text reports are run
// immediately, so that the source step can be satisfied without the user re-running the query.
// A failing run is kept as inline error state, not returned.
func (session *Session) OpenExisting(ctx context.Context, reportID string) error {
	saved, err := session.store.GetReport(ctx, reportID)
	if err != nil {
		log.ErrorCause(err, "failed to load report")
		return err
	}

	var statement *report.Statement
	if saved.StatementRef != nil {
		found, err := session.statements.GetStatement(ctx, *saved.StatementRef)
		if err != nil {
			log.ErrorCause(err, "referenced statement not found, opening report with inline SQL")
		} else {
			statement = &found
		}
	}

	session.reset(report.FromSaved(saved, statement))
	session.tracker.SetBaseline(session.draft)

	if !session.draft.IsText() && session.draft.SQL != "" {
		if err := session.Run(ctx); err != nil {
			return wrap.Error(err, "failed to run saved report query")
		}
	}

	session.step = session.ReachableStep()
	return nil
}

// Abandons the current draft, leaving the session as if no entry choice had been made. A run
// still in flight will be ignored when it completes.
func (session *Session) Discard() {
	session.reset(report.Draft{})
	session.tracker.Reset()
}

func (session *Session) reset(draft report.Draft) {
	session.draft = draft
	session.step = StepStart
	session.running = false
	session.runToken++
	session.previewRevision = 0
}

// Selects a statement from the library as the draft's source, replacing the working SQL with the
// statement's text.
func (session *Session) SelectStatement(ctx context.Context, statementID string) error {
	if err := session.checkSourceEditable(); err != nil {
		return err
	}

	statement, err := session.statements.GetStatement(ctx, statementID)
	if err != nil {
		log.ErrorCause(err, "failed to get statement")
		return err
	}

	session.draft.Source = report.StatementSource(statement)
	session.draft.SQL = statement.SQL
	return nil
}

// Switches the draft to inline SQL, keeping the current working SQL.
func (session *Session) UseInlineSQL() error {
	if err := session.checkSourceEditable(); err != nil {
		return err
	}

	session.draft.Source = report.InlineSource()
	return nil
}

// Resets the working SQL to the text of the referenced statement.
func (session *Session) ResyncSQL() error {
	if err := session.checkSourceEditable(); err != nil {
		return err
	}
	if session.draft.Source.IsInline() {
		return ErrNoStatement
	}

	session.draft.SQL = session.draft.Source.Statement.SQL
	return nil
}

func (session *Session) SetSQL(sql string) error {
	if err := session.checkSourceEditable(); err != nil {
		return err
	}

	session.draft.SQL = sql
	return nil
}

func (session *Session) checkSourceEditable() error {
	if session.draft.EntryMode == report.EntryModeNone {
		return ErrNoEntry
	}
	if session.draft.IsText() {
		return ErrTextHasNoSource
	}
	return nil
}

func (session *Session) SetVisualization(config visualization.Config) error {
	if session.draft.EntryMode == report.EntryModeNone {
		return ErrNoEntry
	}
	if config == nil {
		return ErrNilConfig
	}
	if err := config.Validate(); err != nil {
		return wrap.Error(err, "invalid visualization config")
	}

	session.draft.Visualization = config
	return nil
}

// Switches the visualization type, keeping the shared axis fields of the current config.
func (session *Session) SetVisualizationType(visualizationType visualization.Type) error {
	config, err := visualization.WithType(session.draft.Visualization, visualizationType)
	if err != nil {
		return err
	}
	return session.SetVisualization(config)
}

func (session *Session) SetName(name string) error {
	if session.draft.EntryMode == report.EntryModeNone {
		return ErrNoEntry
	}

	session.draft.Name = name
	return nil
}

// A copy of the current draft.
func (session *Session) Draft() report.Draft {
	return session.draft
}

func (session *Session) Step() Step {
	return session.step
}

func (session *Session) Loading() bool {
	return session.running
}

func (session *Session) Readiness() Readiness {
	draft := session.draft

	readiness := Readiness{
		Entry: draft.EntryMode != report.EntryModeNone,
		Name:  draft.HasName(),
	}

	if draft.IsText() {
		readiness.Source = true
	} else {
		readiness.Source = draft.Source.Selected(draft.SQL) && draft.HasFreshResult()
	}

	verdict, _ := session.checkVisualization()
	readiness.Visualization = verdict.Ready
	readiness.VisualizationReason = verdict.Reason

	return readiness
}

func (session *Session) ReachableStep() Step {
	return session.Readiness().ReachableStep()
}

func (session *Session) CanFinish() bool {
	return session.Readiness().CanFinish()
}

// Advisory only: true if the draft differs from the report as last loaded or saved.
func (session *Session) HasUnsavedChanges() bool {
	return session.tracker.HasUnsavedChanges(session.draft)
}

// Snapshot of the session for presentation.
type State struct {
	Step              Step                   `json:"step"`
	ReachableStep     Step                   `json:"reachableStep"`
	Readiness         Readiness              `json:"readiness"`
	CanFinish         bool                   `json:"canFinish"`
	HasUnsavedChanges bool                   `json:"hasUnsavedChanges"`
	Loading           bool                   `json:"loading"`
	EntryMode         report.EntryMode       `json:"entryMode"`
	ReportID          string                 `json:"reportId,omitempty"`
	StatementID       string                 `json:"statementId,omitempty"`
	SQL               string                 `json:"sql"`
	ExecutedSQL       string                 `json:"executedSql,omitempty"`
	Result            *results.Set           `json:"result,omitempty"`
	Columns           []results.Column       `json:"columns,omitempty"`
	Error             string                 `json:"error,omitempty"`
	Visualization     visualization.Envelope `json:"visualization"`
	Name              string                 `json:"name"`
	PreviewRevision   int                    `json:"previewRevision"`
}

func (session *Session) State() State {
	draft := session.draft
	readiness := session.Readiness()

	state := State{
		Step:              session.step,
		ReachableStep:     readiness.ReachableStep(),
		Readiness:         readiness,
		CanFinish:         readiness.CanFinish(),
		HasUnsavedChanges: session.HasUnsavedChanges(),
		Loading:           session.running,
		EntryMode:         draft.EntryMode,
		ReportID:          draft.ReportID,
		StatementID:       draft.Source.StatementID(),
		SQL:               draft.SQL,
		ExecutedSQL:       draft.ExecutedSQL,
		Result:            draft.Result,
		Error:             draft.Error,
		Visualization:     visualization.Envelope{Config: draft.Visualization},
		Name:              draft.Name,
		PreviewRevision:   session.previewRevision,
	}
	if draft.Result != nil {
		state.Columns = results.DeduceColumns(*draft.Result)
	}

	return state
}
