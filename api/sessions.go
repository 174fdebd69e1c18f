package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/builder"
	"hermannm.dev/widgets/export"
	"hermannm.dev/widgets/visualization"
)

// Builder sessions are kept in memory, and lost on restart.
type sessionRegistry struct {
	lock     sync.Mutex
	sessions map[string]*sessionEntry
}

// A builder session is not safe for concurrent use, so every request locks its entry.
type sessionEntry struct {
	lock    sync.Mutex
	session *builder.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*sessionEntry)}
}

func (registry *sessionRegistry) add(session *builder.Session) string {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	id := uuid.NewString()
	registry.sessions[id] = &sessionEntry{session: session}
	return id
}

func (registry *sessionRegistry) get(id string) (*sessionEntry, bool) {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	entry, ok := registry.sessions[id]
	return entry, ok
}

func (registry *sessionRegistry) remove(id string) (*sessionEntry, bool) {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	entry, ok := registry.sessions[id]
	delete(registry.sessions, id)
	return entry, ok
}

type CreateSessionRequest struct {
	// "new" or "existing".
	Mode      string `json:"mode"`
	TextFirst bool   `json:"textFirst,omitempty"`
	ReportID  string `json:"reportId,omitempty"`
}

type SessionResponse struct {
	ID    string        `json:"id"`
	State builder.State `json:"state"`
}

// Expects:
//   - body: JSON-encoded CreateSessionRequest
//
// Returns:
//   - JSON-encoded SessionResponse
func (api WidgetAPI) CreateSession(res http.ResponseWriter, req *http.Request) {
	var body CreateSessionRequest
	if err := decodeBody(req, &body); err != nil {
		sendClientError(res, err, "invalid request body")
		return
	}

	session := builder.NewSession(api.executor, api.store, api.statements)

	switch body.Mode {
	case "new":
		session.StartNew(body.TextFirst)
	case "existing":
		if body.ReportID == "" {
			sendClientError(res, nil, "missing 'reportId' for existing report")
			return
		}
		if err := session.OpenExisting(req.Context(), body.ReportID); err != nil {
			sendWorkflowError(res, err, "failed to open report")
			return
		}
	default:
		sendClientError(res, nil, fmt.Sprintf("invalid session mode '%s'", body.Mode))
		return
	}

	id := api.sessions.add(session)
	sendJSON(res, SessionResponse{ID: id, State: session.State()})
}

// Runs the given function on the session from the URL path while holding its lock, then
// responds with the session's new state.
func (api WidgetAPI) updateSession(
	res http.ResponseWriter,
	req *http.Request,
	errorMessage string,
	update func(session *builder.Session) error,
) {
	entry, ok := api.getSession(res, req)
	if !ok {
		return
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()

	if err := update(entry.session); err != nil {
		sendWorkflowError(res, err, errorMessage)
		return
	}

	sendJSON(res, entry.session.State())
}

func (api WidgetAPI) getSession(res http.ResponseWriter, req *http.Request) (*sessionEntry, bool) {
	id := chi.URLParam(req, "sessionID")
	entry, ok := api.sessions.get(id)
	if !ok {
		sendError(res, http.StatusNotFound, nil, fmt.Sprintf("no session with ID '%s'", id))
		return nil, false
	}
	return entry, true
}

// Returns:
//   - JSON-encoded builder.State
func (api WidgetAPI) GetSession(res http.ResponseWriter, req *http.Request) {
	api.updateSession(res, req, "", func(*builder.Session) error { return nil })
}

func (api WidgetAPI) DiscardSession(res http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "sessionID")
	entry, ok := api.sessions.remove(id)
	if !ok {
		sendError(res, http.StatusNotFound, nil, fmt.Sprintf("no session with ID '%s'", id))
		return
	}

	entry.lock.Lock()
	entry.session.Discard()
	entry.lock.Unlock()

	res.WriteHeader(http.StatusNoContent)
}

type SelectStatementRequest struct {
	StatementID string `json:"statementId"`
}

func (api WidgetAPI) SelectStatement(res http.ResponseWriter, req *http.Request) {
	var body SelectStatementRequest
	if err := decodeBody(req, &body); err != nil {
		sendClientError(res, err, "invalid request body")
		return
	}

	api.updateSession(res, req, "failed to select statement", func(session *builder.Session) error {
		return session.SelectStatement(req.Context(), body.StatementID)
	})
}

type SetSQLRequest struct {
	SQL string `json:"sql"`
}

func (api WidgetAPI) SetSQL(res http.ResponseWriter, req *http.Request) {
	var body SetSQLRequest
	if err := decodeBody(req, &body); err != nil {
		sendClientError(res, err, "invalid request body")
		return
	}

	api.updateSession(res, req, "failed to set SQL", func(session *builder.Session) error {
		return session.SetSQL(body.SQL)
	})
}

func (api WidgetAPI) UseInlineSQL(res http.ResponseWriter, req *http.Request) {
	api.updateSession(res, req, "failed to switch to inline SQL", (*builder.Session).UseInlineSQL)
}

func (api WidgetAPI) ResyncSQL(res http.ResponseWriter, req *http.Request) {
	api.updateSession(res, req, "failed to re-sync SQL with statement", (*builder.Session).ResyncSQL)
}

// Runs the session's current SQL. The session is unlocked while the query executes, so that the
// draft can be edited or discarded in the meantime; a superseded result is then dropped.
//
// Returns:
//   - JSON-encoded builder.State
func (api WidgetAPI) RunQuery(res http.ResponseWriter, req *http.Request) {
	entry, ok := api.getSession(res, req)
	if !ok {
		return
	}

	startRun := func(session *builder.Session) (*builder.RunTicket, error) {
		ticket, err := session.StartRun()
		if err != nil {
			return nil, err
		}
		return &ticket, nil
	}

	if err := api.runQuery(req.Context(), entry, startRun); err != nil {
		sendWorkflowError(res, err, "failed to run query")
		return
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()
	sendJSON(res, entry.session.State())
}

// Starts a run under the session lock, and executes it with the lock released so the session
// stays usable while the query is in flight. A nil ticket from start means nothing to run.
func (api WidgetAPI) runQuery(
	ctx context.Context,
	entry *sessionEntry,
	start func(session *builder.Session) (*builder.RunTicket, error),
) error {
	entry.lock.Lock()
	ticket, err := start(entry.session)
	entry.lock.Unlock()
	if err != nil || ticket == nil {
		return err
	}

	set, err := api.executor.Execute(ctx, ticket.SQL)
	if err != nil {
		log.ErrorCause(err, "report query failed")
	}

	entry.lock.Lock()
	entry.session.CompleteRun(*ticket, set, err)
	entry.lock.Unlock()

	return nil
}

// Expects:
//   - body: JSON-encoded visualization config, with its "type" field
func (api WidgetAPI) SetVisualization(res http.ResponseWriter, req *http.Request) {
	var body visualization.Envelope
	if err := decodeBody(req, &body); err != nil {
		sendClientError(res, err, "invalid visualization config")
		return
	}

	entry, ok := api.getSession(res, req)
	if !ok {
		return
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()

	if err := entry.session.SetVisualization(body.Config); err != nil {
		sendClientError(res, err, "failed to set visualization")
		return
	}

	sendJSON(res, entry.session.State())
}

type SetNameRequest struct {
	Name string `json:"name"`
}

func (api WidgetAPI) SetName(res http.ResponseWriter, req *http.Request) {
	var body SetNameRequest
	if err := decodeBody(req, &body); err != nil {
		sendClientError(res, err, "invalid request body")
		return
	}

	api.updateSession(res, req, "failed to set name", func(session *builder.Session) error {
		return session.SetName(body.Name)
	})
}

func (api WidgetAPI) NextStep(res http.ResponseWriter, req *http.Request) {
	api.updateSession(res, req, "failed to advance step", (*builder.Session).Next)
}

func (api WidgetAPI) PreviousStep(res http.ResponseWriter, req *http.Request) {
	api.updateSession(res, req, "failed to go back", (*builder.Session).Back)
}

type GoToStepRequest struct {
	Step builder.Step `json:"step"`
}

func (api WidgetAPI) GoToStep(res http.ResponseWriter, req *http.Request) {
	var body GoToStepRequest
	if err := decodeBody(req, &body); err != nil {
		sendClientError(res, err, "invalid request body")
		return
	}

	api.updateSession(res, req, "failed to change step", func(session *builder.Session) error {
		return session.GoTo(body.Step)
	})
}

// Applies the current step: runs the query on the source step, or refreshes the preview on the
// visualize step.
func (api WidgetAPI) ApplyStep(res http.ResponseWriter, req *http.Request) {
	entry, ok := api.getSession(res, req)
	if !ok {
		return
	}

	if err := api.runQuery(req.Context(), entry, (*builder.Session).StartApply); err != nil {
		sendWorkflowError(res, err, "failed to apply step")
		return
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()
	sendJSON(res, entry.session.State())
}

// Returns:
//   - JSON-encoded report.SavedReport
func (api WidgetAPI) FinishReport(res http.ResponseWriter, req *http.Request) {
	entry, ok := api.getSession(res, req)
	if !ok {
		return
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()

	saved, err := entry.session.Finish(req.Context())
	if err != nil {
		sendWorkflowError(res, err, "failed to save report")
		return
	}

	sendJSON(res, saved)
}

// Returns:
//   - JSON-encoded builder.Preview
func (api WidgetAPI) GetPreview(res http.ResponseWriter, req *http.Request) {
	entry, ok := api.getSession(res, req)
	if !ok {
		return
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()

	sendJSON(res, entry.session.Preview())
}

// Expects:
//   - query parameter 'format': csv or xlsx (default csv)
//
// Returns:
//   - the session's current result (or pivot grid) as a file download
func (api WidgetAPI) ExportSession(res http.ResponseWriter, req *http.Request) {
	format, ok := getExportFormat(res, req)
	if !ok {
		return
	}

	entry, ok := api.getSession(res, req)
	if !ok {
		return
	}

	entry.lock.Lock()
	defer entry.lock.Unlock()

	draft := entry.session.Draft()
	if !draft.HasFreshResult() {
		sendClientError(res, nil, "session has no current query result to export")
		return
	}

	filename := draft.Name
	if filename == "" {
		filename = "export"
	}
	sendExport(res, format, filename, *draft.Result, entry.session.Preview().Grid)
}

func getExportFormat(res http.ResponseWriter, req *http.Request) (export.Format, bool) {
	formatName := req.URL.Query().Get("format")
	if formatName == "" {
		return export.FormatCSV, true
	}

	format, err := export.ParseFormat(formatName)
	if err != nil {
		sendClientError(res, err, "")
		return 0, false
	}
	return format, true
}
