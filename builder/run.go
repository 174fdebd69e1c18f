package builder

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/results"
)

// Identifies a single query run, so that its result can be discarded if the draft has moved on
// by the time it completes.
type RunTicket struct {
	token uint64
	SQL   string
}

// Marks a run of the current SQL as in flight. Only one run may be in flight per session.
func (session *Session) StartRun() (RunTicket, error) {
	if session.running {
		return RunTicket{}, ErrRunInFlight
	}
	if err := session.checkSourceEditable(); err != nil {
		return RunTicket{}, err
	}
	if strings.TrimSpace(session.draft.SQL) == "" {
		return RunTicket{}, ErrNoSQL
	}

	session.running = true
	session.runToken++
	return RunTicket{token: session.runToken, SQL: session.draft.SQL}, nil
}

// Applies the outcome of a run to the draft. Returns false without changing anything if the run
// has been superseded, i.e. the draft was discarded or replaced while it was in flight.
//
// On failure, the error message is kept verbatim on the draft and any previous result is
// dropped, so the source step is no longer satisfied.
func (session *Session) CompleteRun(ticket RunTicket, set results.Set, err error) bool {
	if !session.running || ticket.token != session.runToken {
		return false
	}

	session.running = false
	session.draft.ExecutedSQL = ticket.SQL

	if err != nil {
		var queryErr *db.QueryError
		if errors.As(err, &queryErr) {
			session.draft.Error = queryErr.Message
		} else {
			session.draft.Error = err.Error()
		}
		session.draft.Result = nil
		return true
	}

	session.draft.Error = ""
	session.draft.Result = &set
	return true
}

// Runs the current SQL through the query executor and applies the result. A failing query is not
// returned as an error: it is logged and kept as the draft's inline error state.
func (session *Session) Run(ctx context.Context) error {
	ticket, err := session.StartRun()
	if err != nil {
		return err
	}

	session.execute(ctx, ticket)
	return nil
}

func (session *Session) execute(ctx context.Context, ticket RunTicket) {
	log.Debug("running report query", slog.String("sql", ticket.SQL))

	set, err := session.executor.Execute(ctx, ticket.SQL)
	if err != nil {
		log.ErrorCause(err, "report query failed")
	}

	session.CompleteRun(ticket, set, err)
}
