package api

import (
	"net/http"
	"strings"

	"hermannm.dev/widgets/report"
)

// Expects:
//   - optional query parameter 'scope': only list statements in this scope
//
// Returns:
//   - JSON-encoded []report.Statement
func (api WidgetAPI) ListStatements(res http.ResponseWriter, req *http.Request) {
	statements, err := api.statements.ListStatements(req.Context(), req.URL.Query().Get("scope"))
	if err != nil {
		sendServerError(res, err, "failed to list statements")
		return
	}

	sendJSON(res, statements)
}

// Expects:
//   - body: JSON-encoded report.Statement (ID is assigned if blank)
//
// Returns:
//   - JSON-encoded report.Statement
func (api WidgetAPI) CreateStatement(res http.ResponseWriter, req *http.Request) {
	var statement report.Statement
	if err := decodeBody(req, &statement); err != nil {
		sendClientError(res, err, "invalid request body")
		return
	}
	if strings.TrimSpace(statement.SQL) == "" {
		sendClientError(res, nil, "statement SQL is blank")
		return
	}

	saved, err := api.statements.SaveStatement(req.Context(), statement)
	if err != nil {
		sendServerError(res, err, "failed to save statement")
		return
	}

	sendJSON(res, saved)
}
