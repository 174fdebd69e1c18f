package report

import (
	"strings"

	"golang.org/x/text/cases"
)

// A named SQL statement from the statement library.
type Statement struct {
	ID          string `json:"id"`
	Scope       string `json:"scope"`
	Name        string `json:"name"`
	SQL         string `json:"sqlText"`
	Description string `json:"description"`
}

// Where a draft's SQL comes from: a statement from the library, or inline SQL when Statement is
// nil.
type Source struct {
	Statement *Statement `json:"statement,omitempty"`
}

func InlineSource() Source {
	return Source{}
}

func StatementSource(statement Statement) Source {
	return Source{Statement: &statement}
}

func (source Source) IsInline() bool {
	return source.Statement == nil
}

func (source Source) StatementID() string {
	if source.Statement == nil {
		return ""
	}
	return source.Statement.ID
}

// Returns true if the source counts as selected for the given working SQL. A statement source
// is only selected while the SQL still matches the statement text. Keeping the reference when
// the SQL diverges lets the user re-sync instead of picking the statement again.
func (source Source) Selected(sql string) bool {
	if source.Statement == nil {
		return strings.TrimSpace(sql) != ""
	}
	return SQLMatches(sql, source.Statement.SQL)
}

// The statement reference to persist with the given working SQL, or nil if the SQL no longer
// matches the referenced statement.
func (source Source) StatementRef(sql string) *string {
	if source.Statement == nil || !SQLMatches(sql, source.Statement.SQL) {
		return nil
	}
	id := source.Statement.ID
	return &id
}

// Collapses all whitespace runs to single spaces and case-folds the SQL text.
//
// This is a heuristic: queries that differ only in the case or whitespace of string literals
// or comments normalize to the same text.
func NormalizeSQL(sql string) string {
	collapsed := strings.Join(strings.Fields(sql), " ")
	return cases.Fold().String(collapsed)
}

func SQLMatches(sql1 string, sql2 string) bool {
	return NormalizeSQL(sql1) == NormalizeSQL(sql2)
}
