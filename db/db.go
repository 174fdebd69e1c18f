package db

import (
	"context"
	"errors"
	"fmt"

	"hermannm.dev/widgets/report"
	"hermannm.dev/widgets/results"
)

// Runs SQL text against a database. Implementations return a *QueryError when the query fails,
// whether from malformed SQL or a database failure.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) (results.Set, error)
	Close() error
}

type StatementLibrary interface {
	ListStatements(ctx context.Context, scope string) ([]report.Statement, error)
	GetStatement(ctx context.Context, id string) (report.Statement, error)
	SaveStatement(ctx context.Context, statement report.Statement) (report.Statement, error)
}

// Persists named reports. Failures are returned as *PersistenceError.
type ReportStore interface {
	// Inserts the report if its ID is empty, or updates the report with its ID otherwise.
	// Returns the saved report with server-assigned fields filled in.
	SaveReport(ctx context.Context, report report.Report) (report.SavedReport, error)
	ListReports(ctx context.Context) ([]report.SavedReport, error)
	GetReport(ctx context.Context, id string) (report.SavedReport, error)
	DeleteReport(ctx context.Context, id string) error
}

type QueryError struct {
	Message string
	Err     error
}

// Creates a QueryError whose message is the database's own error message, so that it can be
// shown to the user verbatim.
func NewQueryError(err error) *QueryError {
	return &QueryError{Message: err.Error(), Err: err}
}

func (err *QueryError) Error() string {
	return err.Message
}

func (err *QueryError) Unwrap() error {
	return err.Err
}

type PersistenceOperation string

const (
	OperationSave   PersistenceOperation = "save"
	OperationList   PersistenceOperation = "list"
	OperationGet    PersistenceOperation = "get"
	OperationDelete PersistenceOperation = "delete"
)

type PersistenceError struct {
	Op PersistenceOperation
	// What was being persisted, e.g. "report" or "statement".
	Subject string
	Err     error
}

func (err *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", err.Op, err.Subject, err.Err)
}

func (err *PersistenceError) Unwrap() error {
	return err.Err
}

// Returned (wrapped) by stores when no record exists with the requested ID.
var ErrNotFound = errors.New("not found")
