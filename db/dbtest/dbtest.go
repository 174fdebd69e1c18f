// Package dbtest provides in-memory implementations of the db collaborator interfaces, for
// testing code that depends on them.
package dbtest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/report"
	"hermannm.dev/widgets/results"
	"hermannm.dev/wrap"
)

// A db.QueryExecutor returning canned results, keyed by the normalized SQL text.
type Executor struct {
	lock    sync.Mutex
	results map[string]results.Set
	errors  map[string]string
	// Every SQL text passed to Execute, in order.
	Executed []string
}

func NewExecutor() *Executor {
	return &Executor{results: make(map[string]results.Set), errors: make(map[string]string)}
}

func (executor *Executor) AddResult(sql string, set results.Set) {
	executor.lock.Lock()
	defer executor.lock.Unlock()
	executor.results[report.NormalizeSQL(sql)] = set
}

func (executor *Executor) AddError(sql string, message string) {
	executor.lock.Lock()
	defer executor.lock.Unlock()
	executor.errors[report.NormalizeSQL(sql)] = message
}

func (executor *Executor) Execute(ctx context.Context, sql string) (results.Set, error) {
	executor.lock.Lock()
	defer executor.lock.Unlock()

	executor.Executed = append(executor.Executed, sql)

	if err := ctx.Err(); err != nil {
		return results.Set{}, db.NewQueryError(err)
	}

	key := report.NormalizeSQL(sql)
	if message, ok := executor.errors[key]; ok {
		return results.Set{}, &db.QueryError{Message: message}
	}
	if set, ok := executor.results[key]; ok {
		return set, nil
	}
	return results.Set{}, &db.QueryError{Message: fmt.Sprintf("no such query: %s", sql)}
}

func (executor *Executor) Close() error {
	return nil
}

// A db.ReportStore and db.StatementLibrary kept in memory.
type Store struct {
	lock       sync.Mutex
	reports    map[string]report.SavedReport
	statements map[string]report.Statement
	// If set, every report operation fails with this error.
	FailWith error
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		reports:    make(map[string]report.SavedReport),
		statements: make(map[string]report.Statement),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (store *Store) SaveReport(
	ctx context.Context,
	toSave report.Report,
) (report.SavedReport, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	if store.FailWith != nil {
		return report.SavedReport{}, reportError(db.OperationSave, store.FailWith)
	}

	now := store.now()
	saved := report.SavedReport{Report: toSave, CreatedAt: now, UpdatedAt: now}
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	} else if existing, ok := store.reports[saved.ID]; ok {
		saved.CreatedAt = existing.CreatedAt
	}
	saved.StatementRef = clonePointer(saved.StatementRef)

	store.reports[saved.ID] = saved
	return saved, nil
}

func (store *Store) ListReports(ctx context.Context) ([]report.SavedReport, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	if store.FailWith != nil {
		return nil, reportError(db.OperationList, store.FailWith)
	}

	reports := make([]report.SavedReport, 0, len(store.reports))
	for _, saved := range store.reports {
		reports = append(reports, saved)
	}
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].UpdatedAt.Equal(reports[j].UpdatedAt) {
			return reports[i].UpdatedAt.After(reports[j].UpdatedAt)
		}
		return reports[i].ID < reports[j].ID
	})
	return reports, nil
}

func (store *Store) GetReport(ctx context.Context, id string) (report.SavedReport, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	if store.FailWith != nil {
		return report.SavedReport{}, reportError(db.OperationGet, store.FailWith)
	}

	saved, ok := store.reports[id]
	if !ok {
		return report.SavedReport{}, reportError(
			db.OperationGet, wrap.Errorf(db.ErrNotFound, "no report with ID '%s'", id),
		)
	}
	return saved, nil
}

func (store *Store) DeleteReport(ctx context.Context, id string) error {
	store.lock.Lock()
	defer store.lock.Unlock()

	if store.FailWith != nil {
		return reportError(db.OperationDelete, store.FailWith)
	}

	if _, ok := store.reports[id]; !ok {
		return reportError(
			db.OperationDelete, wrap.Errorf(db.ErrNotFound, "no report with ID '%s'", id),
		)
	}
	delete(store.reports, id)
	return nil
}

func (store *Store) ListStatements(
	ctx context.Context,
	scope string,
) ([]report.Statement, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	statements := []report.Statement{}
	for _, statement := range store.statements {
		if scope == "" || statement.Scope == scope {
			statements = append(statements, statement)
		}
	}
	slices.SortFunc(statements, func(a, b report.Statement) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.ID, b.ID))
	})
	return statements, nil
}

func (store *Store) GetStatement(ctx context.Context, id string) (report.Statement, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	statement, ok := store.statements[id]
	if !ok {
		return report.Statement{}, &db.PersistenceError{
			Op:      db.OperationGet,
			Subject: "statement",
			Err:     wrap.Errorf(db.ErrNotFound, "no statement with ID '%s'", id),
		}
	}
	return statement, nil
}

func (store *Store) SaveStatement(
	ctx context.Context,
	statement report.Statement,
) (report.Statement, error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	if statement.ID == "" {
		statement.ID = uuid.NewString()
	}
	store.statements[statement.ID] = statement
	return statement, nil
}

func reportError(op db.PersistenceOperation, err error) error {
	return &db.PersistenceError{Op: op, Subject: "report", Err: err}
}

func clonePointer[T any](pointer *T) *T {
	if pointer == nil {
		return nil
	}
	value := *pointer
	return &value
}
