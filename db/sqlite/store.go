package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/report"
	"hermannm.dev/wrap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const InMemory = ":memory:"

// Implements db.ReportStore and db.StatementLibrary on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Opens the SQLite database at the given path, creating it if it does not exist. Use InMemory
// for a database that lives as long as the store.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap.Error(err, "failed to open SQLite database")
	}
	if path == InMemory {
		// Every connection to :memory: gets its own database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, wrap.Error(err, "failed to ping SQLite database")
	}

	return &Store{db: sqlDB, now: time.Now}, nil
}

// Runs all pending schema migrations.
func (store *Store) Migrate() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite"); err != nil {
		return wrap.Error(err, "failed to set migration dialect")
	}
	if err := goose.Up(store.db, "migrations"); err != nil {
		return wrap.Error(err, "failed to run migrations")
	}

	return nil
}

func (store *Store) MigrationVersion() (int64, error) {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, wrap.Error(err, "failed to set migration dialect")
	}
	return goose.GetDBVersion(store.db)
}

func (store *Store) Close() error {
	return store.db.Close()
}

func (store *Store) SaveReport(
	ctx context.Context,
	toSave report.Report,
) (report.SavedReport, error) {
	saved, err := store.saveReport(ctx, toSave)
	if err != nil {
		return report.SavedReport{}, reportError(db.OperationSave, err)
	}
	return saved, nil
}

func (store *Store) saveReport(
	ctx context.Context,
	toSave report.Report,
) (report.SavedReport, error) {
	visualization, err := json.Marshal(toSave.Visualization)
	if err != nil {
		return report.SavedReport{}, wrap.Error(err, "failed to encode visualization config")
	}

	if toSave.ID == "" {
		toSave.ID = uuid.NewString()
	}
	now := store.now().UnixMilli()

	if _, err := store.db.ExecContext(
		ctx,
		`INSERT INTO reports (id, name, statement_id, sql_text, visualization, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			statement_id = excluded.statement_id,
			sql_text = excluded.sql_text,
			visualization = excluded.visualization,
			updated_at = excluded.updated_at`,
		toSave.ID,
		toSave.Name,
		toSave.StatementRef,
		toSave.SQL,
		string(visualization),
		now,
		now,
	); err != nil {
		return report.SavedReport{}, wrap.Error(err, "insert query failed")
	}

	return store.getReport(ctx, toSave.ID)
}

func (store *Store) ListReports(ctx context.Context) ([]report.SavedReport, error) {
	rows, err := store.db.QueryContext(
		ctx,
		`SELECT id, name, statement_id, sql_text, visualization, created_at, updated_at
		FROM reports
		ORDER BY updated_at DESC, id`,
	)
	if err != nil {
		return nil, reportError(db.OperationList, err)
	}
	defer rows.Close()

	reports := []report.SavedReport{}
	for rows.Next() {
		saved, err := scanReport(rows)
		if err != nil {
			return nil, reportError(db.OperationList, err)
		}
		reports = append(reports, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, reportError(db.OperationList, err)
	}

	return reports, nil
}

func (store *Store) GetReport(ctx context.Context, id string) (report.SavedReport, error) {
	saved, err := store.getReport(ctx, id)
	if err != nil {
		return report.SavedReport{}, reportError(db.OperationGet, err)
	}
	return saved, nil
}

func (store *Store) getReport(ctx context.Context, id string) (report.SavedReport, error) {
	row := store.db.QueryRowContext(
		ctx,
		`SELECT id, name, statement_id, sql_text, visualization, created_at, updated_at
		FROM reports
		WHERE id = ?`,
		id,
	)

	saved, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return report.SavedReport{}, wrap.Errorf(db.ErrNotFound, "no report with ID '%s'", id)
	}
	return saved, err
}

func (store *Store) DeleteReport(ctx context.Context, id string) error {
	result, err := store.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return reportError(db.OperationDelete, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return reportError(db.OperationDelete, err)
	}
	if deleted == 0 {
		return reportError(
			db.OperationDelete, wrap.Errorf(db.ErrNotFound, "no report with ID '%s'", id),
		)
	}

	return nil
}

func (store *Store) ListStatements(
	ctx context.Context,
	scope string,
) ([]report.Statement, error) {
	query := "SELECT id, scope, name, sql_text, description FROM statements"
	var args []any
	if scope != "" {
		query += " WHERE scope = ?"
		args = append(args, scope)
	}
	query += " ORDER BY name, id"

	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, statementError(db.OperationList, err)
	}
	defer rows.Close()

	statements := []report.Statement{}
	for rows.Next() {
		var statement report.Statement
		if err := rows.Scan(
			&statement.ID,
			&statement.Scope,
			&statement.Name,
			&statement.SQL,
			&statement.Description,
		); err != nil {
			return nil, statementError(db.OperationList, err)
		}
		statements = append(statements, statement)
	}
	if err := rows.Err(); err != nil {
		return nil, statementError(db.OperationList, err)
	}

	return statements, nil
}

func (store *Store) GetStatement(ctx context.Context, id string) (report.Statement, error) {
	var statement report.Statement
	err := store.db.QueryRowContext(
		ctx,
		"SELECT id, scope, name, sql_text, description FROM statements WHERE id = ?",
		id,
	).Scan(&statement.ID, &statement.Scope, &statement.Name, &statement.SQL, &statement.Description)

	if errors.Is(err, sql.ErrNoRows) {
		err = wrap.Errorf(db.ErrNotFound, "no statement with ID '%s'", id)
	}
	if err != nil {
		return report.Statement{}, statementError(db.OperationGet, err)
	}

	return statement, nil
}

func (store *Store) SaveStatement(
	ctx context.Context,
	statement report.Statement,
) (report.Statement, error) {
	if statement.ID == "" {
		statement.ID = uuid.NewString()
	}

	if _, err := store.db.ExecContext(
		ctx,
		`INSERT INTO statements (id, scope, name, sql_text, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			scope = excluded.scope,
			name = excluded.name,
			sql_text = excluded.sql_text,
			description = excluded.description`,
		statement.ID,
		statement.Scope,
		statement.Name,
		statement.SQL,
		statement.Description,
		store.now().UnixMilli(),
	); err != nil {
		return report.Statement{}, statementError(db.OperationSave, err)
	}

	return statement, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (report.SavedReport, error) {
	var saved report.SavedReport
	var statementID sql.NullString
	var visualization string
	var createdAt, updatedAt int64

	if err := row.Scan(
		&saved.ID,
		&saved.Name,
		&statementID,
		&saved.SQL,
		&visualization,
		&createdAt,
		&updatedAt,
	); err != nil {
		return report.SavedReport{}, err
	}

	if statementID.Valid {
		saved.StatementRef = &statementID.String
	}
	if err := json.Unmarshal([]byte(visualization), &saved.Visualization); err != nil {
		return report.SavedReport{}, wrap.Errorf(
			err, "failed to decode visualization config of report '%s'", saved.ID,
		)
	}
	saved.CreatedAt = time.UnixMilli(createdAt).UTC()
	saved.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return saved, nil
}

func reportError(op db.PersistenceOperation, err error) error {
	return &db.PersistenceError{Op: op, Subject: "report", Err: err}
}

func statementError(op db.PersistenceOperation, err error) error {
	return &db.PersistenceError{Op: op, Subject: "statement", Err: err}
}
