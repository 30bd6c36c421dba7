// Package dbpush defines the relational-push boundary and a PostgreSQL
// reference implementation. The push sequence is:
// resolve connection secret, open a bounded pool, record the analysis in
// the metadata tables, create or additively migrate the target table,
// bulk-load rows, report a row count.
package dbpush

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/beefcake-data/beefcake/internal/config"
	"github.com/beefcake-data/beefcake/internal/model"
	"github.com/beefcake-data/beefcake/internal/secretstore"
)

// maxPoolConns bounds the connection pool per push to a small, fixed size.
const maxPoolConns = 5

// PushResult summarises a completed push.
type PushResult struct {
	Table      string
	RowsPushed int64
	AnalysisID int64
}

// Target names the database a push writes to: either a saved connection
// (password resolved through the secret store) or a literal DSN/URL, as
// accepted directly by lib/pq for `import --db-url`.
type Target struct {
	Conn *config.SavedConnection
	URL  string
}

// DBPusher sends a materialised DataFrame to a relational target, first
// recording report in the analyses/column_summaries metadata tables.
type DBPusher interface {
	Push(ctx context.Context, df *model.DataFrame, report model.AnalysisReport, table string, target Target) (PushResult, error)
}

// PostgresPusher implements DBPusher against PostgreSQL using lib/pq's
// COPY protocol for the bulk load, the idiomatic Go equivalent of
// streaming rows through a temp file.
type PostgresPusher struct {
	secrets secretstore.SecretStore
}

// NewPostgresPusher builds a pusher that resolves saved-connection
// passwords through secrets.
func NewPostgresPusher(secrets secretstore.SecretStore) *PostgresPusher {
	return &PostgresPusher{secrets: secrets}
}

func (p *PostgresPusher) open(target Target) (*sql.DB, error) {
	if target.URL != "" {
		return openPool(target.URL)
	}
	if target.Conn == nil {
		return nil, model.Context(model.ErrDatabaseTransport, "dbpush.open", fmt.Errorf("no connection or db-url supplied"))
	}
	conn := *target.Conn
	password := ""
	if conn.SecretRef != "" {
		pw, err := p.secrets.Get(conn.SecretRef)
		if err != nil {
			return nil, model.Context(model.ErrDatabaseTransport, "dbpush.resolve_secret", err)
		}
		password = pw
	}
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		conn.Host, conn.Port, conn.Database, conn.User, password, sslModeOrDefault(conn.SSLMode))
	return openPool(dsn)
}

func openPool(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, model.Context(model.ErrDatabaseTransport, "dbpush.open", err)
	}
	db.SetMaxOpenConns(maxPoolConns)
	db.SetMaxIdleConns(maxPoolConns)
	return db, nil
}

func sslModeOrDefault(mode string) string {
	if mode == "" {
		return "require"
	}
	return mode
}

// Push ensures the analyses/column_summaries metadata tables exist,
// records report as one analyses row plus one column_summaries row per
// column, then creates/migrates the target data table and bulk-loads
// df's rows via CopyIn.
func (p *PostgresPusher) Push(ctx context.Context, df *model.DataFrame, report model.AnalysisReport, table string, target Target) (PushResult, error) {
	db, err := p.open(target)
	if err != nil {
		return PushResult{}, err
	}
	defer db.Close()

	analysisID, err := recordAnalysis(ctx, db, report)
	if err != nil {
		return PushResult{}, err
	}

	if err := ensureTable(ctx, db, table, df.Schema()); err != nil {
		return PushResult{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return PushResult{}, model.Context(model.ErrDatabaseTransport, "dbpush.begin", err)
	}

	colNames := df.Schema().Names()
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, colNames...))
	if err != nil {
		tx.Rollback()
		return PushResult{}, model.Context(model.ErrDatabaseTransport, "dbpush.prepare_copy", err)
	}

	var pushed int64
	for i := 0; i < df.NumRows(); i++ {
		if ctx.Err() != nil {
			stmt.Close()
			tx.Rollback()
			return PushResult{}, model.Aborted
		}
		row := df.Row(i)
		args := make([]interface{}, len(row.Vals))
		for j, v := range row.Vals {
			args[j] = valueToSQL(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			tx.Rollback()
			return PushResult{}, model.Context(model.ErrDatabaseTransport, "dbpush.copy_row", err)
		}
		pushed++
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		tx.Rollback()
		return PushResult{}, model.Context(model.ErrDatabaseTransport, "dbpush.copy_flush", err)
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return PushResult{}, model.Context(model.ErrDatabaseTransport, "dbpush.copy_close", err)
	}
	if err := tx.Commit(); err != nil {
		return PushResult{}, model.Context(model.ErrDatabaseTransport, "dbpush.commit", err)
	}
	return PushResult{Table: table, RowsPushed: pushed, AnalysisID: analysisID}, nil
}

// recordAnalysis ensures the analyses/column_summaries metadata tables
// exist, inserts one analyses row for report, then one column_summaries
// row per column, returning the new analyses.id.
func recordAnalysis(ctx context.Context, db *sql.DB, report model.AnalysisReport) (int64, error) {
	if err := ensureMetadataTables(ctx, db); err != nil {
		return 0, err
	}

	var analysisID int64
	err := db.QueryRowContext(ctx,
		`insert into analyses (file_path, file_size, health_score) values ($1, $2, $3) returning id`,
		report.FilePath, report.FileSizeBytes, report.Health.Score,
	).Scan(&analysisID)
	if err != nil {
		return 0, model.Context(model.ErrDatabaseTransport, "dbpush.insert_analysis", err)
	}

	for _, col := range report.Columns {
		stats, err := json.Marshal(col.Stats)
		if err != nil {
			return 0, model.Context(model.ErrDatabaseTransport, "dbpush.marshal_column_stats", err)
		}
		_, err = db.ExecContext(ctx,
			`insert into column_summaries
			 (analysis_id, column_name, kind, row_count, null_count, interpretation, business_summary, ml_advice, stats)
			 values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			analysisID, col.Name, string(col.Kind), col.Count, col.Nulls,
			strings.Join(col.Interpretation, " "), strings.Join(col.BusinessSummary, " "),
			strings.Join(col.MLAdvice, " "), stats)
		if err != nil {
			return 0, model.Context(model.ErrDatabaseTransport, "dbpush.insert_column_summary", err)
		}
	}
	return analysisID, nil
}

func ensureMetadataTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`create table if not exists analyses (
			id serial primary key,
			file_path text,
			file_size bigint,
			health_score double precision,
			created_at timestamptz default now()
		)`,
		`create table if not exists column_summaries (
			id serial primary key,
			analysis_id integer references analyses(id),
			column_name text,
			kind text,
			row_count bigint,
			null_count bigint,
			interpretation text,
			business_summary text,
			ml_advice text,
			stats jsonb
		)`,
	}
	for _, ddl := range stmts {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return model.Context(model.ErrDatabaseTransport, "dbpush.ensure_metadata_tables", err)
		}
	}
	return nil
}

func ensureTable(ctx context.Context, db *sql.DB, table string, schema model.Schema) error {
	var exists bool
	err := db.QueryRowContext(ctx,
		`select exists(select 1 from information_schema.tables where table_name = $1)`, table).Scan(&exists)
	if err != nil {
		return model.Context(model.ErrDatabaseTransport, "dbpush.check_table", err)
	}

	if !exists {
		cols := make([]string, len(schema.Fields))
		for i, f := range schema.Fields {
			cols[i] = fmt.Sprintf("%q %s", f.Name, pgType(f.DType))
		}
		ddl := fmt.Sprintf("create table %q (%s)", table, strings.Join(cols, ", "))
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return model.Context(model.ErrDatabaseTransport, "dbpush.create_table", err)
		}
		return nil
	}

	existing, err := existingColumns(ctx, db, table)
	if err != nil {
		return err
	}
	for _, f := range schema.Fields {
		if existing[f.Name] {
			continue
		}
		ddl := fmt.Sprintf("alter table %q add column %q %s", table, f.Name, pgType(f.DType))
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return model.Context(model.ErrDatabaseTransport, "dbpush.alter_table", err)
		}
	}
	return nil
}

func existingColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		`select column_name from information_schema.columns where table_name = $1`, table)
	if err != nil {
		return nil, model.Context(model.ErrDatabaseTransport, "dbpush.existing_columns", err)
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, model.Context(model.ErrDatabaseTransport, "dbpush.existing_columns", err)
		}
		out[name] = true
	}
	return out, nil
}

func pgType(dt model.DType) string {
	switch dt {
	case model.DTypeInt64:
		return "bigint"
	case model.DTypeFloat64:
		return "double precision"
	case model.DTypeBool:
		return "boolean"
	case model.DTypeDate:
		return "date"
	case model.DTypeDatetime:
		return "timestamptz"
	default:
		return "text"
	}
}

func valueToSQL(v model.Value) interface{} {
	if v.Null {
		return nil
	}
	switch v.Kind {
	case model.DTypeInt64:
		return v.I
	case model.DTypeFloat64:
		return v.F
	case model.DTypeBool:
		return v.B
	case model.DTypeDate, model.DTypeDatetime:
		return v.T
	default:
		return v.S
	}
}
