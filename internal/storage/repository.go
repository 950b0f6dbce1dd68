package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"purchases/internal/core"
	ports "purchases/internal/sheets"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Snapshot describes the table currently stored in the database.
type Snapshot struct {
	ID           string
	Source       string
	RowCount     int
	ExtraColumns []string
	Columns      []string
	CreatedAt    time.Time
}

// SQLiteRepository stores one cleaned table snapshot. It is written by the
// export command and read back as a table source.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

var (
	_ ports.TableSource = (*SQLiteRepository)(nil)
	_ ports.TableWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Snapshot schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SourceID implements sheets.TableSource
func (r *SQLiteRepository) SourceID() string { return "sqlite:" + r.path }

// SaveTable implements sheets.TableWriter. The previous snapshot is replaced
// atomically.
func (r *SQLiteRepository) SaveTable(ctx context.Context, t *core.Table) (int, error) {
	extraCols, err := json.Marshal(nonNil(t.ExtraColumns()))
	if err != nil {
		return 0, fmt.Errorf("encode extra columns: %w", err)
	}
	columns, err := json.Marshal(nonNil(t.Columns()))
	if err != nil {
		return 0, fmt.Errorf("encode columns: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return 0, fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return 0, fmt.Errorf("clear snapshots: %w", err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, row_count, extra_columns, columns, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, t.Source(), t.Len(), string(extraCols), string(columns), time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(snapshot_id, tx_date, amount, quantity, unit, category, product, supplier, extras)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		extras, err := json.Marshal(nonNil(t.ExtraValues(i)))
		if err != nil {
			return 0, fmt.Errorf("encode extras for row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, row.Date.String(), row.Amount, row.Quantity,
			row.Unit, row.Category, row.Product, row.Supplier, string(extras)); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"snapshot_id", id,
		"source", t.Source(),
		"rows", t.Len())
	return t.Len(), nil
}

// LatestSnapshot returns the stored snapshot metadata. It wraps
// core.ErrSourceMissing when nothing was saved yet.
func (r *SQLiteRepository) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	var (
		s         Snapshot
		extraCols string
		columns   string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source, row_count, extra_columns, columns, created_at FROM snapshots ORDER BY created_at DESC LIMIT 1`).
		Scan(&s.ID, &s.Source, &s.RowCount, &extraCols, &columns, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: no snapshot in %s", core.ErrSourceMissing, r.path)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(extraCols), &s.ExtraColumns); err != nil {
		return Snapshot{}, fmt.Errorf("decode extra columns: %w", err)
	}
	if err := json.Unmarshal([]byte(columns), &s.Columns); err != nil {
		return Snapshot{}, fmt.Errorf("decode columns: %w", err)
	}
	return s, nil
}

// Load implements sheets.TableSource
func (r *SQLiteRepository) Load(ctx context.Context) (*core.Table, error) {
	snap, err := r.LatestSnapshot(ctx)
	if err != nil {
		return nil, core.NewDataLoadError(r.SourceID(), err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT tx_date, amount, quantity, unit, category, product, supplier, extras
		FROM transactions WHERE snapshot_id = ? ORDER BY id`, snap.ID)
	if err != nil {
		return nil, core.NewDataLoadError(r.SourceID(), fmt.Errorf("query transactions: %w", err))
	}
	defer rows.Close()

	out := make([]core.Transaction, 0, snap.RowCount)
	extras := make([][]string, 0, snap.RowCount)
	for rows.Next() {
		var (
			date   string
			extra  string
			tx     core.Transaction
			values []string
		)
		if err := rows.Scan(&date, &tx.Amount, &tx.Quantity, &tx.Unit, &tx.Category, &tx.Product, &tx.Supplier, &extra); err != nil {
			return nil, core.NewDataLoadError(r.SourceID(), fmt.Errorf("scan transaction: %w", err))
		}
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			slog.WarnContext(ctx, "Skipping stored row with invalid date", "date", date)
			continue
		}
		tx.Date = core.DateOf(d)
		if err := json.Unmarshal([]byte(extra), &values); err != nil {
			return nil, core.NewDataLoadError(r.SourceID(), fmt.Errorf("decode extras: %w", err))
		}
		out = append(out, tx)
		extras = append(extras, values)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewDataLoadError(r.SourceID(), fmt.Errorf("iterate transactions: %w", err))
	}

	return core.NewTableWithExtras(r.SourceID(), out, snap.ExtraColumns, extras).WithColumns(snap.Columns), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
