package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/hmoraga/recepciones/internal/common"
	"github.com/hmoraga/recepciones/internal/model"
)

// SQLiteStore is the local implementation of the ledger, used for
// offline runs and tests. Same six-column contract as the spreadsheet,
// same append-only discipline.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS recepciones (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fecha_correo TEXT NOT NULL,
	sku TEXT NOT NULL,
	un_recibidas TEXT NOT NULL,
	message_id TEXT NOT NULL,
	img_hash TEXT NOT NULL,
	origen TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_recepciones_key
	ON recepciones(message_id, sku, un_recibidas);
`

// NewSQLiteStore opens (or creates) the ledger database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: ledger.db_path", common.ErrMissingConfig)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Rows loads every persisted row in insertion order.
func (s *SQLiteStore) Rows(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fecha_correo, sku, un_recibidas, message_id, img_hash, origen
		FROM recepciones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrLedgerUnavailable, err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var r model.Record
		var origin string
		if err := rows.Scan(&r.MailDate, &r.SKU, &r.Quantity, &r.MessageID, &r.ImageHash, &origin); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		r.Origin = model.Origin(origin)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger rows: %w", err)
	}
	return records, nil
}

// Append inserts the batch inside one transaction, so a run's write is
// atomic. The unique index is a second line of defense; the reconciler
// has already filtered duplicates.
func (s *SQLiteStore) Append(ctx context.Context, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO recepciones
			(fecha_correo, sku, un_recibidas, message_id, img_hash, origen)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.MailDate, r.SKU, r.Quantity, r.MessageID, r.ImageHash, string(r.Origin)); err != nil {
			return fmt.Errorf("failed to insert row for sku %s: %w", r.SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
