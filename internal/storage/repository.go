// Package storage persists the ledger in SQLite. Each transaction lives in
// one externally-versioned row, serialized as an opaque JSON text blob in a
// single column: the repository is pure serialize-on-write /
// parse-on-read and never inspects the payload.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/llabyellov/LouerSimple/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append serializes the transaction and inserts it as a new row. The
// returned reference is the database row id.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (string, error) {
	blob, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal transaction: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO interactions (contenu) VALUES (?)`, string(blob))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read row id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"row_id", rowID,
		"id", t.ID,
		"category", string(t.Category))

	return strconv.FormatInt(rowID, 10), nil
}

// LoadAll reads every row, newest row first, and parses each blob back
// into a transaction. A blob that no longer parses is skipped with a
// warning; one bad row never fails a reload.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, contenu FROM interactions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var rowID int64
		var blob string
		if err := rows.Scan(&rowID, &blob); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var t core.Transaction
		if err := json.Unmarshal([]byte(blob), &t); err != nil {
			slog.WarnContext(ctx, "Skipping unparseable ledger row", "row_id", rowID, "error", err)
			continue
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Purge deletes every row. Used by the offline restore flow before
// re-importing a backup from scratch.
func (r *SQLiteRepository) Purge(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM interactions`)
	if err != nil {
		return 0, fmt.Errorf("purge transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count purged rows: %w", err)
	}
	slog.InfoContext(ctx, "Ledger purged", "rows", n)
	return n, nil
}
