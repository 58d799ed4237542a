package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/lifeline/internal/snapshot"
)

// Insert records a saved snapshot in the index.
func Insert(ctx context.Context, db *sql.DB, e snapshot.IndexEntry) error {
	query := `
		INSERT INTO snapshots (
			id, cwd, file, created_at, branch, dirty, task_count, focus
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		e.ID, e.Cwd, e.File, e.CreatedAt,
		toNullString(e.Branch), e.Dirty, e.TaskCount, toNullString(e.Focus),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", e.ID, err)
	}
	return nil
}

// ListByCwd returns index rows for cwd, newest first, with the total row count.
// Ties on created_at are broken by id (ULIDs sort chronologically).
func ListByCwd(ctx context.Context, db *sql.DB, cwd string, limit, offset int) ([]snapshot.IndexEntry, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots WHERE cwd = ?", cwd).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshots: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, cwd, file, created_at, branch, dirty, task_count, focus
		FROM snapshots
		WHERE cwd = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, cwd, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	entries := []snapshot.IndexEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan snapshot row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list snapshots: %w", err)
	}
	return entries, total, nil
}

// DeleteByFiles removes every index row pointing at one of files.
// Runs in a single transaction and returns the number of rows removed.
func DeleteByFiles(ctx context.Context, db *sql.DB, files []string) (int64, error) {
	if len(files) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM snapshots WHERE file = ?")
	if err != nil {
		return 0, fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	var deleted int64
	for _, f := range files {
		res, err := stmt.ExecContext(ctx, f)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", f, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", f, err)
		}
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return deleted, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*snapshot.IndexEntry, error) {
	var (
		e      snapshot.IndexEntry
		branch sql.NullString
		focus  sql.NullString
	)

	err := row.Scan(&e.ID, &e.Cwd, &e.File, &e.CreatedAt, &branch, &e.Dirty, &e.TaskCount, &focus)
	if err != nil {
		return nil, err
	}

	e.Branch = fromNullString(branch)
	e.Focus = fromNullString(focus)
	return &e, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
