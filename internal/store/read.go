package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no archived summary matches.
var ErrNotFound = errors.New("summary not found")

// GetSummary returns the record with the given archive id.
func (s *Store) GetSummary(ctx context.Context, id string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
	if err != nil {
		return Record{}, fmt.Errorf("get summary %q: %w", id, err)
	}
	return rec, nil
}

// GetSummaryByHash returns the record with the given content hash.
func (s *Store) GetSummaryByHash(ctx context.Context, hash string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE content_hash = ?`, hash))
	if err != nil {
		return Record{}, fmt.Errorf("get summary by hash: %w", err)
	}
	return rec, nil
}

// ListFilter narrows ListSummaries. Zero values match everything.
type ListFilter struct {
	Method string
	Limit  int
}

// listQuery builds the history query for f.
func listQuery(f ListFilter) (string, []any) {
	query := selectRecord
	var args []any
	if f.Method != "" {
		query += ` WHERE method = ?`
		args = append(args, f.Method)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return query, args
}

// ListSummaries returns archived summaries in insertion order:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListSummaries(ctx context.Context, f ListFilter) ([]Record, error) {
	query, args := listQuery(f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return records, nil
}
