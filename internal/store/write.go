package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jaboteur/Pmetrics/internal/summary"
)

// Record is one archived summary.
type Record struct {
	ID          string
	ContentHash string
	Method      string
	Source      string
	NSub        int
	NVar        int
	Body        []byte
	Seq         int64
}

// SaveSummary archives s under source (usually the run document path).
//
// Saving is content-addressed: when a summary with the same content hash
// already exists the existing record is returned with inserted=false and
// nothing is written. Otherwise a new record is inserted with the next
// seq value and inserted=true.
func (s *Store) SaveSummary(ctx context.Context, source string, sum *summary.FinalCycleSummary) (rec Record, inserted bool, err error) {
	body, err := EncodeSummary(sum)
	if err != nil {
		return Record{}, false, fmt.Errorf("save summary: %w", err)
	}
	hash := ContentHash(body)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, false, fmt.Errorf("save summary: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := scanRecord(tx.QueryRowContext(ctx, selectRecord+` WHERE content_hash = ?`, hash))
	switch {
	case err == nil:
		return existing, false, tx.Commit()
	case !errors.Is(err, ErrNotFound):
		return Record{}, false, fmt.Errorf("save summary: %w", err)
	}

	var seq int64
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM summaries`).Scan(&seq); err != nil {
		return Record{}, false, fmt.Errorf("save summary: next seq: %w", err)
	}

	rec = Record{
		ID:          s.idGen.Generate(),
		ContentHash: hash,
		Method:      string(sum.Method),
		Source:      source,
		NSub:        sum.NSub,
		NVar:        len(sum.Par),
		Body:        body,
		Seq:         seq,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO summaries
		(id, content_hash, method, source, nsub, nvar, body, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`,
		rec.ID,
		rec.ContentHash,
		rec.Method,
		rec.Source,
		rec.NSub,
		rec.NVar,
		string(rec.Body),
		rec.Seq,
	)
	if err != nil {
		return Record{}, false, fmt.Errorf("save summary: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return Record{}, false, fmt.Errorf("save summary: commit: %w", err)
	}
	return rec, true, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const selectRecord = `
	SELECT id, content_hash, method, source, nsub, nvar, body, seq
	FROM summaries`

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec  Record
		body string
	)
	err := row.Scan(&rec.ID, &rec.ContentHash, &rec.Method, &rec.Source, &rec.NSub, &rec.NVar, &body, &rec.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan summary: %w", err)
	}
	rec.Body = []byte(body)
	return rec, nil
}
