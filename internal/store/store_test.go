package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaboteur/Pmetrics/internal/testutil"
)

func TestOpen_ReopenKeepsArchive(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	s, err := Open(path, WithIDGenerator(testutil.NewFixedIDGenerator("")))
	require.NoError(t, err)
	saved, _, err := s.SaveSummary(ctx, "npag.json", npagSummary(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, WithIDGenerator(testutil.NewFixedIDGenerator("reopened")))
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetSummary(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	// seq continues from the stored maximum
	next, inserted, err := s.SaveSummary(ctx, "it2b.json", it2bSummary(t))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(2), next.Seq)
}

func TestOpen_UnwritablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := Open(filepath.Join(blocker, "archive.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open archive")
}

func TestOpen_RecordsSchemaVersion(t *testing.T) {
	s := createTestStore(t)
	assert.Equal(t, len(migrations), schemaVersion(t, s.db))
}

func TestOpen_UpgradesUnversionedArchive(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v0.db")

	// An archive written before the method index existed.
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO summaries (id, content_hash, method, source, nsub, nvar, body, seq)
		VALUES ('old-1', 'hash-1', 'IT2B', 'old.json', 4, 2, '{}', 1)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, len(migrations), schemaVersion(t, s.db))

	records, err := s.ListSummaries(ctx, ListFilter{Method: "IT2B"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "old-1", records[0].ID)
	assert.Equal(t, 4, records[0].NSub)
}

func TestListSummaries_MethodFilterUsesIndex(t *testing.T) {
	s := createTestStore(t)

	query, args := listQuery(ListFilter{Method: "NPAG", Limit: 5})
	plan := queryPlan(t, s.db, query, args...)
	assert.Contains(t, plan, "idx_summaries_method_seq")
}

func TestSchema_RejectsUnknownMethod(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO summaries (id, content_hash, method, source, nsub, nvar, body, seq)
		VALUES ('x', 'h', 'SIM', 's.json', 1, 1, '{}', 1)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECK constraint failed")
}

func TestClose_ZeroStore(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func schemaVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var v int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	return v
}

// queryPlan returns the EXPLAIN QUERY PLAN detail lines joined by newlines.
func queryPlan(t *testing.T, db *sql.DB, query string, args ...any) string {
	t.Helper()
	rows, err := db.Query("EXPLAIN QUERY PLAN "+query, args...)
	require.NoError(t, err)
	defer rows.Close()

	var details []string
	for rows.Next() {
		var id, parent, notused int
		var detail string
		require.NoError(t, rows.Scan(&id, &parent, &notused, &detail))
		details = append(details, detail)
	}
	require.NoError(t, rows.Err())
	return strings.Join(details, "\n")
}
