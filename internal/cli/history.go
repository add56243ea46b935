package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jaboteur/Pmetrics/internal/run"
	"github.com/jaboteur/Pmetrics/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DBPath string
	Method string
	Limit  int
}

// ArchiveEntry is the listing view of an archived summary.
type ArchiveEntry struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Method      string `json:"method"`
	Source      string `json:"source"`
	NSub        int    `json:"nsub"`
	NVar        int    `json:"nvar"`
	ContentHash string `json:"content_hash"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived summaries",
		Long: `List summaries archived with "summarize --save", oldest first.

Examples:
  pmsum history --db summaries.db
  pmsum history --db summaries.db --method NPAG --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "pmsum.db", "path to the summary archive")
	cmd.Flags().StringVar(&opts.Method, "method", "", "only list summaries of this method (NPAG|IT2B)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of entries (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	rep := newReporter(cmd, opts.RootOptions)

	method := strings.ToUpper(opts.Method)
	if method != "" && method != string(run.MethodNPAG) && method != string(run.MethodIT2B) {
		return exitErrorf(ExitCommandError, "invalid method %q: must be NPAG or IT2B", opts.Method)
	}

	st, err := openArchive(opts.DBPath)
	if err != nil {
		return rep.fail(ExitCommandError, ErrCodeArchive, err, map[string]string{"db": opts.DBPath})
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	records, err := st.ListSummaries(ctx, store.ListFilter{Method: method, Limit: opts.Limit})
	if err != nil {
		return rep.fail(ExitFailure, ErrCodeArchive, err, nil)
	}

	entries := make([]ArchiveEntry, len(records))
	for i, rec := range records {
		entries[i] = archiveEntry(rec)
	}

	return rep.ok(entries, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No archived summaries.")
			return
		}
		t := newTable("seq", "id", "method", "nsub", "nvar", "source")
		for _, e := range entries {
			t.Row(fmt.Sprint(e.Seq), e.ID, e.Method, fmt.Sprint(e.NSub), fmt.Sprint(e.NVar), e.Source)
		}
		fmt.Fprintln(w, historyTable(t))
	})
}

// historyTable left-aligns the text columns of a history listing.
func historyTable(t *table.Table) string {
	return t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == 0 || col == 3 || col == 4:
			return numericStyle
		default:
			return cellStyle
		}
	}).String()
}

func archiveEntry(rec store.Record) ArchiveEntry {
	return ArchiveEntry{
		ID:          rec.ID,
		Seq:         rec.Seq,
		Method:      rec.Method,
		Source:      rec.Source,
		NSub:        rec.NSub,
		NVar:        rec.NVar,
		ContentHash: rec.ContentHash,
	}
}

// openArchive opens an existing archive. Unlike store.Open it does not
// create a missing database file.
func openArchive(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("archive %s: %w", path, err)
	}
	return store.Open(path)
}
