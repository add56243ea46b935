package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaboteur/Pmetrics/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	DBPath string
}

// ArchivedSummary is an archive entry with its stored summary body.
type ArchivedSummary struct {
	ArchiveEntry
	Summary json.RawMessage `json:"summary"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <id|content-hash>",
		Short: "Print an archived summary",
		Long: `Print an archived summary by archive id or content hash.

Examples:
  pmsum show 01928c6e-3f0a-7b4e-9c1d-2a3b4c5d6e7f --db summaries.db
  pmsum show 3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "pmsum.db", "path to the summary archive")

	return cmd
}

func runShow(opts *ShowOptions, key string, cmd *cobra.Command) error {
	rep := newReporter(cmd, opts.RootOptions)

	st, err := openArchive(opts.DBPath)
	if err != nil {
		return rep.fail(ExitCommandError, ErrCodeArchive, err, map[string]string{"db": opts.DBPath})
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rec, err := st.GetSummary(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		rec, err = st.GetSummaryByHash(ctx, key)
	}
	if errors.Is(err, store.ErrNotFound) {
		return rep.fail(ExitFailure, ErrCodeNotArchived, fmt.Errorf("no archived summary %q", key), nil)
	}
	if err != nil {
		return rep.fail(ExitFailure, ErrCodeArchive, err, nil)
	}

	out := ArchivedSummary{ArchiveEntry: archiveEntry(rec), Summary: rec.Body}
	if rep.json {
		return rep.ok(out, nil)
	}

	var body bytes.Buffer
	if err := json.Indent(&body, rec.Body, "", "  "); err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("archived summary %s is not valid JSON: %w", rec.ID, err)}
	}
	w := rep.w
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  %s", rec.Method, rec.Source)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("id=%s  seq=%d  nsub=%d  nvar=%d", rec.ID, rec.Seq, rec.NSub, rec.NVar)))
	fmt.Fprintln(w, mutedStyle.Render("sha256="+rec.ContentHash))
	fmt.Fprintln(w, body.String())
	return nil
}
