package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jaboteur/Pmetrics/internal/loader"
	"github.com/jaboteur/Pmetrics/internal/store"
	"github.com/jaboteur/Pmetrics/internal/summary"
)

// SummarizeOptions holds flags for the summarize command.
type SummarizeOptions struct {
	*RootOptions
	Jobs   int    // concurrent summaries
	Save   bool   // archive summaries in the database
	DBPath string // SQLite archive path
}

// SummaryOutput is one summarized run document.
type SummaryOutput struct {
	Source      string                     `json:"source"`
	ArchiveID   string                     `json:"archive_id,omitempty"`
	ContentHash string                     `json:"content_hash,omitempty"`
	Inserted    *bool                      `json:"inserted,omitempty"`
	Summary     *summary.FinalCycleSummary `json:"summary"`
}

// summarizeError is a load or summarize failure for one file.
type summarizeError struct {
	Source string
	Code   string
	Err    error
}

func (e *summarizeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *summarizeError) Unwrap() error {
	return e.Err
}

// NewSummarizeCommand creates the summarize command.
func NewSummarizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummarizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summarize <run-file>...",
		Short: "Summarize the final cycle of one or more runs",
		Long: `Summarize the final cycle of NPAG or IT2B run documents.

Each file is a JSON, YAML or CUE run document. Files are summarized
concurrently and reported in argument order. With --save every summary
is archived in a SQLite database; identical summaries are stored once.

Exit codes:
  0 - All files summarized
  1 - A file could not be decoded or summarized
  2 - Command error (file not found, archive unavailable, etc.)

Examples:
  pmsum summarize run.json
  pmsum summarize runs/*.yaml --jobs 4 --format json
  pmsum summarize run.cue --save --db summaries.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(opts, args, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of files summarized concurrently")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "archive summaries in the database")
	cmd.Flags().StringVar(&opts.DBPath, "db", "pmsum.db", "path to the summary archive")

	return cmd
}

func runSummarize(opts *SummarizeOptions, paths []string, cmd *cobra.Command) error {
	rep := newReporter(cmd, opts.RootOptions)
	logger := opts.Logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	outputs, err := summarizeFiles(ctx, paths, opts.Jobs, logger)
	if err != nil {
		var se *summarizeError
		if errors.As(err, &se) {
			return rep.fail(exitCodeFor(se.Code), se.Code, se.Err, map[string]string{"file": se.Source})
		}
		return &ExitError{Code: ExitFailure, Err: err}
	}

	if opts.Save {
		if err := saveOutputs(ctx, opts.DBPath, outputs, logger); err != nil {
			return rep.fail(ExitCommandError, ErrCodeArchive, err, map[string]string{"db": opts.DBPath})
		}
	}

	return rep.ok(outputs, func(w io.Writer) {
		for i, out := range outputs {
			if i > 0 {
				fmt.Fprintln(w)
			}
			renderSummary(w, out.Source, out.Summary)
			if out.ArchiveID != "" {
				status := "archived"
				if out.Inserted != nil && !*out.Inserted {
					status = "already archived"
				}
				fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s as %s", status, out.ArchiveID)))
			}
		}
	})
}

// summarizeFiles loads and summarizes paths with at most jobs in flight.
// Outputs are in argument order. The first failure cancels the rest.
func summarizeFiles(ctx context.Context, paths []string, jobs int, logger *zap.Logger) ([]SummaryOutput, error) {
	if jobs < 1 {
		jobs = 1
	}
	summarizer := summary.New(summary.WithLogger(logger))
	outputs := make([]SummaryOutput, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := loader.Load(path)
			if err != nil {
				return &summarizeError{Source: path, Code: loader.ErrorCode(err), Err: err}
			}
			sum, err := summarizer.Summarize(res)
			if err != nil {
				return &summarizeError{Source: path, Code: summary.Code(err), Err: err}
			}
			logger.Debug("summarized run",
				zap.String("source", path),
				zap.String("method", string(sum.Method)),
				zap.Int("nsub", sum.NSub))
			outputs[i] = SummaryOutput{Source: path, Summary: sum}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// saveOutputs archives outputs in argument order so seq follows the command line.
func saveOutputs(ctx context.Context, dbPath string, outputs []SummaryOutput, logger *zap.Logger) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	for i := range outputs {
		rec, inserted, err := st.SaveSummary(ctx, outputs[i].Source, outputs[i].Summary)
		if err != nil {
			return err
		}
		outputs[i].ArchiveID = rec.ID
		outputs[i].ContentHash = rec.ContentHash
		outputs[i].Inserted = &inserted
		logger.Debug("archived summary",
			zap.String("source", outputs[i].Source),
			zap.String("id", rec.ID),
			zap.Bool("inserted", inserted))
	}
	return nil
}
