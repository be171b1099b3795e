package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	Run   string
}

// RunSummary is one row of the history listing.
type RunSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	Status     string    `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	ConfigHash string    `json:"config_hash"`
	Files      int       `json:"files"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded compile runs",
		Long: `List the compile runs recorded with --store, newest first.

--run shows one run with its compiler log and service manifest.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs (0 for all)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show one run")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Store == "" {
		return formatter.Fail(ExitCommandError, &codedError{
			code: ErrCodeInvalidFlags,
			err:  fmt.Errorf("history needs --store or $%s", StoreEnv),
		})
	}

	s, err := store.Open(opts.Store)
	if err != nil {
		return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeStoreFailed, err: err})
	}
	defer s.Close()

	if opts.Run != "" {
		run, err := s.ReadRun(cmd.Context(), opts.Run)
		if err != nil {
			exit := ExitCommandError
			if errors.Is(err, store.ErrRunNotFound) {
				exit = ExitFailure
			}
			return formatter.Fail(exit, &codedError{code: ErrCodeStoreFailed, err: err})
		}
		if formatter.JSON() {
			return formatter.Success(run)
		}
		outputRun(formatter, run)
		return nil
	}

	runs, err := s.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeStoreFailed, err: err})
	}

	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = RunSummary{
			ID:         r.ID,
			StartedAt:  r.StartedAt,
			Status:     string(r.Status),
			ErrorCode:  r.ErrorCode,
			ConfigHash: r.ConfigHash,
			Files:      len(r.Files),
		}
	}
	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	if len(summaries) == 0 {
		formatter.Printf("No runs recorded in %s\n", opts.Store)
		return nil
	}
	for _, r := range summaries {
		formatter.Printf("%s  %s  %s  %-6s  %-4s  %d file(s)  %s\n",
			statusMark(r.Status), r.ID, r.StartedAt.Format(time.RFC3339),
			r.Status, r.ErrorCode, r.Files, shortHash(r.ConfigHash))
	}
	return nil
}

func outputRun(f *OutputFormatter, run store.Run) {
	f.Printf("%s Run %s (%s)\n", statusMark(string(run.Status)), run.ID, run.StartedAt.Format(time.RFC3339))
	f.Printf("  config: %s\n", run.ConfigHash)
	if run.Status == store.StatusFailed {
		f.Printf("  error:  [%s] %s\n", run.ErrorCode, run.Error)
	}

	if len(run.Files) > 0 {
		f.Printf("\nFiles:\n")
		for _, file := range run.Files {
			f.Printf("  %s\n", file)
		}
	}
	if len(run.Log) > 0 {
		f.Printf("\nCompiler log:\n")
		for _, msg := range run.Log {
			f.Printf("  %s\n", msg)
		}
	}
	if len(run.Services) > 0 {
		f.Printf("\nServices:\n")
		for _, svc := range run.Services {
			if svc.AliasOf != "" {
				f.Printf("  %s -> %s\n", svc.ID, svc.AliasOf)
				continue
			}
			f.Printf("  %s (%s, %s)\n", svc.ID, svc.Class, svc.Scope)
		}
	}
}

func statusMark(status string) string {
	if status == string(store.StatusOK) {
		return okMark()
	}
	return failMark()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
