package cli

import (
	"github.com/spf13/cobra"
)

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	Files      int              `json:"files"`
	Services   []ServiceSummary `json:"services"`
	Aliases    []AliasSummary   `json:"aliases"`
	Parameters map[string]any   `json:"parameters"`
	Log        []string         `json:"log"`
	RunID      string           `json:"run_id,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>...",
		Short: "Compile service configuration",
		Long: `Load service configuration files and compile them into a container.

Files are YAML, JSON or CUE and load in order, so later files override
earlier ones. The summary lists the services and aliases left after
inlining and removal. With --verbose the compiler log is printed too.
With --store the run is recorded in the audit log.`,
		Args:          requireFiles,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCompile(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	res, err := buildOrFail(cmd, opts, formatter, files)
	if err != nil {
		return err
	}

	result := CompileResult{
		Files:      len(res.Files),
		Services:   summarizeServices(res.Builder),
		Aliases:    summarizeAliases(res.Builder),
		Parameters: res.Builder.ParameterBag().All(),
		Log:        res.Compiler.Log(),
		RunID:      res.RunID,
	}
	if result.Log == nil {
		result.Log = []string{}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	outputCompileSuccess(formatter, result)
	return nil
}

func outputCompileSuccess(f *OutputFormatter, result CompileResult) {
	f.Printf("%s Compiled %d service(s), %d alias(es) from %d file(s)\n",
		okMark(), len(result.Services), len(result.Aliases), result.Files)

	if len(result.Services) > 0 {
		f.Printf("\nServices:\n")
		writeServiceTable(f, result.Services)
	}
	if len(result.Aliases) > 0 {
		f.Printf("\nAliases:\n")
		writeAliasList(f, result.Aliases)
	}
	if f.Verbose && len(result.Log) > 0 {
		f.Printf("\nCompiler log:\n")
		for _, msg := range result.Log {
			f.Printf("  %s\n", msg)
		}
	}
	if result.RunID != "" {
		f.Printf("\nRecorded run %s\n", result.RunID)
	}
}
