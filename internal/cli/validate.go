package cli

import (
	"github.com/spf13/cobra"
)

// ValidationResult is the JSON payload of a successful validate command.
type ValidationResult struct {
	Valid    bool `json:"valid"`
	Files    int  `json:"files"`
	Services int  `json:"services"`
	Aliases  int  `json:"aliases"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check service configuration without printing the container",
		Long: `Compile service configuration and report whether it is valid.

Exits 1 when the compiler rejects the configuration (missing services,
scope violations, circular references...) and 2 when the files cannot be
loaded at all.`,
		Args:          requireFiles,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	res, err := buildOrFail(cmd, opts, formatter, files)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Valid:    true,
		Files:    len(res.Files),
		Services: len(res.Builder.DefinitionIDs()),
		Aliases:  len(res.Builder.AliasIDs()),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	formatter.Printf("%s Configuration valid: %d service(s), %d alias(es) from %d file(s)\n",
		okMark(), result.Services, result.Aliases, result.Files)
	return nil
}
