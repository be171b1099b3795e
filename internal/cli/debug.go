package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// DebugOptions holds flags for the debug command.
type DebugOptions struct {
	*RootOptions
	Service    string
	Parameters bool
}

// NewDebugCommand creates the debug command.
func NewDebugCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DebugOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "debug <file>...",
		Short: "Inspect the compiled container",
		Long: `Compile service configuration and inspect the result.

Without flags every compiled service is listed. --service shows one
service (aliases are followed) and --parameters lists the resolved
parameters.`,
		Args:          requireFiles,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebug(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Service, "service", "s", "", "show one service")
	cmd.Flags().BoolVarP(&opts.Parameters, "parameters", "p", false, "list resolved parameters")
	cmd.MarkFlagsMutuallyExclusive("service", "parameters")

	return cmd
}

func runDebug(opts *DebugOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	res, err := buildOrFail(cmd, opts.RootOptions, formatter, files)
	if err != nil {
		return err
	}
	b := res.Builder

	switch {
	case opts.Service != "":
		detail, err := describeService(b, opts.Service)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		if formatter.JSON() {
			return formatter.Success(detail)
		}
		outputServiceDetail(formatter, detail)

	case opts.Parameters:
		params := b.ParameterBag().All()
		if formatter.JSON() {
			return formatter.Success(params)
		}
		for _, name := range sortedNames(params) {
			formatter.Printf("%s = %s\n", name, formatValue(params[name]))
		}

	default:
		services := summarizeServices(b)
		if formatter.JSON() {
			return formatter.Success(services)
		}
		writeServiceTable(formatter, services)
	}
	return nil
}

func outputServiceDetail(f *OutputFormatter, d ServiceDetail) {
	field := func(label, value string) {
		f.Printf("  %-14s%s\n", label+":", value)
	}
	list := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		f.Printf("  %s:\n", label)
		for _, item := range items {
			f.Printf("    - %s\n", item)
		}
	}

	f.Printf("Service %s\n", d.ID)
	if d.AliasOf != "" {
		field("alias of", d.AliasOf)
	}
	field("class", d.Class)
	field("scope", d.Scope)
	field("public", boolString(d.Public))
	if d.Synthetic {
		field("synthetic", "true")
	}
	if d.Abstract {
		field("abstract", "true")
	}
	if d.Factory != "" {
		field("factory", d.Factory)
	}
	if d.File != "" {
		field("file", d.File)
	}
	list("arguments", d.Arguments)
	list("calls", d.Calls)

	if len(d.Properties) > 0 {
		f.Printf("  properties:\n")
		for _, name := range sortedNames(d.Properties) {
			f.Printf("    %s: %s\n", name, d.Properties[name])
		}
	}
	if len(d.Tags) > 0 {
		var tags []string
		for _, name := range sortedNames(d.Tags) {
			for _, attrs := range d.Tags[name] {
				tags = append(tags, formatTag(name, attrs))
			}
		}
		list("tags", tags)
	}
	if d.Configurator != "" {
		field("configurator", d.Configurator)
	}
}

func formatTag(name string, attrs map[string]any) string {
	if len(attrs) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(formatValue(attrs))
	return b.String()
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
