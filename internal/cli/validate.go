package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/waveline/strobe/internal/compile"
	"github.com/waveline/strobe/internal/patch"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ShowTypes bool
}

// PortTypeEntry is one resolved port type in the validate payload.
type PortTypeEntry struct {
	Port string `json:"port"`
	Type string `json:"type"`
}

// CycleEntry is one classified cycle in the validate payload.
type CycleEntry struct {
	Members []string `json:"members"`
	Legal   bool     `json:"legal"`
}

// ValidateReport is the validate command's result payload. It is
// produced even when the patch has diagnostics: the frontend always
// resolves what it can.
type ValidateReport struct {
	Nodes       int                `json:"nodes"`
	Types       []PortTypeEntry    `json:"types,omitempty"`
	Cycles      []CycleEntry       `json:"cycles,omitempty"`
	Diagnostics []patch.Diagnostic `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <patch.cue>",
		Short: "Check a patch and report types, cycles, and diagnostics",
		Long: `Run the compile frontend only: normalize the patch, solve port
types, and classify cycles. Unlike compile, validate reports the full
picture even for a broken patch - every resolvable port type and every
cycle, alongside all diagnostics.

Exit codes:
  0 - patch is clean
  1 - diagnostics found
  2 - load error

Examples:
  strobe validate patch.cue
  strobe validate patch.cue --types --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowTypes, "types", false, "list every resolved port type")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	res, loadErrs := loadAndCompile(path)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}

	report := buildReport(&res.Frontend, opts.ShowTypes)

	if formatter.Format == "json" {
		if err := formatter.JSON(report); err != nil {
			return err
		}
	} else {
		printReport(formatter, path, report)
	}

	if len(report.Diagnostics) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d diagnostic(s)", len(report.Diagnostics)))
	}
	return nil
}

func buildReport(f *compile.Frontend, showTypes bool) *ValidateReport {
	report := &ValidateReport{
		Nodes:       len(f.Snapshot.Nodes()),
		Diagnostics: f.Diags.Sorted(),
	}

	if showTypes {
		report.Types = make([]PortTypeEntry, 0, len(f.Types))
		for key, t := range f.Types {
			report.Types = append(report.Types, PortTypeEntry{Port: key.String(), Type: t.String()})
		}
		sort.Slice(report.Types, func(i, j int) bool {
			return report.Types[i].Port < report.Types[j].Port
		})
	}

	for _, c := range f.Cycles {
		members := make([]string, len(c.Members))
		for i, m := range c.Members {
			members[i] = string(m)
		}
		report.Cycles = append(report.Cycles, CycleEntry{Members: members, Legal: c.ViaState})
	}
	return report
}

func printReport(formatter *OutputFormatter, path string, report *ValidateReport) {
	w := formatter.Writer
	if len(report.Diagnostics) == 0 {
		fmt.Fprintf(w, "✓ %s is valid (%d node(s))\n", path, report.Nodes)
	} else {
		fmt.Fprintf(w, "✗ %s has %d diagnostic(s)\n", path, len(report.Diagnostics))
	}

	if len(report.Cycles) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Cycles:")
		for _, c := range report.Cycles {
			badge := "legal (state-broken)"
			if !c.Legal {
				badge = "illegal (combinatorial)"
			}
			fmt.Fprintf(w, "  [%s]: %s\n", strings.Join(c.Members, " "), badge)
		}
	}

	if len(report.Types) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Port types:")
		for _, t := range report.Types {
			fmt.Fprintf(w, "  %-30s %s\n", t.Port, t.Type)
		}
	}

	if len(report.Diagnostics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Diagnostics:")
		for _, d := range report.Diagnostics {
			fmt.Fprintf(w, "  %s\n", d.Error())
		}
	}
}

// outputDiagnostics reports compile diagnostics and returns the
// command error. Shared by compile and run, which stop at the first
// broken stage; validate builds its richer report instead.
func outputDiagnostics(formatter *OutputFormatter, diags patch.DiagList) error {
	diags = diags.Sorted()
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(diags))
		for i, d := range diags {
			cliErrors[i] = CLIError{Code: string(d.Code), Message: d.Error()}
		}
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		})
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Compile failed")
		fmt.Fprintln(formatter.Writer)
		for _, d := range diags {
			fmt.Fprintf(formatter.Writer, "  %s\n", d.Error())
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("compile failed with %d diagnostic(s)", len(diags)))
}
