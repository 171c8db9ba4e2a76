package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waveline/strobe/internal/canon"
	"github.com/waveline/strobe/internal/lower"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// ProgramSummary is the compile command's result payload.
type ProgramSummary struct {
	Hash        string `json:"hash"`
	Expressions int    `json:"expressions"`
	Slots       int    `json:"slots"`
	States      int    `json:"states"`
	Instances   int    `json:"instances"`
	Phase1      int    `json:"phase1_steps"`
	Phase2      int    `json:"phase2_steps"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <patch.cue>",
		Short: "Compile a patch to an executable program",
		Long: `Compile a CUE patch file through the full pipeline: normalize,
solve types, analyze cycles, lower to a two-phase schedule.

On success prints the program hash and schedule summary. Diagnostics
exit with code 1; load errors with code 2.

Examples:
  strobe compile patch.cue
  strobe compile patch.cue -o program.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the canonical program JSON to a file")

	return cmd
}

func runCompileCmd(opts *CompileOptions, path string, cmd *cobra.Command) error {
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
	if !res.Frontend.OK() {
		return outputDiagnostics(formatter, res.Frontend.Diags)
	}

	prog := res.Program
	formatter.VerboseLog("compiled %s: %d nodes, hash %s",
		path, len(res.Frontend.Snapshot.Nodes()), prog.Hash)

	if opts.Output != "" {
		if err := writeProgramFile(prog, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	summary := ProgramSummary{
		Hash:        prog.Hash,
		Expressions: len(prog.Exprs),
		Slots:       len(prog.Slots),
		States:      len(prog.States),
		Instances:   len(prog.Instances),
		Phase1:      len(prog.Phase1),
		Phase2:      len(prog.Phase2),
	}
	if formatter.Format == "json" {
		return formatter.JSON(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %s\n\n", path)
	fmt.Fprintf(formatter.Writer, "  hash:      %s\n", summary.Hash)
	fmt.Fprintf(formatter.Writer, "  schedule:  %d phase-1 + %d phase-2 step(s)\n", summary.Phase1, summary.Phase2)
	fmt.Fprintf(formatter.Writer, "  storage:   %d slot(s), %d state cell(s), %d instance(s)\n",
		summary.Slots, summary.States, summary.Instances)
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote program to %s\n", opts.Output)
	}
	return nil
}

// writeProgramFile serializes the program's canonical content form.
// The same bytes the hash covers, so a stored program can be verified
// against a trace's program_hash.
func writeProgramFile(prog *lower.Program, path string) error {
	data, err := canon.Marshal(prog.CanonicalForm())
	if err != nil {
		return fmt.Errorf("marshaling program: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
