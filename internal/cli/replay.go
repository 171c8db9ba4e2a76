package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/waveline/strobe/internal/runtime"
	"github.com/waveline/strobe/internal/trace"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayReport is the replay command's result payload.
type ReplayReport struct {
	Frames        int      `json:"frames"`
	Matched       int      `json:"matched"`
	Mismatches    []uint64 `json:"mismatches,omitempty"`
	Deterministic bool     `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <patch.cue>",
		Short: "Re-run a patch against a recording and verify determinism",
		Long: `Recompile a patch, re-advance it over the timestamps of a recorded
trace, and compare every frame's content hash against the recording.
A clean replay proves the program is deterministic over that timeline.

The recorded timestamps are the replay's only external input; patches
that sample other external inputs (pointer, custom channels) cannot be
verified this way.

Exit codes:
  0 - every frame matched
  1 - at least one frame hash differed
  2 - command error

Examples:
  strobe replay patch.cue --db trace.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplayCmd(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplayCmd(opts *ReplayOptions, path string, cmd *cobra.Command) error {
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

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening trace database", err)
	}
	defer st.Close()

	ctx := context.Background()
	recs, err := st.ReadRange(ctx, 0, math.MaxUint64)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading recorded frames", err)
	}
	if len(recs) == 0 {
		return NewExitError(ExitCommandError, "trace contains no frames")
	}

	// The recorded program should match what the patch compiles to now;
	// a different hash means the patch changed since the recording.
	revs, err := st.Revisions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading revisions", err)
	}
	for _, rev := range revs {
		if rev.ProgramHash != res.Program.Hash {
			formatter.VerboseLog("revision #%d was recorded from a different program (%s)",
				rev.Seq, shortHash(rev.ProgramHash))
		}
	}

	state := runtime.NewState(res.Program)
	report := &ReplayReport{Frames: len(recs)}
	for _, rec := range recs {
		out, err := state.Advance(runtime.FrameInput{Time: rec.Output.Time})
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("replaying frame %d", rec.Output.Frame), err)
		}
		hash, err := trace.FrameHash(out)
		if err != nil {
			return WrapExitError(ExitCommandError, "hashing replayed frame", err)
		}
		if hash == rec.Hash {
			report.Matched++
		} else {
			report.Mismatches = append(report.Mismatches, rec.Output.Frame)
			formatter.VerboseLog("frame %d: recorded %s, replayed %s",
				rec.Output.Frame, shortHash(rec.Hash), shortHash(hash))
		}
	}
	report.Deterministic = len(report.Mismatches) == 0

	if formatter.Format == "json" {
		if err := formatter.JSON(report); err != nil {
			return err
		}
	} else if report.Deterministic {
		fmt.Fprintf(formatter.Writer, "✓ Replay matched %d/%d frame(s)\n", report.Matched, report.Frames)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Replay diverged on %d of %d frame(s): %v\n",
			len(report.Mismatches), report.Frames, report.Mismatches)
	}

	if !report.Deterministic {
		return NewExitError(ExitFailure, "replay diverged from recording")
	}
	return nil
}
