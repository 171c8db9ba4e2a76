package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/waveline/strobe/internal/runtime"
	"github.com/waveline/strobe/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Frames int
	DT     float64
	Start  float64
	Record string // trace database path, empty to skip recording

	// Tokens overrides the revision token generator (for testing). When
	// nil, UUIDv7 tokens are minted.
	Tokens runtime.TokenGenerator
}

// RunReport is the run command's result payload.
type RunReport struct {
	ProgramHash string         `json:"program_hash"`
	Frames      int            `json:"frames"`
	LastFrame   *FrameReport   `json:"last_frame,omitempty"`
	Recorded    string         `json:"recorded,omitempty"`
	Events      map[string]int `json:"events,omitempty"` // tag -> total firings
}

// FrameReport summarizes one frame's renders.
type FrameReport struct {
	Frame   uint64         `json:"frame"`
	Time    float64        `json:"time"`
	Renders []RenderReport `json:"renders"`
}

// RenderReport is one render buffer in a report payload.
type RenderReport struct {
	Tag    string    `json:"tag"`
	Stride int       `json:"stride"`
	Count  int       `json:"count"`
	Data   []float64 `json:"data"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <patch.cue>",
		Short: "Compile a patch and advance it frame by frame",
		Long: `Compile a CUE patch and run it for a fixed number of frames on a
synthetic timeline. With --record, every frame's renders and events
land in a SQLite trace database for later inspection and replay.

Examples:
  strobe run patch.cue --frames 120 --dt 0.016
  strobe run patch.cue --frames 60 --record trace.db --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrames(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Frames, "frames", 60, "number of frames to advance")
	cmd.Flags().Float64Var(&opts.DT, "dt", 1.0/60, "frame period in seconds")
	cmd.Flags().Float64Var(&opts.Start, "start", 0, "timestamp of the first frame")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record frames into a SQLite trace database")

	return cmd
}

func runFrames(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if opts.Frames <= 0 {
		return NewExitError(ExitCommandError, "frames must be positive")
	}
	if opts.DT <= 0 {
		return NewExitError(ExitCommandError, "dt must be positive")
	}

	res, loadErrs := loadAndCompile(path)
	if len(loadErrs) > 0 {
		return outputLoadErrors(formatter, loadErrs)
	}
	if !res.Frontend.OK() {
		return outputDiagnostics(formatter, res.Frontend.Diags)
	}
	logger.Info("patch compiled", "path", path, "hash", res.Program.Hash)

	tokens := opts.Tokens
	if tokens == nil {
		tokens = runtime.UUIDv7Generator{}
	}
	sess := runtime.NewSession(res.Program, tokens)

	ctx := context.Background()
	var st *trace.Store
	if opts.Record != "" {
		var err error
		st, err = trace.Open(opts.Record)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening trace database", err)
		}
		defer st.Close()
		if err := st.WriteRevision(ctx, sess.Revision(), 0); err != nil {
			return WrapExitError(ExitCommandError, "recording revision", err)
		}
		logger.Info("recording", "db", opts.Record, "token", sess.Revision().Token)
	}

	report := &RunReport{
		ProgramHash: res.Program.Hash,
		Frames:      opts.Frames,
		Recorded:    opts.Record,
		Events:      make(map[string]int),
	}

	var last *runtime.FrameOutput
	for f := 0; f < opts.Frames; f++ {
		out, err := sess.Advance(runtime.FrameInput{Time: opts.Start + float64(f)*opts.DT})
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("frame %d", f), err)
		}
		for _, e := range out.Events {
			report.Events[e.Tag]++
		}
		if st != nil {
			if err := st.WriteFrame(ctx, sess.Revision().Seq, out); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("recording frame %d", f), err)
			}
		}
		logger.Debug("frame advanced", "frame", out.Frame, "time", out.Time,
			"renders", len(out.Renders), "events", len(out.Events))
		last = out
	}

	if last != nil {
		report.LastFrame = &FrameReport{Frame: last.Frame, Time: last.Time}
		for _, r := range last.Renders {
			report.LastFrame.Renders = append(report.LastFrame.Renders, RenderReport{
				Tag: r.Tag, Stride: r.Stride, Count: r.Count, Data: r.Data,
			})
		}
	}
	if len(report.Events) == 0 {
		report.Events = nil
	}

	if formatter.Format == "json" {
		return formatter.JSON(report)
	}

	fmt.Fprintf(formatter.Writer, "✓ Ran %d frame(s) of %s\n\n", report.Frames, path)
	fmt.Fprintf(formatter.Writer, "  program: %s\n", report.ProgramHash)
	if report.LastFrame != nil {
		fmt.Fprintf(formatter.Writer, "  last frame %d (t=%g):\n", report.LastFrame.Frame, report.LastFrame.Time)
		for _, r := range report.LastFrame.Renders {
			fmt.Fprintf(formatter.Writer, "    %s: %d element(s) x %d lane(s) %v\n", r.Tag, r.Count, r.Stride, r.Data)
		}
	}
	tags := make([]string, 0, len(report.Events))
	for tag := range report.Events {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(formatter.Writer, "  events %q: %d firing(s)\n", tag, report.Events[tag])
	}
	if opts.Record != "" {
		fmt.Fprintf(formatter.Writer, "\nRecorded to %s\n", opts.Record)
	}
	return nil
}
