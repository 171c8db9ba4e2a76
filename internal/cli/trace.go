package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/waveline/strobe/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Tag      string
	From     uint64
	To       uint64
}

// TraceReport is the trace command's result payload.
type TraceReport struct {
	Revisions []RevisionReport `json:"revisions"`
	Frames    []FrameReport    `json:"frames,omitempty"`
	History   []HistoryReport  `json:"history,omitempty"`
}

// RevisionReport is one recorded install in a report payload.
type RevisionReport struct {
	Seq            int64  `json:"seq"`
	Token          string `json:"token"`
	ProgramHash    string `json:"program_hash"`
	InstalledFrame uint64 `json:"installed_frame"`
}

// HistoryReport is one render emission in a tag history payload.
type HistoryReport struct {
	Frame uint64    `json:"frame"`
	Time  float64   `json:"time"`
	Data  []float64 `json:"data"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect a recorded trace",
		Long: `Read a trace database: list recorded revisions, dump a frame
range, or follow one render tag across frames.

Examples:
  strobe trace --db trace.db
  strobe trace --db trace.db --from 0 --to 10
  strobe trace --db trace.db --tag out --from 0 --to 100`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "follow one render tag")
	cmd.Flags().Uint64Var(&opts.From, "from", 0, "first frame of the range")
	cmd.Flags().Uint64Var(&opts.To, "to", math.MaxUint64, "last frame of the range")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening trace database", err)
	}
	defer st.Close()

	ctx := context.Background()
	report := &TraceReport{}

	revs, err := st.Revisions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading revisions", err)
	}
	for _, r := range revs {
		report.Revisions = append(report.Revisions, RevisionReport{
			Seq: r.Seq, Token: r.Token, ProgramHash: r.ProgramHash, InstalledFrame: r.InstalledFrame,
		})
	}

	switch {
	case opts.Tag != "":
		hist, err := st.RenderHistory(ctx, opts.Tag, opts.From, opts.To)
		if err != nil {
			return WrapExitError(ExitCommandError, "reading render history", err)
		}
		for _, smp := range hist {
			report.History = append(report.History, HistoryReport{
				Frame: smp.Frame, Time: smp.Time, Data: smp.Render.Data,
			})
		}

	case cmd.Flags().Changed("from") || cmd.Flags().Changed("to"):
		recs, err := st.ReadRange(ctx, opts.From, opts.To)
		if err != nil {
			return WrapExitError(ExitCommandError, "reading frames", err)
		}
		for _, rec := range recs {
			fr := FrameReport{Frame: rec.Output.Frame, Time: rec.Output.Time}
			for _, r := range rec.Output.Renders {
				fr.Renders = append(fr.Renders, RenderReport{
					Tag: r.Tag, Stride: r.Stride, Count: r.Count, Data: r.Data,
				})
			}
			report.Frames = append(report.Frames, fr)
		}
	}

	if formatter.Format == "json" {
		return formatter.JSON(report)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Revisions (%d):\n", len(report.Revisions))
	for _, r := range report.Revisions {
		fmt.Fprintf(w, "  #%d %s program=%s installed at frame %d\n",
			r.Seq, r.Token, shortHash(r.ProgramHash), r.InstalledFrame)
	}
	if len(report.Frames) > 0 {
		fmt.Fprintf(w, "\nFrames (%d):\n", len(report.Frames))
		for _, fr := range report.Frames {
			fmt.Fprintf(w, "  frame %d (t=%g):\n", fr.Frame, fr.Time)
			for _, r := range fr.Renders {
				fmt.Fprintf(w, "    %s: %v\n", r.Tag, r.Data)
			}
		}
	}
	if len(report.History) > 0 {
		fmt.Fprintf(w, "\nHistory of %q (%d sample(s)):\n", opts.Tag, len(report.History))
		for _, h := range report.History {
			fmt.Fprintf(w, "  frame %d (t=%g): %v\n", h.Frame, h.Time, h.Data)
		}
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
