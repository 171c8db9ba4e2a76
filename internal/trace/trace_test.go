package trace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/waveline/strobe/internal/patch"
	"github.com/waveline/strobe/internal/runtime"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFrame(frame uint64, tm float64) *runtime.FrameOutput {
	return &runtime.FrameOutput{
		Frame: frame,
		Time:  tm,
		Renders: []runtime.Render{
			{Tag: "out", Stride: 2, Count: 2, Data: []float64{0, 0, 1, 1}},
			{Tag: "aux", Stride: 1, Count: 1, Data: []float64{42}},
		},
		Events: []runtime.Event{
			{Tag: "pulse", Node: patch.NodeID("p")},
		},
	}
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	for _, table := range []string{"revisions", "frames", "renders", "events"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestWriteFrame_RoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	rev := runtime.Revision{Seq: 1, Token: "tok-1", Hash: "h1"}
	if err := s.WriteRevision(ctx, rev, 0); err != nil {
		t.Fatalf("WriteRevision() failed: %v", err)
	}

	out := sampleFrame(3, 0.05)
	if err := s.WriteFrame(ctx, rev.Seq, out); err != nil {
		t.Fatalf("WriteFrame() failed: %v", err)
	}

	rec, err := s.ReadFrame(ctx, 3)
	if err != nil {
		t.Fatalf("ReadFrame() failed: %v", err)
	}
	if rec.RevisionSeq != 1 {
		t.Errorf("RevisionSeq = %d, want 1", rec.RevisionSeq)
	}
	if rec.Output.Time != 0.05 {
		t.Errorf("Time = %v, want 0.05", rec.Output.Time)
	}
	if len(rec.Output.Renders) != 2 {
		t.Fatalf("got %d renders, want 2", len(rec.Output.Renders))
	}
	r := rec.Output.Renders[0]
	if r.Tag != "out" || r.Stride != 2 || r.Count != 2 {
		t.Errorf("render 0 = %+v", r)
	}
	if len(r.Data) != 4 || r.Data[2] != 1 {
		t.Errorf("render 0 data = %v", r.Data)
	}
	if len(rec.Output.Events) != 1 || rec.Output.Events[0].Node != "p" {
		t.Errorf("events = %+v", rec.Output.Events)
	}
}

func TestWriteFrame_HashMatchesRecompute(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.WriteRevision(ctx, runtime.Revision{Seq: 1, Token: "t", Hash: "h"}, 0); err != nil {
		t.Fatalf("WriteRevision() failed: %v", err)
	}
	out := sampleFrame(1, 0.016)
	if err := s.WriteFrame(ctx, 1, out); err != nil {
		t.Fatalf("WriteFrame() failed: %v", err)
	}

	rec, err := s.ReadFrame(ctx, 1)
	if err != nil {
		t.Fatalf("ReadFrame() failed: %v", err)
	}
	want, err := FrameHash(out)
	if err != nil {
		t.Fatalf("FrameHash() failed: %v", err)
	}
	if rec.Hash != want {
		t.Errorf("stored hash %q != recomputed %q", rec.Hash, want)
	}

	// Hash recomputed from the rehydrated output agrees too.
	got, err := FrameHash(&rec.Output)
	if err != nil {
		t.Fatalf("FrameHash(rehydrated) failed: %v", err)
	}
	if got != want {
		t.Errorf("rehydrated hash %q != original %q", got, want)
	}
}

func TestWrite_Idempotent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	rev := runtime.Revision{Seq: 1, Token: "tok", Hash: "h"}
	for i := 0; i < 2; i++ {
		if err := s.WriteRevision(ctx, rev, 0); err != nil {
			t.Fatalf("WriteRevision() iteration %d failed: %v", i, err)
		}
	}
	out := sampleFrame(1, 0.016)
	for i := 0; i < 2; i++ {
		if err := s.WriteFrame(ctx, 1, out); err != nil {
			t.Fatalf("WriteFrame() iteration %d failed: %v", i, err)
		}
	}

	rec, err := s.ReadFrame(ctx, 1)
	if err != nil {
		t.Fatalf("ReadFrame() failed: %v", err)
	}
	if len(rec.Output.Renders) != 2 {
		t.Errorf("got %d renders after double write, want 2", len(rec.Output.Renders))
	}
}

func TestReadRange_SkipsGaps(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.WriteRevision(ctx, runtime.Revision{Seq: 1, Token: "t", Hash: "h"}, 0); err != nil {
		t.Fatalf("WriteRevision() failed: %v", err)
	}
	for _, f := range []uint64{1, 2, 5} {
		if err := s.WriteFrame(ctx, 1, sampleFrame(f, float64(f)*0.016)); err != nil {
			t.Fatalf("WriteFrame(%d) failed: %v", f, err)
		}
	}

	recs, err := s.ReadRange(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ReadRange() failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d frames, want 3", len(recs))
	}
	for i, want := range []uint64{1, 2, 5} {
		if recs[i].Output.Frame != want {
			t.Errorf("frame %d = %d, want %d", i, recs[i].Output.Frame, want)
		}
	}
}

func TestRenderHistory_FiltersByTag(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.WriteRevision(ctx, runtime.Revision{Seq: 1, Token: "t", Hash: "h"}, 0); err != nil {
		t.Fatalf("WriteRevision() failed: %v", err)
	}
	for f := uint64(1); f <= 3; f++ {
		if err := s.WriteFrame(ctx, 1, sampleFrame(f, float64(f)*0.016)); err != nil {
			t.Fatalf("WriteFrame(%d) failed: %v", f, err)
		}
	}

	hist, err := s.RenderHistory(ctx, "aux", 1, 3)
	if err != nil {
		t.Fatalf("RenderHistory() failed: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("got %d samples, want 3", len(hist))
	}
	for i, smp := range hist {
		if smp.Frame != uint64(i+1) {
			t.Errorf("sample %d frame = %d, want %d", i, smp.Frame, i+1)
		}
		if smp.Render.Tag != "aux" {
			t.Errorf("sample %d tag = %q, want aux", i, smp.Render.Tag)
		}
		if len(smp.Render.Data) != 1 || smp.Render.Data[0] != 42 {
			t.Errorf("sample %d data = %v", i, smp.Render.Data)
		}
	}
}

func TestRevisions_InstallOrder(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for seq := int64(1); seq <= 3; seq++ {
		rev := runtime.Revision{Seq: seq, Token: "tok-" + string(rune('a'+seq)), Hash: "h"}
		if err := s.WriteRevision(ctx, rev, uint64(seq*10)); err != nil {
			t.Fatalf("WriteRevision(%d) failed: %v", seq, err)
		}
	}

	recs, err := s.Revisions(ctx)
	if err != nil {
		t.Fatalf("Revisions() failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d revisions, want 3", len(recs))
	}
	for i, r := range recs {
		if r.Seq != int64(i+1) {
			t.Errorf("revision %d seq = %d, want %d", i, r.Seq, i+1)
		}
		if r.InstalledFrame != uint64((i+1)*10) {
			t.Errorf("revision %d frame = %d", i, r.InstalledFrame)
		}
	}
}
