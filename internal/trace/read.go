package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/waveline/strobe/internal/patch"
	"github.com/waveline/strobe/internal/runtime"
)

// frameArg maps a frame number onto SQLite's signed integer range, so
// open-ended ranges expressed as MaxUint64 still match every row.
func frameArg(f uint64) int64 {
	if f > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

// RevisionRecord is one recorded program install.
type RevisionRecord struct {
	Seq            int64
	Token          string
	ProgramHash    string
	InstalledFrame uint64
}

// FrameRecord is one recorded frame with its outputs rehydrated.
type FrameRecord struct {
	RevisionSeq int64
	Hash        string
	Output      runtime.FrameOutput
}

// RenderSample is one render emission, tagged with the frame and time
// it was observed at. RenderHistory returns these.
type RenderSample struct {
	Frame  uint64
	Time   float64
	Render runtime.Render
}

// Revisions returns every recorded install in install order.
func (s *Store) Revisions(ctx context.Context) ([]RevisionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, token, program_hash, installed_frame
		FROM revisions ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read revisions: %w", err)
	}
	defer rows.Close()

	var recs []RevisionRecord
	for rows.Next() {
		var r RevisionRecord
		var frame int64
		if err := rows.Scan(&r.Seq, &r.Token, &r.ProgramHash, &frame); err != nil {
			return nil, fmt.Errorf("read revisions: %w", err)
		}
		r.InstalledFrame = uint64(frame)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// ReadFrame loads one frame by number. Returns sql.ErrNoRows wrapped
// when the frame was never recorded.
func (s *Store) ReadFrame(ctx context.Context, frame uint64) (*FrameRecord, error) {
	var rec FrameRecord
	rec.Output.Frame = frame
	err := s.db.QueryRowContext(ctx, `
		SELECT revision_seq, time, frame_hash FROM frames WHERE frame = ?
	`, int64(frame)).Scan(&rec.RevisionSeq, &rec.Output.Time, &rec.Hash)
	if err != nil {
		return nil, fmt.Errorf("read frame %d: %w", frame, err)
	}
	if rec.Output.Renders, err = s.readRenders(ctx, frame); err != nil {
		return nil, err
	}
	if rec.Output.Events, err = s.readEvents(ctx, frame); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReadRange loads frames [from, to] inclusive, in frame order. Gaps
// in the recording are skipped, not errors.
func (s *Store) ReadRange(ctx context.Context, from, to uint64) ([]FrameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT frame FROM frames WHERE frame >= ? AND frame <= ?
		ORDER BY frame ASC
	`, frameArg(from), frameArg(to))
	if err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}
	var frames []uint64
	for rows.Next() {
		var f int64
		if err := rows.Scan(&f); err != nil {
			rows.Close()
			return nil, fmt.Errorf("read range: %w", err)
		}
		frames = append(frames, uint64(f))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	recs := make([]FrameRecord, 0, len(frames))
	for _, f := range frames {
		rec, err := s.ReadFrame(ctx, f)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

// RenderHistory returns every emission of one render tag across the
// frame range [from, to], in frame then emission order.
func (s *Store) RenderHistory(ctx context.Context, tag string, from, to uint64) ([]RenderSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.frame, f.time, r.tag, r.stride, r.count, r.data
		FROM renders r JOIN frames f ON f.frame = r.frame
		WHERE r.tag = ? AND r.frame >= ? AND r.frame <= ?
		ORDER BY r.frame ASC, r.ord ASC
	`, tag, frameArg(from), frameArg(to))
	if err != nil {
		return nil, fmt.Errorf("render history %q: %w", tag, err)
	}
	defer rows.Close()

	var samples []RenderSample
	for rows.Next() {
		var smp RenderSample
		var frame int64
		var data string
		if err := rows.Scan(&frame, &smp.Time, &smp.Render.Tag, &smp.Render.Stride, &smp.Render.Count, &data); err != nil {
			return nil, fmt.Errorf("render history %q: %w", tag, err)
		}
		smp.Frame = uint64(frame)
		if err := json.Unmarshal([]byte(data), &smp.Render.Data); err != nil {
			return nil, fmt.Errorf("render history %q frame %d: %w", tag, frame, err)
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

func (s *Store) readRenders(ctx context.Context, frame uint64) ([]runtime.Render, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, stride, count, data FROM renders
		WHERE frame = ? ORDER BY ord ASC
	`, int64(frame))
	if err != nil {
		return nil, fmt.Errorf("read frame %d renders: %w", frame, err)
	}
	defer rows.Close()

	var renders []runtime.Render
	for rows.Next() {
		var r runtime.Render
		var data string
		if err := rows.Scan(&r.Tag, &r.Stride, &r.Count, &data); err != nil {
			return nil, fmt.Errorf("read frame %d renders: %w", frame, err)
		}
		if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
			return nil, fmt.Errorf("read frame %d render %q: %w", frame, r.Tag, err)
		}
		renders = append(renders, r)
	}
	return renders, rows.Err()
}

func (s *Store) readEvents(ctx context.Context, frame uint64) ([]runtime.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, node FROM events WHERE frame = ? ORDER BY ord ASC
	`, int64(frame))
	if err != nil {
		return nil, fmt.Errorf("read frame %d events: %w", frame, err)
	}
	defer rows.Close()

	var events []runtime.Event
	for rows.Next() {
		var e runtime.Event
		var node string
		if err := rows.Scan(&e.Tag, &node); err != nil {
			return nil, fmt.Errorf("read frame %d events: %w", frame, err)
		}
		e.Node = patch.NodeID(node)
		events = append(events, e)
	}
	return events, rows.Err()
}
