package trace

import (
	"context"
	"fmt"

	"github.com/waveline/strobe/internal/canon"
	"github.com/waveline/strobe/internal/runtime"
)

// WriteRevision records one program install. Idempotent: replaying the
// same install is silently ignored.
func (s *Store) WriteRevision(ctx context.Context, rev runtime.Revision, installedFrame uint64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revisions (seq, token, program_hash, installed_frame)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`, rev.Seq, rev.Token, rev.Hash, int64(installedFrame))
	if err != nil {
		return fmt.Errorf("write revision: %w", err)
	}
	return nil
}

// WriteFrame records one frame's observable output under the revision
// that produced it. The whole frame lands in one transaction; the
// frame hash covers time, renders, and events in order.
func (s *Store) WriteFrame(ctx context.Context, revSeq int64, out *runtime.FrameOutput) error {
	hash, err := FrameHash(out)
	if err != nil {
		return fmt.Errorf("write frame %d: %w", out.Frame, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write frame %d: %w", out.Frame, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO frames (frame, revision_seq, time, frame_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(frame) DO NOTHING
	`, int64(out.Frame), revSeq, out.Time, hash); err != nil {
		return fmt.Errorf("write frame %d: %w", out.Frame, err)
	}

	for ord, r := range out.Renders {
		data, err := canon.Marshal(r.Data)
		if err != nil {
			return fmt.Errorf("write frame %d render %q: %w", out.Frame, r.Tag, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO renders (frame, ord, tag, stride, count, data)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(frame, ord) DO NOTHING
		`, int64(out.Frame), ord, r.Tag, r.Stride, r.Count, string(data)); err != nil {
			return fmt.Errorf("write frame %d render %q: %w", out.Frame, r.Tag, err)
		}
	}

	for ord, e := range out.Events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (frame, ord, tag, node)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(frame, ord) DO NOTHING
		`, int64(out.Frame), ord, e.Tag, string(e.Node)); err != nil {
			return fmt.Errorf("write frame %d event %q: %w", out.Frame, e.Tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write frame %d: %w", out.Frame, err)
	}
	return nil
}

// FrameHash is the content hash of one frame's observable output.
// Replay verification compares these across runs.
func FrameHash(out *runtime.FrameOutput) (string, error) {
	renders := make([]any, len(out.Renders))
	for i, r := range out.Renders {
		renders[i] = map[string]any{
			"tag":    r.Tag,
			"stride": int64(r.Stride),
			"count":  int64(r.Count),
			"data":   r.Data,
		}
	}
	events := make([]any, len(out.Events))
	for i, e := range out.Events {
		events[i] = map[string]any{
			"tag":  e.Tag,
			"node": string(e.Node),
		}
	}
	return canon.Hash(canon.DomainFrame, map[string]any{
		"frame":   int64(out.Frame),
		"time":    out.Time,
		"renders": renders,
		"events":  events,
	})
}
