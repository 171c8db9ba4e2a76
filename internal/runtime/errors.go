package runtime

import (
	"errors"
	"fmt"
)

// FrameError represents an error detected while advancing a frame.
//
// Frame errors are host-recoverable: the state is left exactly as it
// was before the failing frame, so the host can retry with corrected
// inputs. Compiler defects (a phase-2 step in phase 1, a slot read
// before its write) are panics, never FrameErrors.
type FrameError struct {
	// Code identifies the error category.
	Code FrameErrorCode

	// Message is a human-readable description.
	Message string

	// Frame is the frame number that failed.
	Frame uint64
}

// FrameErrorCode categorizes frame errors.
type FrameErrorCode string

const (
	// ErrCodeTimeRegression indicates the frame timestamp did not
	// strictly increase.
	ErrCodeTimeRegression FrameErrorCode = "TIME_REGRESSION"

	// ErrCodeBadInput indicates an external input sample had the wrong
	// lane width.
	ErrCodeBadInput FrameErrorCode = "BAD_INPUT"
)

// Error implements the error interface.
func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: %s (frame=%d)", e.Code, e.Message, e.Frame)
}

// IsTimeRegression reports whether err is a non-monotonic timestamp
// error. Uses errors.As to handle wrapped errors.
func IsTimeRegression(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe) && fe.Code == ErrCodeTimeRegression
}

// IsBadInput reports whether err is a malformed external input error.
func IsBadInput(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe) && fe.Code == ErrCodeBadInput
}
