package interview

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuestionBank is fatal: no session can start without questions.
	ErrEmptyQuestionBank = errors.New("question bank returned no questions")
	ErrPlaybackFailure   = errors.New("question playback failed")
	ErrCaptureFailure    = errors.New("answer capture failed")
	ErrEvaluationFailure = errors.New("answer evaluation failed")
	// ErrDuplicateResponse is returned when a question already has a committed response.
	ErrDuplicateResponse = errors.New("question already has a response")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrClosed            = errors.New("session is closed")
)

// FailureKind names a recoverable failure.
type FailureKind string

const (
	FailurePlayback   FailureKind = "playback"
	FailureCapture    FailureKind = "capture"
	FailureEvaluation FailureKind = "evaluation"
)

// Failure is the last recoverable error of the current question. It is
// cleared by the next successful step.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Err returns the failure wrapped around its sentinel error.
func (f Failure) Err() error {
	var base error
	switch f.Kind {
	case FailurePlayback:
		base = ErrPlaybackFailure
	case FailureCapture:
		base = ErrCaptureFailure
	default:
		base = ErrEvaluationFailure
	}
	return fmt.Errorf("%w: %s", base, f.Message)
}

func invalidTransition(op string, from State) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, from)
}
