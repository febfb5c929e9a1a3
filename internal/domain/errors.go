package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when an attempt id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotStarted is returned when acting on a session before start.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrSessionCompleted is returned when mutating a finalized session.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrSessionStarted is returned when starting a session twice.
	ErrSessionStarted = errors.New("quiz session already started")
	// ErrAllAnswered is returned when submitting after the last question.
	ErrAllAnswered = errors.New("every question has been answered")
	// ErrInvalidDocument matches every *ValidationError.
	ErrInvalidDocument = errors.New("invalid quiz document")
	// ErrSelection matches every *SelectionError.
	ErrSelection = errors.New("question selection failed")
	// ErrSubmission matches every *SubmissionError.
	ErrSubmission = errors.New("submission rejected")
	// ErrPrematureFinalize is returned when finalizing an incomplete attempt.
	ErrPrematureFinalize = errors.New("attempt is not complete")
)

// ValidationError identifies the first offending field of a quiz document.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid quiz document at %s: %s", e.Path, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidDocument }

// SelectionError reports a delivery count that the pool cannot satisfy.
type SelectionError struct {
	Requested int
	Available int
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("cannot deliver %d questions from a pool of %d", e.Requested, e.Available)
}

func (e *SelectionError) Is(target error) bool { return target == ErrSelection }

// SubmissionErrorKind classifies a rejected submission.
type SubmissionErrorKind string

const (
	WrongSelectionCount SubmissionErrorKind = "wrong_selection_count"
	OptionOutOfRange    SubmissionErrorKind = "option_out_of_range"
	DuplicateOption     SubmissionErrorKind = "duplicate_option"
	QuestionMismatch    SubmissionErrorKind = "question_mismatch"
)

// SubmissionError is recoverable: the learner must resubmit.
type SubmissionError struct {
	Kind       SubmissionErrorKind
	QuestionID string
	Expected   int
	Got        int
}

func (e *SubmissionError) Error() string {
	switch e.Kind {
	case WrongSelectionCount:
		return fmt.Sprintf("question %s: select exactly %d option(s), got %d", e.QuestionID, e.Expected, e.Got)
	case OptionOutOfRange:
		return fmt.Sprintf("question %s: option %d is out of range", e.QuestionID, e.Got)
	case DuplicateOption:
		return fmt.Sprintf("question %s: option %d chosen more than once", e.QuestionID, e.Got)
	case QuestionMismatch:
		return fmt.Sprintf("answer is for question %s, not the current question", e.QuestionID)
	default:
		return fmt.Sprintf("question %s: %s", e.QuestionID, e.Kind)
	}
}

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmission }

// PrematureFinalizeError is returned by Finalize before every question is answered.
type PrematureFinalizeError struct {
	Answered int
	Total    int
}

func (e *PrematureFinalizeError) Error() string {
	return fmt.Sprintf("cannot finalize: %d of %d questions answered", e.Answered, e.Total)
}

func (e *PrematureFinalizeError) Is(target error) bool { return target == ErrPrematureFinalize }
