package models

import "errors"

// Sentinel errors shared by the grading core and its delivery layers.
// Wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrInvalidGraderCount is returned when a roll asks for fewer than one grader or more than the configured maximum.
	ErrInvalidGraderCount = errors.New("invalid grader count")

	// ErrPastDeadline is returned when the time left is requested for a deadline that is not in the future.
	ErrPastDeadline = errors.New("deadline is not in the future")

	// ErrLedgerIO is returned when the grading ledger document cannot be read or written.
	ErrLedgerIO = errors.New("grading ledger unavailable")

	// ErrSourceUnavailable is returned when a repository or deadline source call fails.
	// The condition is retryable; nothing retries it automatically above the client.
	ErrSourceUnavailable = errors.New("source unavailable")

	ErrAssignmentRequired = errors.New("assignment is required")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrPermissionDenied   = errors.New("permission denied")
)
