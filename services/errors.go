package services

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBlockedContent means the submission matched the ban rule.
	ErrBlockedContent = errors.New("content contains blocked words")
	// ErrDuplicateSubmission means the same text was already posted in this session.
	ErrDuplicateSubmission = errors.New("duplicate submission")
	// ErrPersist wraps storage failures surfaced to callers.
	ErrPersist = errors.New("persist failed")
	// ErrThreadCycle is returned when parent pointers loop back on themselves.
	ErrThreadCycle = errors.New("thread parent chain contains a cycle")
)
