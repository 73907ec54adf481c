package domain

import "errors"

var (
	// ErrNotFound is returned when no conversation exists for a session id
	ErrNotFound = errors.New("conversation not found")

	// ErrEmptyMessage is returned when a chat turn carries no text after trimming
	ErrEmptyMessage = errors.New("message is empty")
)
