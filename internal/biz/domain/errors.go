package domain

import "errors"

var (
	// ErrAccessDenied marks events from chats and users outside the allow-list
	ErrAccessDenied = errors.New("access denied")

	// ErrNoResolvableSource marks events whose referenced content is missing
	ErrNoResolvableSource = errors.New("no resolvable source text")

	// ErrBackendFailure marks a failed remote translation call
	ErrBackendFailure = errors.New("translation backend failure")

	// ErrDeletionFailure marks a scheduled deletion that could not be carried out
	ErrDeletionFailure = errors.New("message deletion failure")
)

// FailureText is the literal reply sent when a translation backend fails
const FailureText = "Translation failed."
