package repo

import "context"

// PreferenceRepo stores per-user settings
type PreferenceRepo interface {
	// AutoTranslate reports whether the user enabled auto-translate
	AutoTranslate(ctx context.Context, userID string) (bool, error)

	// ToggleAutoTranslate flips the flag and returns the new value
	ToggleAutoTranslate(ctx context.Context, userID string) (bool, error)

	Close() error
}
