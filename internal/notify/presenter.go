package notify

import (
	"context"
)

// Presenter renders and withdraws the user-visible notification for a
// reminder. Showing twice with the same reminder id replaces the
// visible notification instead of stacking a second one.
type Presenter interface {
	Show(ctx context.Context, reminderID int64, text string) error
	Withdraw(ctx context.Context, reminderID int64) error
}

// Config carries presentation settings resolved once at startup.
type Config struct {
	Title string
	Sound string
}
