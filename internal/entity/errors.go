package entity

import "errors"

var (
	// Reminder errors
	ErrReminderNotFound   = errors.New("reminder not found")
	ErrInvalidNagInterval = errors.New("nag interval must be positive")

	// Fire event errors
	ErrMissingReminderID = errors.New("fire event is missing reminder id")
	ErrUnknownAction     = errors.New("unknown reminder action")
	ErrMalformedEvent    = errors.New("malformed fire event")
)
