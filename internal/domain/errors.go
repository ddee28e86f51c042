package domain

import "errors"

var (
	ErrNotificationRejected  = errors.New("notification rejected")
	ErrUnknownTerminal       = errors.New("unknown terminal")
	ErrDuplicateNotification = errors.New("notification already received")
	ErrNotificationNotFound  = errors.New("notification not found")
)
