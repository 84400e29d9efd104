package app

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAction      = errors.New("invalid action")
	ErrAccountNotLinked   = errors.New("google account not linked")
	ErrNoCalendarSelected = errors.New("no calendar selected")
	ErrTokenRefreshFailed = errors.New("token refresh failed, reconnect the google account")
	ErrSyncFailed         = errors.New("calendar sync failed")
)
