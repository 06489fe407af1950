package db

import "time"

// DateLayout is the storage and form layout of [Event.Date].
const DateLayout = time.DateOnly

// ParseDate returns the event date as a time. An error is returned if the
// stored value does not match [DateLayout].
func (e Event) ParseDate() (time.Time, error) {
	return time.Parse(DateLayout, e.Date)
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}
