package db

// User is a credential record.
type User struct {
	ID           uint64
	LoginName    string
	PasswordHash []byte
}

// Event is a scheduled event.
type Event struct {
	ID          uint64
	Name        string
	Date        string
	Location    string
	Description string
	OrganizerID uint64
}

// Session binds an opaque token to a login name until ExpiresAt (unix
// seconds).
type Session struct {
	Token     string
	LoginName string
	CreatedAt int64
	ExpiresAt int64
}
