package models

import "time"

// AuditEntry is one row of the auth incident log. PublicError is the name
// of the error that crossed the boundary to the caller; Detail is the full
// internal error, which never leaves the server.
type AuditEntry struct {
	ID          string
	Identifier  string
	Operation   string
	PublicError string
	Detail      string
	Message     string
	CreatedAt   time.Time
}
