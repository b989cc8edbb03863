// Package models defines the persisted server-side data structures.
package models

import "database/sql"

// Credential is one registered identity: a unique identifier (email or
// username depending on configuration), a salted password digest, and the
// server-held opaque session token. Opaque is NULL until the first login
// and is replaced on every successful verification; it is the only
// server-held session secret.
type Credential struct {
	ID           int64
	Identifier   string
	PasswordHash []byte
	Opaque       sql.NullString
}
