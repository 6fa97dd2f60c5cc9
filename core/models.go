package core

import "time"

// User is an account holder.
//
// PasswordHash is the only credential stored for a user; it is never
// marshalled and never leaves the storage boundary.
type User struct {
	ID            string    `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"` // Never expose in JSON
	Photo         *string   `json:"photo,omitempty"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ArtifactPurpose distinguishes the two kinds of one-time secrets.
type ArtifactPurpose string

const (
	ArtifactEmailVerify   ArtifactPurpose = "email-verify"
	ArtifactPasswordReset ArtifactPurpose = "password-reset"
)

// Artifact is a pending one-time secret (verification code or password-reset
// token) owned by a single user for a single purpose.
//
// Only the digest of the raw secret is ever stored. At most one artifact is
// live per (UserID, Purpose) pair: saving a new one replaces the old, and a
// successful consumption deletes it.
type Artifact struct {
	UserID     string          `json:"userId"`
	Purpose    ArtifactPurpose `json:"purpose"`
	SecretHash string          `json:"-"` // Never expose in JSON
	CreatedAt  time.Time       `json:"createdAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// Expired reports whether the artifact is past its expiry at the given time.
func (a *Artifact) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
