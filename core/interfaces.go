package core

import "time"

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS (Database operations)
// ============================================

// UserStorage defines user-related database operations.
//
// CreateUser must enforce email uniqueness atomically and return
// ErrUserExists on a duplicate; the service layer performs no
// check-then-insert of its own.
type UserStorage interface {
	CreateUser(u *User) error
	GetUserByID(id string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	UpdateUser(u *User) error
	DeleteUser(id string) error
	ListUsers() ([]*User, error)
}

// ArtifactStorage defines persistence for pending one-time secrets.
type ArtifactStorage interface {
	// SaveArtifact stores a, atomically replacing any prior artifact for the
	// same (UserID, Purpose) pair.
	SaveArtifact(a *Artifact) error

	// Query methods
	GetArtifact(userID string, purpose ArtifactPurpose) (*Artifact, error)
	GetArtifactBySecretHash(purpose ArtifactPurpose, secretHash string) (*Artifact, error)

	// Delete methods
	DeleteArtifact(userID string, purpose ArtifactPurpose) error

	// DeleteArtifactBySecretHash removes the artifact with the given digest
	// and reports whether a row was actually deleted. The delete must be
	// atomic: of two concurrent callers, at most one observes true.
	DeleteArtifactBySecretHash(secretHash string) (bool, error)

	// Cleanup. Expiry is always re-checked at consumption time, so this is
	// storage hygiene only.
	DeleteExpiredArtifacts() (int, error)
}

type AuthStorage interface {
	UserStorage
	ArtifactStorage
}

// ============================================
// NOTIFICATION PORT
// ============================================

// NotificationKind selects the outbound message template.
type NotificationKind string

const (
	NotifyVerifyEmail   NotificationKind = "verify-email"
	NotifyPasswordReset NotificationKind = "password-reset"
)

// Notification is a single outbound message carrying a one-time secret.
type Notification struct {
	Kind NotificationKind
	To   string
	Name string
	Code string
}

// Mailer delivers notifications. Implementations own transport, templates,
// and retry policy; a non-nil error is surfaced to the caller as
// ErrDeliveryFailed without rolling back the issued artifact.
type Mailer interface {
	Send(n Notification) error
}

// ============================================
// AUTH PROVIDER (for HTTP adapters)
// ============================================

// AuthProvider exposes every authentication flow to transport adapters.
type AuthProvider interface {
	Register(input RegisterInput) (*RegisterResult, error)
	VerifyEmail(verificationToken, code string) (*User, error)
	Login(input LoginInput) (*LoginResult, error)
	Logout(token string) error
	ForgotPassword(email string) error
	ResetPassword(rawSecret, newPassword string) error
	ChangePassword(userID, currentPassword, newPassword string) error

	Authenticate(token string) (*User, error)
	Authorize(u *User, required Role) error

	DeleteUser(id string) error
	ListUsers() ([]*User, error)
}

// ============================================
// LIFETIMES
// ============================================

// Lifetimes bundles every expiry window in one place.
type Lifetimes struct {
	Session       time.Duration // session bearer tokens
	VerifyToken   time.Duration // verification-purpose bearer tokens
	VerifyCode    time.Duration // email-verification codes
	PasswordReset time.Duration // password-reset secrets
}

// DefaultLifetimes returns the standard expiry windows: sessions 24h,
// verification tokens 5m, verification codes 10m, reset secrets 60m.
func DefaultLifetimes() Lifetimes {
	return Lifetimes{
		Session:       24 * time.Hour,
		VerifyToken:   5 * time.Minute,
		VerifyCode:    10 * time.Minute,
		PasswordReset: 60 * time.Minute,
	}
}
