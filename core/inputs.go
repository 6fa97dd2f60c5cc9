package core

// RegisterInput contains the data needed to register a new user
type RegisterInput struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// RegisterResult contains the newly created (unverified) user and a
// verification-purpose token. The token authorizes only the verify-email
// call; it is not a session.
type RegisterResult struct {
	User              *User  `json:"user"`
	VerificationToken string `json:"verificationToken"`
}

// LoginInput contains the credentials for authentication
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the outcome of a successful credential check.
//
// For a verified user, SessionToken is set. For an unverified user,
// VerificationRequired is true and VerificationToken carries a fresh
// verification-purpose token instead; no session is issued.
type LoginResult struct {
	User                 *User  `json:"user"`
	SessionToken         string `json:"sessionToken,omitempty"`
	VerificationRequired bool   `json:"verificationRequired,omitempty"`
	VerificationToken    string `json:"verificationToken,omitempty"`
}
