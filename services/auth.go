package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/taskhive/vouch/core"
	"github.com/taskhive/vouch/pkg/crypto"
	"github.com/taskhive/vouch/pkg/token"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// AuthService implements every credential-lifecycle flow on top of the
// storage, hashing, token, ledger, and notification collaborators. It holds
// no mutable state of its own, so a single instance serves concurrent
// requests; the slow hashing calls run without any shared lock.
type AuthService struct {
	db        core.AuthStorage
	passwords crypto.PasswordHandler
	tokens    token.Issuer
	ledger    *Ledger
	mailer    core.Mailer
	lifetimes core.Lifetimes
}

// Ensure AuthService implements AuthProvider
var _ core.AuthProvider = (*AuthService)(nil)

func NewAuthService(
	db core.AuthStorage,
	passwords crypto.PasswordHandler,
	tokens token.Issuer,
	ledger *Ledger,
	mailer core.Mailer,
	lifetimes core.Lifetimes,
) *AuthService {
	return &AuthService{
		db:        db,
		passwords: passwords,
		tokens:    tokens,
		ledger:    ledger,
		mailer:    mailer,
		lifetimes: lifetimes,
	}
}

// Register creates an unverified account, issues an email-verification code,
// and returns a verification-purpose token bound to the new account.
//
// If the notification cannot be delivered, ErrDeliveryFailed is returned but
// the account and the pending code stay live: a later login re-issues and
// re-sends a fresh code.
func (s *AuthService) Register(input core.RegisterInput) (*core.RegisterResult, error) {
	// Step 1: Validate input
	email, err := validateRegister(&input)
	if err != nil {
		return nil, err
	}

	// Step 2: Hash the password
	hashedPassword, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Step 3: Create the user. Email uniqueness is enforced atomically by
	// the storage layer, which reports a duplicate as ErrUserExists.
	user := &core.User{
		FullName:      strings.TrimSpace(input.FullName),
		Email:         email,
		PasswordHash:  hashedPassword,
		Role:          core.RoleMember,
		EmailVerified: false,
	}
	if err := s.db.CreateUser(user); err != nil {
		if errors.Is(err, core.ErrUserExists) {
			return nil, core.ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Step 4: Issue the verification code and token
	verificationToken, err := s.issueVerification(user)
	if err != nil {
		return nil, err
	}

	return &core.RegisterResult{
		User:              user,
		VerificationToken: verificationToken,
	}, nil
}

// VerifyEmail consumes a verification code under the account named by a
// verification-purpose token and flips the account to verified.
func (s *AuthService) VerifyEmail(verificationToken, code string) (*core.User, error) {
	// Step 1: The token must be a live verification token
	claims, err := s.parseToken(verificationToken, token.PurposeVerify)
	if err != nil {
		return nil, err
	}

	// Step 2: Consume the pending code (one-time use)
	if err := s.ledger.Consume(claims.SubjectID, core.ArtifactEmailVerify, code); err != nil {
		return nil, err
	}

	// Step 3: Mark the account verified
	user, err := s.db.GetUserByID(claims.SubjectID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidUser
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.EmailVerified {
		user.EmailVerified = true
		if err := s.db.UpdateUser(user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return user, nil
}

// Login authenticates by email and password.
//
// Unknown email and wrong password both yield ErrInvalidCredentials so that
// responses do not reveal whether an account exists. An unverified account
// gets a fresh verification code and token instead of a session.
func (s *AuthService) Login(input core.LoginInput) (*core.LoginResult, error) {
	// Step 1: Find the user by email
	user, err := s.db.GetUserByEmail(normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Step 2: Verify the password
	valid, err := s.passwords.Verify(input.Password, user.PasswordHash)
	if err != nil || !valid {
		return nil, core.ErrInvalidCredentials
	}

	// Step 3: Unverified accounts must finish verification first
	if !user.EmailVerified {
		verificationToken, err := s.issueVerification(user)
		if err != nil {
			return nil, err
		}
		return &core.LoginResult{
			User:                 user,
			VerificationRequired: true,
			VerificationToken:    verificationToken,
		}, nil
	}

	// Step 4: Issue a session token
	sessionToken, err := s.tokens.Issue(user.ID, token.PurposeSession, s.lifetimes.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &core.LoginResult{
		User:         user,
		SessionToken: sessionToken,
	}, nil
}

// Logout performs no server-side action: session tokens are stateless, so
// termination is the client discarding the token and expiry doing the rest.
// There is deliberately no revocation list; that trade-off is a documented
// limitation of the token design.
func (s *AuthService) Logout(_ string) error {
	return nil
}

// ForgotPassword issues a password-reset secret for the account owning email
// and delivers it via the mailer. Unknown emails return nil with no secret
// issued, so the acknowledgement is identical whether or not the account
// exists.
func (s *AuthService) ForgotPassword(email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return core.ErrEmailRequired
	}

	user, err := s.db.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	raw, err := s.ledger.Issue(user.ID, core.ArtifactPasswordReset, s.lifetimes.PasswordReset)
	if err != nil {
		return err
	}

	// A send failure does not invalidate the secret: it stays live until
	// expiry or until a fresh request supersedes it.
	if err := s.mailer.Send(core.Notification{
		Kind: core.NotifyPasswordReset,
		To:   user.Email,
		Name: user.FullName,
		Code: raw,
	}); err != nil {
		return core.ErrDeliveryFailed
	}

	return nil
}

// ResetPassword consumes a reset secret and sets a new password. The secret
// locates the account: the caller is unauthenticated, so the lookup is by
// digest across all pending reset artifacts, never by a claimed account id.
func (s *AuthService) ResetPassword(rawSecret, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	userID, err := s.ledger.ConsumeBySecret(core.ArtifactPasswordReset, rawSecret)
	if err != nil {
		return err
	}

	user, err := s.db.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.ErrInvalidUser
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	return s.setPassword(user, newPassword)
}

// ChangePassword verifies the caller's current password and replaces it.
// The caller must already be authenticated; userID comes from the resolved
// principal, not from the request body.
func (s *AuthService) ChangePassword(userID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.db.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.ErrInvalidUser
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	valid, err := s.passwords.Verify(currentPassword, user.PasswordHash)
	if err != nil || !valid {
		return core.ErrInvalidCredentials
	}

	return s.setPassword(user, newPassword)
}

// Authenticate resolves a session-purpose bearer token to a live account.
// A token whose subject has since been deleted fails with ErrInvalidUser.
func (s *AuthService) Authenticate(bearer string) (*core.User, error) {
	claims, err := s.parseToken(bearer, token.PurposeSession)
	if err != nil {
		return nil, err
	}

	user, err := s.db.GetUserByID(claims.SubjectID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidUser
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Authorize checks the principal's role against a required role, honouring
// the hierarchy admin > creator > member.
func (s *AuthService) Authorize(u *core.User, required core.Role) error {
	if u == nil {
		return core.ErrInvalidUser
	}
	if !u.Role.Satisfies(required) {
		return core.ErrForbidden
	}
	return nil
}

// DeleteUser removes an account. Role gating happens in the transport
// middleware before this runs.
func (s *AuthService) DeleteUser(id string) error {
	if err := s.db.DeleteUser(id); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return core.ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ListUsers returns every account. Role gating happens in the transport
// middleware before this runs.
func (s *AuthService) ListUsers() ([]*core.User, error) {
	users, err := s.db.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// --- helpers below ---

// issueVerification creates a fresh email-verification code (superseding any
// prior one), mails it, and mints the verification token that authorizes the
// verify-email call. Mail failure surfaces as ErrDeliveryFailed with the
// code left live.
func (s *AuthService) issueVerification(user *core.User) (string, error) {
	code, err := s.ledger.Issue(user.ID, core.ArtifactEmailVerify, s.lifetimes.VerifyCode)
	if err != nil {
		return "", err
	}

	verificationToken, err := s.tokens.Issue(user.ID, token.PurposeVerify, s.lifetimes.VerifyToken)
	if err != nil {
		return "", fmt.Errorf("failed to issue verification token: %w", err)
	}

	if err := s.mailer.Send(core.Notification{
		Kind: core.NotifyVerifyEmail,
		To:   user.Email,
		Name: user.FullName,
		Code: code,
	}); err != nil {
		return "", core.ErrDeliveryFailed
	}

	return verificationToken, nil
}

// parseToken maps issuer errors onto the service taxonomy and enforces the
// token's purpose. Wrong-purpose tokens are rejected outright: verification
// tokens never open sessions and session tokens never verify emails.
func (s *AuthService) parseToken(raw string, want token.Purpose) (*token.Claims, error) {
	if raw == "" {
		return nil, core.ErrMissingAuthHeader
	}

	claims, err := s.tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, core.ErrInvalidToken
	}
	if claims.Purpose != want {
		return nil, core.ErrInvalidToken
	}

	return claims, nil
}

func (s *AuthService) setPassword(user *core.User, newPassword string) error {
	hashed, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hashed
	if err := s.db.UpdateUser(user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func validateRegister(input *core.RegisterInput) (string, error) {
	if strings.TrimSpace(input.FullName) == "" {
		return "", core.ErrFullNameRequired
	}

	email := normalizeEmail(input.Email)
	if email == "" {
		return "", core.ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", core.ErrInvalidEmail
	}

	if err := validatePassword(input.Password); err != nil {
		return "", err
	}
	if input.Password != input.ConfirmPassword {
		return "", core.ErrPasswordMismatch
	}

	return email, nil
}

func validatePassword(password string) error {
	switch {
	case password == "":
		return core.ErrPasswordRequired
	case len(password) < minPasswordLength:
		return core.ErrPasswordTooShort
	case len(password) > maxPasswordLength:
		return core.ErrPasswordTooLong
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
