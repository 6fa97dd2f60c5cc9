package services

import (
	"errors"
	"testing"

	"github.com/taskhive/vouch/core"
	"github.com/taskhive/vouch/pkg/crypto"
	"github.com/taskhive/vouch/pkg/token"
)

// newTestAuth wires an AuthService against in-memory fakes with fast hashing
// parameters. The mailer is returned so tests can read emailed codes.
func newTestAuth(t *testing.T) (*AuthService, *FakeStorage, *FakeMailer) {
	t.Helper()

	storage := NewFakeStorage()
	mailer := NewFakeMailer()
	hasher := &crypto.Argon2{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	issuer := token.NewHS256("0123456789abcdef0123456789abcdef")
	auth := NewAuthService(storage, hasher, issuer, NewLedger(storage), mailer, core.DefaultLifetimes())

	return auth, storage, mailer
}

func register(t *testing.T, auth *AuthService, email string) *core.RegisterResult {
	t.Helper()
	result, err := auth.Register(core.RegisterInput{
		FullName:        "Jamie Rivera",
		Email:           email,
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return result
}

// verify completes email verification using the code captured by the mailer.
func verify(t *testing.T, auth *AuthService, mailer *FakeMailer, verificationToken string) *core.User {
	t.Helper()
	sent := mailer.lastSent()
	if sent == nil {
		t.Fatal("no verification email was sent")
	}
	user, err := auth.VerifyEmail(verificationToken, sent.Code)
	if err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	return user
}

// Requirement: registration creates an unverified member account, hashes the
// password, and emails a verification code.
func TestRegister(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")

	if result.User.ID == "" {
		t.Error("user has no id")
	}
	if result.User.Role != core.RoleMember {
		t.Errorf("Role = %q, want %q", result.User.Role, core.RoleMember)
	}
	if result.User.EmailVerified {
		t.Error("new account is already verified")
	}
	if result.User.PasswordHash == "SecurePass123!" {
		t.Error("password stored in plaintext")
	}
	if result.VerificationToken == "" {
		t.Error("no verification token returned")
	}

	sent := mailer.lastSent()
	if sent == nil {
		t.Fatal("no verification email was sent")
	}
	if sent.Kind != core.NotifyVerifyEmail {
		t.Errorf("notification kind = %q, want %q", sent.Kind, core.NotifyVerifyEmail)
	}
	if sent.To != "jamie@example.com" {
		t.Errorf("notification to = %q, want %q", sent.To, "jamie@example.com")
	}
	if len(sent.Code) != 6 {
		t.Errorf("emailed code length = %d, want 6", len(sent.Code))
	}
}

// Requirement: the email address is normalized before storage, so lookups by
// the canonical form succeed regardless of input casing.
func TestRegister_NormalizesEmail(t *testing.T) {
	auth, storage, _ := newTestAuth(t)

	register(t, auth, "  Jamie@Example.COM ")

	if _, err := storage.GetUserByEmail("jamie@example.com"); err != nil {
		t.Fatalf("GetUserByEmail(canonical) error = %v", err)
	}
}

// Requirement: registering a taken email fails with ErrUserExists regardless
// of input casing.
func TestRegister_DuplicateEmail(t *testing.T) {
	auth, _, _ := newTestAuth(t)

	register(t, auth, "jamie@example.com")

	_, err := auth.Register(core.RegisterInput{
		FullName:        "Other Person",
		Email:           "JAMIE@example.com",
		Password:        "OtherPass123!",
		ConfirmPassword: "OtherPass123!",
	})
	if !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("Register(duplicate) error = %v, want ErrUserExists", err)
	}
}

// Requirement: each invalid field maps to its own sentinel error.
func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   core.RegisterInput
		wantErr error
	}{
		{
			name:    "missing full name",
			input:   core.RegisterInput{FullName: "  ", Email: "a@b.com", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!"},
			wantErr: core.ErrFullNameRequired,
		},
		{
			name:    "missing email",
			input:   core.RegisterInput{FullName: "Jamie", Email: "", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!"},
			wantErr: core.ErrEmailRequired,
		},
		{
			name:    "malformed email",
			input:   core.RegisterInput{FullName: "Jamie", Email: "not-an-email", Password: "SecurePass123!", ConfirmPassword: "SecurePass123!"},
			wantErr: core.ErrInvalidEmail,
		},
		{
			name:    "missing password",
			input:   core.RegisterInput{FullName: "Jamie", Email: "a@b.com", Password: "", ConfirmPassword: ""},
			wantErr: core.ErrPasswordRequired,
		},
		{
			name:    "short password",
			input:   core.RegisterInput{FullName: "Jamie", Email: "a@b.com", Password: "short1", ConfirmPassword: "short1"},
			wantErr: core.ErrPasswordTooShort,
		},
		{
			name:    "mismatched confirmation",
			input:   core.RegisterInput{FullName: "Jamie", Email: "a@b.com", Password: "SecurePass123!", ConfirmPassword: "Different123!"},
			wantErr: core.ErrPasswordMismatch,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			auth, _, _ := newTestAuth(t)
			if _, err := auth.Register(test.input); !errors.Is(err, test.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

// Requirement: a wrong code fails without burning the pending one; the right
// code then verifies the account, and a repeat attempt fails because the code
// is one-time.
func TestVerifyEmail_Lifecycle(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	code := mailer.lastSent().Code

	if _, err := auth.VerifyEmail(result.VerificationToken, "WRONG1"); !errors.Is(err, core.ErrCodeInvalid) {
		t.Fatalf("VerifyEmail(wrong code) error = %v, want ErrCodeInvalid", err)
	}

	user, err := auth.VerifyEmail(result.VerificationToken, code)
	if err != nil {
		t.Fatalf("VerifyEmail() error = %v after earlier mismatch", err)
	}
	if !user.EmailVerified {
		t.Fatal("account not marked verified")
	}

	if _, err := auth.VerifyEmail(result.VerificationToken, code); !errors.Is(err, core.ErrCodeInvalid) {
		t.Fatalf("VerifyEmail(repeat) error = %v, want ErrCodeInvalid", err)
	}
}

// Requirement: a session token never authorizes email verification.
func TestVerifyEmail_RejectsSessionToken(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)

	login, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "SecurePass123!"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, err := auth.VerifyEmail(login.SessionToken, "ABC123"); !errors.Is(err, core.ErrInvalidToken) {
		t.Fatalf("VerifyEmail(session token) error = %v, want ErrInvalidToken", err)
	}
}

// Requirement: a verified account logs in and receives a session token that
// authenticates back to the same account.
func TestLogin(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)

	login, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "SecurePass123!"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.VerificationRequired {
		t.Error("verified account flagged as needing verification")
	}
	if login.SessionToken == "" {
		t.Fatal("no session token issued")
	}

	principal, err := auth.Authenticate(login.SessionToken)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if principal.ID != result.User.ID {
		t.Errorf("principal = %q, want %q", principal.ID, result.User.ID)
	}
}

// Requirement: unknown email and wrong password are indistinguishable; both
// fail with ErrInvalidCredentials.
func TestLogin_InvalidCredentials(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)

	tests := []struct {
		name  string
		input core.LoginInput
	}{
		{name: "unknown email", input: core.LoginInput{Email: "nobody@example.com", Password: "SecurePass123!"}},
		{name: "wrong password", input: core.LoginInput{Email: "jamie@example.com", Password: "WrongPass123!"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := auth.Login(test.input); !errors.Is(err, core.ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

// Requirement: a correct login against an unverified account yields no
// session; instead a fresh code is emailed, superseding the registration one,
// and a new verification token is returned.
func TestLogin_UnverifiedAccount(t *testing.T) {
	auth, storage, mailer := newTestAuth(t)

	register(t, auth, "jamie@example.com")
	firstCode := mailer.lastSent().Code

	login, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "SecurePass123!"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !login.VerificationRequired {
		t.Fatal("unverified login did not require verification")
	}
	if login.SessionToken != "" {
		t.Fatal("session token issued to unverified account")
	}
	if login.VerificationToken == "" {
		t.Fatal("no fresh verification token issued")
	}
	if mailer.sentCount() != 2 {
		t.Fatalf("sent emails = %d, want 2", mailer.sentCount())
	}
	if got := storage.artifactCount(); got != 1 {
		t.Fatalf("live artifacts = %d, want 1 after re-issue", got)
	}

	// The superseded registration code no longer works.
	if _, err := auth.VerifyEmail(login.VerificationToken, firstCode); !errors.Is(err, core.ErrCodeInvalid) {
		t.Fatalf("VerifyEmail(superseded code) error = %v, want ErrCodeInvalid", err)
	}
	verify(t, auth, mailer, login.VerificationToken)
}

// Requirement: forgot-password for an unknown email acknowledges without
// issuing anything, hiding account existence.
func TestForgotPassword_UnknownEmail(t *testing.T) {
	auth, storage, mailer := newTestAuth(t)

	if err := auth.ForgotPassword("nobody@example.com"); err != nil {
		t.Fatalf("ForgotPassword(unknown) error = %v, want nil", err)
	}
	if mailer.sentCount() != 0 {
		t.Errorf("sent emails = %d, want 0", mailer.sentCount())
	}
	if storage.artifactCount() != 0 {
		t.Errorf("live artifacts = %d, want 0", storage.artifactCount())
	}
}

// Requirement: a reset secret sets a new password exactly once; the old
// password stops working and the new one logs in.
func TestResetPassword(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)

	if err := auth.ForgotPassword("jamie@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	sent := mailer.lastSent()
	if sent.Kind != core.NotifyPasswordReset {
		t.Fatalf("notification kind = %q, want %q", sent.Kind, core.NotifyPasswordReset)
	}

	if err := auth.ResetPassword(sent.Code, "BrandNewPass123!"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	if _, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "SecurePass123!"}); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("Login(old password) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "BrandNewPass123!"}); err != nil {
		t.Errorf("Login(new password) error = %v", err)
	}

	// One-time: the consumed secret cannot reset again.
	if err := auth.ResetPassword(sent.Code, "AnotherPass123!"); !errors.Is(err, core.ErrCodeInvalid) {
		t.Errorf("ResetPassword(repeat) error = %v, want ErrCodeInvalid", err)
	}
}

// Requirement: requesting a second reset supersedes the first secret; only
// the latest one works.
func TestResetPassword_SupersededSecret(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)

	if err := auth.ForgotPassword("jamie@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	stale := mailer.lastSent().Code
	if err := auth.ForgotPassword("jamie@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	current := mailer.lastSent().Code

	if err := auth.ResetPassword(stale, "BrandNewPass123!"); !errors.Is(err, core.ErrCodeInvalid) {
		t.Fatalf("ResetPassword(stale) error = %v, want ErrCodeInvalid", err)
	}
	if err := auth.ResetPassword(current, "BrandNewPass123!"); err != nil {
		t.Fatalf("ResetPassword(current) error = %v", err)
	}
}

// Requirement: the new password is validated before the secret is consumed,
// so a rejected password leaves the secret usable.
func TestResetPassword_InvalidNewPasswordKeepsSecret(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)

	if err := auth.ForgotPassword("jamie@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	secret := mailer.lastSent().Code

	if err := auth.ResetPassword(secret, "short"); !errors.Is(err, core.ErrPasswordTooShort) {
		t.Fatalf("ResetPassword(short) error = %v, want ErrPasswordTooShort", err)
	}
	if err := auth.ResetPassword(secret, "BrandNewPass123!"); err != nil {
		t.Fatalf("ResetPassword() error = %v after rejected password", err)
	}
}

// Requirement: change-password demands the current password; a wrong current
// password leaves the stored hash untouched.
func TestChangePassword(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)

	err := auth.ChangePassword(result.User.ID, "WrongPass123!", "BrandNewPass123!")
	if !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("ChangePassword(wrong current) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "SecurePass123!"}); err != nil {
		t.Fatalf("Login() error = %v; hash changed despite rejected attempt", err)
	}

	if err := auth.ChangePassword(result.User.ID, "SecurePass123!", "BrandNewPass123!"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "BrandNewPass123!"}); err != nil {
		t.Errorf("Login(new password) error = %v", err)
	}
}

// Requirement: authentication failures map onto the token error taxonomy.
func TestAuthenticate_Errors(t *testing.T) {
	auth, storage, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)
	login, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "SecurePass123!"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	t.Run("empty bearer", func(t *testing.T) {
		if _, err := auth.Authenticate(""); !errors.Is(err, core.ErrMissingAuthHeader) {
			t.Errorf("error = %v, want ErrMissingAuthHeader", err)
		}
	})
	t.Run("garbage bearer", func(t *testing.T) {
		if _, err := auth.Authenticate("not-a-token"); !errors.Is(err, core.ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})
	t.Run("verification token on session path", func(t *testing.T) {
		if _, err := auth.Authenticate(result.VerificationToken); !errors.Is(err, core.ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})
	t.Run("deleted subject", func(t *testing.T) {
		if err := storage.DeleteUser(result.User.ID); err != nil {
			t.Fatalf("DeleteUser() error = %v", err)
		}
		if _, err := auth.Authenticate(login.SessionToken); !errors.Is(err, core.ErrInvalidUser) {
			t.Errorf("error = %v, want ErrInvalidUser", err)
		}
	})
}

// Requirement: authorization follows the admin > creator > member hierarchy.
func TestAuthorize(t *testing.T) {
	auth, _, _ := newTestAuth(t)

	tests := []struct {
		name     string
		role     core.Role
		required core.Role
		wantErr  error
	}{
		{name: "member meets member", role: core.RoleMember, required: core.RoleMember},
		{name: "member denied creator", role: core.RoleMember, required: core.RoleCreator, wantErr: core.ErrForbidden},
		{name: "member denied admin", role: core.RoleMember, required: core.RoleAdmin, wantErr: core.ErrForbidden},
		{name: "creator meets member", role: core.RoleCreator, required: core.RoleMember},
		{name: "creator meets creator", role: core.RoleCreator, required: core.RoleCreator},
		{name: "creator denied admin", role: core.RoleCreator, required: core.RoleAdmin, wantErr: core.ErrForbidden},
		{name: "admin meets everything", role: core.RoleAdmin, required: core.RoleAdmin},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := auth.Authorize(&core.User{Role: test.role}, test.required)
			if test.wantErr == nil && err != nil {
				t.Errorf("Authorize() error = %v, want nil", err)
			}
			if test.wantErr != nil && !errors.Is(err, test.wantErr) {
				t.Errorf("Authorize() error = %v, want %v", err, test.wantErr)
			}
		})
	}

	t.Run("nil principal", func(t *testing.T) {
		if err := auth.Authorize(nil, core.RoleMember); !errors.Is(err, core.ErrInvalidUser) {
			t.Errorf("Authorize(nil) error = %v, want ErrInvalidUser", err)
		}
	})
}

// Requirement: a mailer outage during registration surfaces as
// ErrDeliveryFailed, but both the account and the pending code stay live so a
// later login can retry delivery.
func TestRegister_DeliveryFailure(t *testing.T) {
	auth, storage, mailer := newTestAuth(t)
	mailer.sendErr = errors.New("smtp: connection refused")

	_, err := auth.Register(core.RegisterInput{
		FullName:        "Jamie Rivera",
		Email:           "jamie@example.com",
		Password:        "SecurePass123!",
		ConfirmPassword: "SecurePass123!",
	})
	if !errors.Is(err, core.ErrDeliveryFailed) {
		t.Fatalf("Register() error = %v, want ErrDeliveryFailed", err)
	}
	if _, err := storage.GetUserByEmail("jamie@example.com"); err != nil {
		t.Fatalf("account missing after delivery failure: %v", err)
	}
	if storage.artifactCount() != 1 {
		t.Fatalf("live artifacts = %d, want 1", storage.artifactCount())
	}

	// Once mail recovers, login re-issues and the flow completes.
	mailer.sendErr = nil
	login, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "SecurePass123!"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	verify(t, auth, mailer, login.VerificationToken)
}

// Requirement: a mailer outage on forgot-password reports ErrDeliveryFailed
// and keeps the secret live until expiry or supersession.
func TestForgotPassword_DeliveryFailure(t *testing.T) {
	auth, storage, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)

	mailer.sendErr = errors.New("smtp: connection refused")
	if err := auth.ForgotPassword("jamie@example.com"); !errors.Is(err, core.ErrDeliveryFailed) {
		t.Fatalf("ForgotPassword() error = %v, want ErrDeliveryFailed", err)
	}
	if storage.artifactCount() != 1 {
		t.Fatalf("live artifacts = %d, want 1", storage.artifactCount())
	}
}

// Requirement: logout is a client-side concern; the call always succeeds and
// the token remains valid until expiry.
func TestLogout(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	result := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, result.VerificationToken)
	login, err := auth.Login(core.LoginInput{Email: "jamie@example.com", Password: "SecurePass123!"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := auth.Logout(login.SessionToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := auth.Authenticate(login.SessionToken); err != nil {
		t.Fatalf("Authenticate() error = %v; stateless tokens outlive logout", err)
	}
}

// Requirement: DeleteUser and ListUsers pass storage results through.
func TestDeleteAndListUsers(t *testing.T) {
	auth, _, mailer := newTestAuth(t)

	first := register(t, auth, "jamie@example.com")
	verify(t, auth, mailer, first.VerificationToken)
	second := register(t, auth, "alex@example.com")
	verify(t, auth, mailer, second.VerificationToken)

	users, err := auth.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("ListUsers() = %d users, want 2", len(users))
	}

	if err := auth.DeleteUser(first.User.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if err := auth.DeleteUser(first.User.ID); !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("DeleteUser(repeat) error = %v, want ErrUserNotFound", err)
	}

	users, err = auth.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("ListUsers() = %d users, want 1", len(users))
	}
}
