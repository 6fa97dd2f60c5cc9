// Package vouch is an embeddable credential and verification lifecycle
// library: registration, email verification via one-time codes, login with
// stateless session tokens, password reset, and role-gated authorization.
// Storage, HTTP framework, and outbound email are pluggable adapters.
package vouch

import (
	"fmt"

	"github.com/taskhive/vouch/core"
	"github.com/taskhive/vouch/pkg/crypto"
	"github.com/taskhive/vouch/pkg/token"
	"github.com/taskhive/vouch/services"
)

// interfaces
type (
	AuthStorage  = core.AuthStorage
	AuthProvider = core.AuthProvider
	Mailer       = core.Mailer

	PasswordHandler = crypto.PasswordHandler
	TokenIssuer     = token.Issuer
)

// structs
type (
	User         = core.User
	Artifact     = core.Artifact
	Notification = core.Notification
	Lifetimes    = core.Lifetimes

	RegisterInput  = core.RegisterInput
	RegisterResult = core.RegisterResult
	LoginInput     = core.LoginInput
	LoginResult    = core.LoginResult
)

// roles
type Role = core.Role

const (
	RoleMember  = core.RoleMember
	RoleCreator = core.RoleCreator
	RoleAdmin   = core.RoleAdmin
)

// artifact purposes
type ArtifactPurpose = core.ArtifactPurpose

const (
	ArtifactEmailVerify   = core.ArtifactEmailVerify
	ArtifactPasswordReset = core.ArtifactPasswordReset
)

const (
	defaultBasePath  = "/api/auth"
	defaultSecretLen = 32
)

// Constructors & helpers (convenience re-exports)
var (
	NewArgon2        = crypto.NewArgon2
	NewHS256         = token.NewHS256
	DefaultLifetimes = core.DefaultLifetimes
)

var (
	ErrUserExists         = core.ErrUserExists
	ErrUserNotFound       = core.ErrUserNotFound
	ErrInvalidCredentials = core.ErrInvalidCredentials
	ErrInvalidUser        = core.ErrInvalidUser
	ErrForbidden          = core.ErrForbidden
)

var (
	ErrMissingAuthHeader = core.ErrMissingAuthHeader
	ErrInvalidToken      = core.ErrInvalidToken
	ErrTokenExpired      = core.ErrTokenExpired
)

var (
	ErrCodeInvalid      = core.ErrCodeInvalid
	ErrCodeExpired      = core.ErrCodeExpired
	ErrArtifactNotFound = core.ErrArtifactNotFound
)

var (
	ErrFullNameRequired = core.ErrFullNameRequired
	ErrEmailRequired    = core.ErrEmailRequired
	ErrInvalidEmail     = core.ErrInvalidEmail
	ErrPasswordRequired = core.ErrPasswordRequired
	ErrPasswordTooShort = core.ErrPasswordTooShort
	ErrPasswordTooLong  = core.ErrPasswordTooLong
	ErrPasswordMismatch = core.ErrPasswordMismatch
)

var (
	ErrDeliveryFailed = core.ErrDeliveryFailed
)

var (
	ErrStorageRequired = core.ErrStorageRequired
	ErrMailerRequired  = core.ErrMailerRequired
	ErrSecretRequired  = core.ErrSecretRequired
	ErrSecretTooShort  = core.ErrSecretTooShort
)

// Config wires the library's collaborators together.
type Config struct {
	// Secret signs bearer tokens. Required, minimum 32 characters.
	Secret string

	// Database persists users and pending one-time secrets. Required.
	Database AuthStorage

	// Mailer delivers verification codes and reset secrets. Required.
	Mailer Mailer

	// Optional config
	HTTP           HTTPAdapter
	PasswordHasher PasswordHandler
	Lifetimes      *Lifetimes
	BasePath       string
}

// HTTPAdapter binds a web framework to the auth flows.
type HTTPAdapter interface {
	RegisterRoutes(v *Vouch) error
}

// Vouch is the assembled library instance.
type Vouch struct {
	Auth     AuthProvider
	BasePath string
}

// New validates config, fills defaults, and assembles the service graph.
// Dependencies are explicit: nothing here is a package-level singleton.
func New(config Config) (*Vouch, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Database == nil {
		return nil, ErrStorageRequired
	}
	if config.Mailer == nil {
		return nil, ErrMailerRequired
	}

	// Set Defaults

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = crypto.NewArgon2()
	}

	lifetimes := core.DefaultLifetimes()
	if config.Lifetimes != nil {
		lifetimes = *config.Lifetimes
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	issuer := token.NewHS256(config.Secret)
	ledger := services.NewLedger(config.Database)
	auth := services.NewAuthService(
		config.Database,
		passwordHasher,
		issuer,
		ledger,
		config.Mailer,
		lifetimes,
	)

	v := &Vouch{
		Auth:     auth,
		BasePath: basePath,
	}

	if config.HTTP != nil {
		if err := config.HTTP.RegisterRoutes(v); err != nil {
			return nil, err
		}
	}

	return v, nil
}
