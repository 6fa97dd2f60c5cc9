package core

import "errors"

// Credential errors
var (
	ErrUserExists         = errors.New("user email exists already")   // 409 Conflict
	ErrUserNotFound       = errors.New("user not found")              // 404 Not Found
	ErrInvalidCredentials = errors.New("invalid email or password")   // 401 Unauthorized
	ErrInvalidUser        = errors.New("unauthorized: invalid user")  // 401, token subject no longer exists
	ErrForbidden          = errors.New("insufficient role")           // 403 Forbidden
)

// Token errors
var (
	ErrMissingAuthHeader = errors.New("auth token is required") // 401
	ErrInvalidToken      = errors.New("invalid token")          // 401
	ErrTokenExpired      = errors.New("token has expired")      // 401
)

// One-time secret errors
var (
	ErrCodeInvalid      = errors.New("code is invalid")     // 400, wrong or already-consumed code
	ErrCodeExpired      = errors.New("code has expired")    // 400
	ErrArtifactNotFound = errors.New("artifact not found")  // storage-level, surfaces as ErrCodeInvalid
)

// Validation errors (client input)
var (
	ErrFullNameRequired = errors.New("full name is required")  // 400
	ErrEmailRequired    = errors.New("email is required")      // 400
	ErrInvalidEmail     = errors.New("invalid email format")   // 400
	ErrPasswordRequired = errors.New("password is required")   // 400
	ErrPasswordTooShort = errors.New("password is too short")  // 400
	ErrPasswordTooLong  = errors.New("password is too long")   // 400
	ErrPasswordMismatch = errors.New("passwords do not match") // 400
)

// Delivery errors
var (
	ErrDeliveryFailed = errors.New("verification code could not be sent") // 502
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired = errors.New("storage adapter is required") // 500
	ErrMailerRequired  = errors.New("mailer is required")          // 500
	ErrSecretRequired  = errors.New("secret is required")          // 500
	ErrSecretTooShort  = errors.New("secret too short")            // 500
)
