package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/taskhive/vouch"
)

const localsUserKey = "user"

// RequireAuth validates the bearer token as a session token, resolves it to
// a live account, and stores the principal in the context for downstream
// handlers.
func RequireAuth(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": vouch.ErrMissingAuthHeader.Error(),
			})
		}

		user, err := auth.Authenticate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals(localsUserKey, user)

		return c.Next()
	}
}

// RequireRole enforces a role gate on the principal resolved by RequireAuth.
// It must be mounted after RequireAuth.
func RequireRole(auth vouch.AuthProvider, required vouch.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		user := principal(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": vouch.ErrMissingAuthHeader.Error(),
			})
		}

		if err := auth.Authorize(user, required); err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.Next()
	}
}

// principal returns the authenticated user stored by RequireAuth, or nil.
func principal(c fiber.Ctx) *vouch.User {
	user, _ := c.Locals(localsUserKey).(*vouch.User)
	return user
}

// extractToken extracts the bearer token from the request.
// Checks Authorization header (Bearer token) first, then falls back to cookie.
func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}

	return c.Cookies("auth_token")
}
