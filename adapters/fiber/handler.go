package fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/taskhive/vouch"
)

func (a *Adapter) register(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input vouch.RegisterInput
		if err := c.Bind().Body(&input); err != nil {
			return badRequest(c)
		}

		result, err := auth.Register(input)
		if err != nil {
			return handleAuthError(c, err)
		}

		return c.Status(http.StatusCreated).JSON(result)
	}
}

func (a *Adapter) verifyEmail(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		// The bearer token here is the verification token from Register or
		// from an unverified Login, not a session.
		token := extractToken(c)
		if token == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"error": vouch.ErrMissingAuthHeader.Error(),
			})
		}

		var body struct {
			Code string `json:"code"`
		}
		if err := c.Bind().Body(&body); err != nil {
			return badRequest(c)
		}

		user, err := auth.VerifyEmail(token, body.Code)
		if err != nil {
			return handleAuthError(c, err)
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"message": "user email verified",
			"user":    user,
		})
	}
}

func (a *Adapter) login(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input vouch.LoginInput
		if err := c.Bind().Body(&input); err != nil {
			return badRequest(c)
		}

		result, err := auth.Login(input)
		if err != nil {
			return handleAuthError(c, err)
		}

		return c.Status(http.StatusOK).JSON(result)
	}
}

func (a *Adapter) logout(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := auth.Logout(extractToken(c)); err != nil {
			return handleAuthError(c, err)
		}

		// Clear the cookie copy of the token, if the client used one.
		c.ClearCookie("auth_token")

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"message": "user logged out",
		})
	}
}

func (a *Adapter) forgotPassword(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.Bind().Body(&body); err != nil {
			return badRequest(c)
		}

		if err := auth.ForgotPassword(body.Email); err != nil {
			return handleAuthError(c, err)
		}

		// Same acknowledgement whether or not the account exists.
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"message": "if that email is registered, a reset code has been sent",
		})
	}
}

func (a *Adapter) resetPassword(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		var body struct {
			Password string `json:"password"`
		}
		if err := c.Bind().Body(&body); err != nil {
			return badRequest(c)
		}

		if err := auth.ResetPassword(c.Params("token"), body.Password); err != nil {
			return handleAuthError(c, err)
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"message": "password reset successfully",
		})
	}
}

func (a *Adapter) changePassword(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		user := principal(c)
		if user == nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"error": vouch.ErrMissingAuthHeader.Error(),
			})
		}

		var body struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := c.Bind().Body(&body); err != nil {
			return badRequest(c)
		}

		if err := auth.ChangePassword(user.ID, body.CurrentPassword, body.NewPassword); err != nil {
			return handleAuthError(c, err)
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"message": "password changed successfully",
		})
	}
}

func (a *Adapter) listUsers(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		users, err := auth.ListUsers()
		if err != nil {
			return handleAuthError(c, err)
		}

		return c.Status(http.StatusOK).JSON(users)
	}
}

func (a *Adapter) deleteUser(auth vouch.AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := auth.DeleteUser(c.Params("id")); err != nil {
			return handleAuthError(c, err)
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"message": "user deleted successfully",
		})
	}
}

func badRequest(c fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
	})
}

// handleAuthError maps auth errors to appropriate HTTP responses
func handleAuthError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		// Internal details (storage errors, wrapped causes) never cross the
		// boundary verbatim.
		return c.Status(status).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// mapErrorToStatus maps vouch error types to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, vouch.ErrInvalidCredentials),
		errors.Is(err, vouch.ErrInvalidToken),
		errors.Is(err, vouch.ErrTokenExpired),
		errors.Is(err, vouch.ErrMissingAuthHeader),
		errors.Is(err, vouch.ErrInvalidUser):
		return http.StatusUnauthorized

	case errors.Is(err, vouch.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, vouch.ErrUserExists):
		return http.StatusConflict

	case errors.Is(err, vouch.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, vouch.ErrCodeInvalid),
		errors.Is(err, vouch.ErrCodeExpired),
		errors.Is(err, vouch.ErrFullNameRequired),
		errors.Is(err, vouch.ErrEmailRequired),
		errors.Is(err, vouch.ErrInvalidEmail),
		errors.Is(err, vouch.ErrPasswordRequired),
		errors.Is(err, vouch.ErrPasswordTooShort),
		errors.Is(err, vouch.ErrPasswordTooLong),
		errors.Is(err, vouch.ErrPasswordMismatch):
		return http.StatusBadRequest

	case errors.Is(err, vouch.ErrDeliveryFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
