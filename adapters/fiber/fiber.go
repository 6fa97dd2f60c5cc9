// Package fiber adapts the auth flows to a gofiber/v3 application.
package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/taskhive/vouch"
)

type Adapter struct {
	app *fiber.App
}

var _ vouch.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

// RegisterRoutes mounts all auth routes under the configured base path.
// Role gates run before handler bodies: a member hitting an admin route is
// rejected without the handler executing.
func (a *Adapter) RegisterRoutes(v *vouch.Vouch) error {
	api := a.app.Group(v.BasePath)

	// Public routes
	api.Post("/register", a.register(v.Auth))
	api.Post("/verify-email", a.verifyEmail(v.Auth))
	api.Post("/login", a.login(v.Auth))
	api.Post("/logout", a.logout(v.Auth))
	api.Post("/forgot-password", a.forgotPassword(v.Auth))
	api.Post("/reset-password/:token", a.resetPassword(v.Auth))

	// Protected routes
	api.Patch("/change-password", RequireAuth(v.Auth), a.changePassword(v.Auth))

	// Admin routes
	admin := api.Group("/admin", RequireAuth(v.Auth))
	admin.Get("/users", RequireRole(v.Auth, vouch.RoleCreator), a.listUsers(v.Auth))
	admin.Delete("/users/:id", RequireRole(v.Auth, vouch.RoleAdmin), a.deleteUser(v.Auth))

	return nil
}
