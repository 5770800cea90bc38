package auth

import (
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/models"
)

// LocalUser is the fiber.Locals key holding the signed-in *models.User.
const LocalUser = "CurrentUser"

// CurrentUser returns the signed-in user stored by the session middleware.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	u, ok := c.Locals(LocalUser).(*models.User)
	return u, ok && u != nil
}

// RequireRole creates Fiber middleware that lets only the given roles through.
// Anonymous requests get 401, other roles get 403.
func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		if !slices.Contains(roles, user.Role) {
			log.Warn().Uint64("user_id", user.ID).Str("role", user.Role.String()).
				Str("path", c.Path()).Msg("role not allowed in console")

			return fiber.NewError(fiber.StatusForbidden,
				"this console is for super admins; your area is "+Home(user.Role))
		}

		return c.Next()
	}
}
