package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
)

// Roles that are allowed to see and manage every user account.
const (
	RoleAdmin  = "Admin"
	RoleEditor = "Editor"
)

// RequireRole creates fiber middleware that requires the subject to hold
// the named role. No authenticated subject yields 401; a subject without
// the role yields 403. The check only reads the policy graph.
func RequireRole(engine *rbac.Engine, roleName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return unauthorized(c, "Unauthorized")
		}

		hasRole, err := engine.UserHasRole(c.UserContext(), userID, roleName)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Str("role", roleName).
				Msg("Failed to check role")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server error",
			})
		}

		if !hasRole {
			log.Warn().Uint64("user_id", userID).Str("role", roleName).
				Msg("User lacks required role")

			return forbidden(c, "Access denied: Insufficient role")
		}

		return c.Next()
	}
}

// RequirePermission creates fiber middleware that requires the subject to
// hold the named permission through any of its roles.
func RequirePermission(engine *rbac.Engine, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return unauthorized(c, "Unauthorized")
		}

		hasPermission, err := engine.UserHasPermission(c.UserContext(), userID, permission)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Str("permission", permission).
				Msg("Failed to check permission")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server error",
			})
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", userID).Str("permission", permission).
				Msg("User lacks required permission")

			return forbidden(c, "Forbidden")
		}

		return c.Next()
	}
}

// RequireAnyPermission creates fiber middleware that requires at least one
// of the given permissions.
func RequireAnyPermission(engine *rbac.Engine, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return unauthorized(c, "Unauthorized")
		}

		hasPermission, err := engine.UserHasAnyPermission(c.UserContext(), userID, permissions...)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Strs("permissions", permissions).
				Msg("Failed to check permissions")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server error",
			})
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", userID).Strs("permissions", permissions).
				Msg("User lacks required permissions")

			return forbidden(c, "Access denied")
		}

		return c.Next()
	}
}

// RequireAnyRole creates fiber middleware that requires at least one of the
// given roles.
func RequireAnyRole(engine *rbac.Engine, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return unauthorized(c, "Unauthorized")
		}

		hasRole, err := engine.UserHasAnyRole(c.UserContext(), userID, roles...)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", userID).Strs("roles", roles).
				Msg("Failed to check roles")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server error",
			})
		}

		if !hasRole {
			return forbidden(c, "Access denied")
		}

		return c.Next()
	}
}

// CanAccessUser creates fiber middleware that grants access to a user
// resource when the subject is an Admin or Editor (full user-management
// visibility), or when the subject is the targeted user itself.
func CanAccessUser(engine *rbac.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return unauthorized(c, "Unauthorized")
		}

		for _, role := range []string{RoleAdmin, RoleEditor} {
			hasRole, err := engine.UserHasRole(c.UserContext(), userID, role)
			if err != nil {
				log.Error().Err(err).Uint64("user_id", userID).Str("role", role).
					Msg("Failed to check role")

				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Server error",
				})
			}

			if hasRole {
				return c.Next()
			}
		}

		targetID, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err == nil && targetID == userID {
			return c.Next()
		}

		return forbidden(c, "You can only access your own profile")
	}
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": message,
	})
}
