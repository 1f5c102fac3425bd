// Package auth provides the JWT authentication middleware and the access
// decision predicates consulted before any protected route runs.
package auth

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

// localsUserID is the fiber.Locals key carrying the authenticated user id.
const localsUserID = "userID"

// Protected creates the bearer-token middleware. On success the verified
// user id is stored in fiber.Locals for the access decision predicates.
func Protected(jwtSecret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(jwtSecret),
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			userToken, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, "No authentication token")
			}

			claims, ok := userToken.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "Invalid token claims")
			}

			userID, err := extractUserID(claims)
			if err != nil {
				return unauthorized(c, "Invalid user ID in token")
			}

			c.Locals(localsUserID, userID)

			return c.Next()
		},
	})
}

// CurrentUserID returns the authenticated user's id from the request
// context. The second return is false when no subject is authenticated.
func CurrentUserID(c *fiber.Ctx) (uint64, bool) {
	userID, ok := c.Locals(localsUserID).(uint64)
	return userID, ok
}

// extractUserID handles multiple potential formats of user ID in token claims.
func extractUserID(claims jwt.MapClaims) (uint64, error) {
	idVal := claims["id"]
	if idVal == nil {
		return 0, fmt.Errorf("no ID found in claims")
	}

	switch v := idVal.(type) {
	case float64:
		return uint64(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse ID string: %v", err)
		}

		return parsed, nil
	case uint64:
		return v, nil
	case int:
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("unsupported ID type: %T", v)
	}
}

// jwtError handles JWT verification errors.
func jwtError(c *fiber.Ctx, _ error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "Unauthorized",
		"message": "Invalid or expired token",
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
	})
}
