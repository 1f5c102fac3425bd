package auth

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/middleware/auth"
)

const testSecret = "test-secret"

func TestSignTokenRoundtrip(t *testing.T) {
	user := &models.User{ID: 42, Email: "admin@admin.com"}

	token, err := SignToken(testSecret, time.Hour, user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// the middleware must accept the token and recover the user id
	app := fiber.New()
	app.Get("/whoami", auth.Protected(testSecret), func(c *fiber.Ctx) error {
		userID, ok := auth.CurrentUserID(c)
		require.True(t, ok)

		return c.JSON(fiber.Map{"id": userID})
	})

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtectedRejectsBadTokens(t *testing.T) {
	app := fiber.New()
	app.Get("/whoami", auth.Protected(testSecret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	expired, err := SignToken(testSecret, -time.Hour, &models.User{ID: 1, Email: "a@b.com"})
	require.NoError(t, err)

	wrongKey, err := SignToken("other-secret", time.Hour, &models.User{ID: 1, Email: "a@b.com"})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"garbage token", "Bearer not.a.token"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + wrongKey},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSignTokenDistinctPerUser(t *testing.T) {
	tokens := make(map[string]struct{})

	for i := uint64(1); i <= 3; i++ {
		user := &models.User{ID: i, Email: fmt.Sprintf("user%d@example.com", i)}

		token, err := SignToken(testSecret, time.Hour, user)
		require.NoError(t, err)

		tokens[token] = struct{}{}
	}

	assert.Len(t, tokens, 3)
}
