package nl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/interpreter"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
	authhandler "github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler/auth"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/middleware/auth"
)

const testSecret = "test-secret"

// setupApp wires the command endpoint with an in-memory policy graph, one
// Admin and one plain user, and returns bearer tokens for both.
func setupApp(t *testing.T) (*fiber.App, string, string) {
	t.Helper()

	store := rbac.NewMemoryStore()
	engine := rbac.NewEngine(store)
	ctx := context.Background()

	adminRole, err := engine.CreateRole(ctx, rbac.CreateInput{Name: auth.RoleAdmin})
	require.NoError(t, err)

	adminUser := store.AddUser("admin@admin.com")
	store.GrantRole(adminUser.ID, adminRole.ID)
	plainUser := store.AddUser("user@user.com")

	cfg := &config.Config{Auth: config.Auth{JWTSecret: testSecret, TokenTTL: time.Hour}}

	app := fiber.New()

	service := Service{}
	require.NoError(t, service.Init(app, cfg, engine, interpreter.New(engine, nil)))

	adminToken, err := authhandler.SignToken(testSecret, time.Hour,
		&models.User{ID: adminUser.ID, Email: adminUser.Email})
	require.NoError(t, err)

	plainToken, err := authhandler.SignToken(testSecret, time.Hour,
		&models.User{ID: plainUser.ID, Email: plainUser.Email})
	require.NoError(t, err)

	return app, adminToken, plainToken
}

func postCommand(t *testing.T, app *fiber.App, token, command string) (int, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(fiber.Map{"command": command})
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, "/api/nl/command", bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close() //nolint:errcheck // test

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	return resp.StatusCode, body
}

func TestCommandCreatesPermission(t *testing.T) {
	app, adminToken, _ := setupApp(t)

	status, body := postCommand(t, app, adminToken, "Create a permission for viewing reports")
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "create_permission", body["action"])
	assert.Equal(t, "Create a permission for viewing reports", body["command"])

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["ok"])

	permission, ok := result["permission"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "viewing reports", permission["name"])
}

func TestCommandRequiresAdmin(t *testing.T) {
	app, _, plainToken := setupApp(t)

	status, _ := postCommand(t, app, "", "Create a permission for viewing reports")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = postCommand(t, app, plainToken, "Create a permission for viewing reports")
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestCommandUnrecognized(t *testing.T) {
	app, adminToken, _ := setupApp(t)

	status, body := postCommand(t, app, adminToken, "asdkjasd random text")
	require.Equal(t, fiber.StatusBadRequest, status)

	assert.Equal(t, "Could not understand the command", body["error"])
	assert.NotEmpty(t, body["examples"])
}

func TestCommandConflict(t *testing.T) {
	app, adminToken, _ := setupApp(t)

	status, _ := postCommand(t, app, adminToken, "Make a new role called Manager")
	require.Equal(t, fiber.StatusOK, status)

	status, body := postCommand(t, app, adminToken, "Make a new role called Manager")
	require.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, body["error"], "already exists")
}

func TestCommandValidatesBody(t *testing.T) {
	app, adminToken, _ := setupApp(t)

	status, body := postCommand(t, app, adminToken, "")
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "command required", body["error"])
}
