package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hashed := HashPassword("admin123")
	require.NotEmpty(t, hashed)
	assert.NotEqual(t, "admin123", hashed, "password must not be stored in plaintext")

	user := User{Password: hashed}

	assert.True(t, user.VerifyPassword("admin123"))
	assert.False(t, user.VerifyPassword("wrong"))
	assert.False(t, user.VerifyPassword(""))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first := HashPassword("admin123")
	second := HashPassword("admin123")

	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
}

func TestUserBeforeSaveNormalizesEmail(t *testing.T) {
	user := User{Email: "  Admin@ADMIN.com "}

	require.NoError(t, user.BeforeSave(nil))
	assert.Equal(t, "admin@admin.com", user.Email)
}

func TestRoleHasPermission(t *testing.T) {
	role := Role{
		Name: "Editor",
		Permissions: []Permission{
			{Name: "edit_users"},
			{Name: "view_dashboard"},
		},
	}

	assert.True(t, role.HasPermission("edit_users"))
	assert.False(t, role.HasPermission("manage_roles"))

	empty := Role{Name: "bare"}
	assert.False(t, empty.HasPermission("edit_users"))
}
