package rbac

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEngine creates an engine on a fresh in-memory store.
func setupEngine(t *testing.T) (*Engine, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()

	return NewEngine(store), store
}

func TestCreatePermission(t *testing.T) {
	testCases := []struct {
		name                string
		input               CreateInput
		seed                []CreateInput
		expectedError       error
		expectedName        string
		expectedDescription string
	}{
		{
			name:          "empty name",
			input:         CreateInput{Name: "   "},
			expectedError: ErrNameEmpty,
		},
		{
			name:                "default description",
			input:               CreateInput{Name: "publish articles"},
			expectedName:        "publish articles",
			expectedDescription: "Permission to publish articles",
		},
		{
			name:                "explicit description",
			input:               CreateInput{Name: "view reports", Description: "Read-only report access"},
			expectedName:        "view reports",
			expectedDescription: "Read-only report access",
		},
		{
			name:                "surrounding whitespace is trimmed",
			input:               CreateInput{Name: "  edit content  "},
			expectedName:        "edit content",
			expectedDescription: "Permission to edit content",
		},
		{
			name:          "duplicate name",
			input:         CreateInput{Name: "edit content"},
			seed:          []CreateInput{{Name: "edit content"}},
			expectedError: ErrPermissionExists,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine, _ := setupEngine(t)
			ctx := context.Background()

			for _, seed := range tc.seed {
				_, err := engine.CreatePermission(ctx, seed)
				require.NoError(t, err)
			}

			perm, err := engine.CreatePermission(ctx, tc.input)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, perm)
			} else {
				require.NoError(t, err)
				require.NotNil(t, perm)
				assert.Equal(t, tc.expectedName, perm.Name)
				assert.Equal(t, tc.expectedDescription, perm.Description)
				assert.NotZero(t, perm.ID)
			}
		})
	}
}

func TestCreatePermissionDuplicateLeavesStoreUnchanged(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.CreatePermission(ctx, CreateInput{Name: "edit content"})
	require.NoError(t, err)
	require.Equal(t, 1, store.PermissionCount())

	_, err = engine.CreatePermission(ctx, CreateInput{Name: "edit content"})
	require.ErrorIs(t, err, ErrPermissionExists)
	assert.Equal(t, 1, store.PermissionCount())
}

func TestCreateRole(t *testing.T) {
	testCases := []struct {
		name                string
		input               CreateInput
		seed                []CreateInput
		expectedError       error
		expectedName        string
		expectedDescription string
	}{
		{
			name:          "empty name",
			input:         CreateInput{Name: ""},
			expectedError: ErrNameEmpty,
		},
		{
			name:                "default description",
			input:               CreateInput{Name: "Manager"},
			expectedName:        "Manager",
			expectedDescription: "Manager role",
		},
		{
			name:                "explicit description",
			input:               CreateInput{Name: "Supervisor", Description: "Oversees editors"},
			expectedName:        "Supervisor",
			expectedDescription: "Oversees editors",
		},
		{
			name:          "duplicate name",
			input:         CreateInput{Name: "Manager"},
			seed:          []CreateInput{{Name: "Manager"}},
			expectedError: ErrRoleExists,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine, _ := setupEngine(t)
			ctx := context.Background()

			for _, seed := range tc.seed {
				_, err := engine.CreateRole(ctx, seed)
				require.NoError(t, err)
			}

			role, err := engine.CreateRole(ctx, tc.input)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, role)
			} else {
				require.NoError(t, err)
				require.NotNil(t, role)
				assert.Equal(t, tc.expectedName, role.Name)
				assert.Equal(t, tc.expectedDescription, role.Description)
			}
		})
	}
}

func TestAssignPermissionToRole(t *testing.T) {
	testCases := []struct {
		name           string
		roleName       string
		permissionName string
		expectedError  error
	}{
		{
			name:           "unknown role",
			roleName:       "Ghost",
			permissionName: "edit content",
			expectedError:  ErrRoleNotFound,
		},
		{
			name:           "unknown permission",
			roleName:       "Editor",
			permissionName: "fly",
			expectedError:  ErrPermissionNotFound,
		},
		{
			name:           "successful assign",
			roleName:       "Editor",
			permissionName: "edit content",
		},
		{
			name:           "names are trimmed",
			roleName:       "  Editor  ",
			permissionName: " edit content ",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine, _ := setupEngine(t)
			ctx := context.Background()

			_, err := engine.CreateRole(ctx, CreateInput{Name: "Editor"})
			require.NoError(t, err)
			_, err = engine.CreatePermission(ctx, CreateInput{Name: "edit content"})
			require.NoError(t, err)

			grant, err := engine.AssignPermissionToRole(ctx, tc.roleName, tc.permissionName)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, grant)
			} else {
				require.NoError(t, err)
				require.NotNil(t, grant)
				assert.Equal(t, "Editor", grant.RoleName)
				assert.Equal(t, "edit content", grant.PermissionName)
			}
		})
	}
}

func TestAssignPermissionToRoleIsIdempotent(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.CreateRole(ctx, CreateInput{Name: "Editor"})
	require.NoError(t, err)
	_, err = engine.CreatePermission(ctx, CreateInput{Name: "edit content"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = engine.AssignPermissionToRole(ctx, "Editor", "edit content")
		require.NoError(t, err)
	}

	role, err := store.RoleByName(ctx, "Editor")
	require.NoError(t, err)
	assert.Len(t, role.Permissions, 1)
}

func TestRevokePermissionFromRole(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.CreateRole(ctx, CreateInput{Name: "Editor"})
	require.NoError(t, err)
	_, err = engine.CreatePermission(ctx, CreateInput{Name: "edit content"})
	require.NoError(t, err)
	_, err = engine.AssignPermissionToRole(ctx, "Editor", "edit content")
	require.NoError(t, err)

	grant, err := engine.RevokePermissionFromRole(ctx, "Editor", "edit content")
	require.NoError(t, err)
	assert.Equal(t, "Editor", grant.RoleName)

	role, err := store.RoleByName(ctx, "Editor")
	require.NoError(t, err)
	assert.Empty(t, role.Permissions)

	// revoking again is a no-op, not an error
	_, err = engine.RevokePermissionFromRole(ctx, "Editor", "edit content")
	require.NoError(t, err)

	// but unknown names still fail
	_, err = engine.RevokePermissionFromRole(ctx, "Ghost", "edit content")
	require.ErrorIs(t, err, ErrRoleNotFound)
	_, err = engine.RevokePermissionFromRole(ctx, "Editor", "fly")
	require.ErrorIs(t, err, ErrPermissionNotFound)
}

func TestUserHasRole(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	editor, err := engine.CreateRole(ctx, CreateInput{Name: "Editor"})
	require.NoError(t, err)

	user := store.AddUser("editor@editor.com")
	store.GrantRole(user.ID, editor.ID)

	has, err := engine.UserHasRole(ctx, user.ID, "Editor")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = engine.UserHasRole(ctx, user.ID, "Admin")
	require.NoError(t, err)
	assert.False(t, has)

	// unknown users simply hold no roles
	has, err = engine.UserHasRole(ctx, 9999, "Editor")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUserHasPermissionUnionAcrossRoles(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	editor, err := engine.CreateRole(ctx, CreateInput{Name: "Editor"})
	require.NoError(t, err)
	viewer, err := engine.CreateRole(ctx, CreateInput{Name: "Viewer"})
	require.NoError(t, err)

	_, err = engine.CreatePermission(ctx, CreateInput{Name: "edit content"})
	require.NoError(t, err)
	_, err = engine.CreatePermission(ctx, CreateInput{Name: "view reports"})
	require.NoError(t, err)

	_, err = engine.AssignPermissionToRole(ctx, "Editor", "edit content")
	require.NoError(t, err)
	_, err = engine.AssignPermissionToRole(ctx, "Viewer", "view reports")
	require.NoError(t, err)

	user := store.AddUser("both@example.com")
	store.GrantRole(user.ID, editor.ID)
	store.GrantRole(user.ID, viewer.ID)

	// the user holds the union of both permission sets
	for _, permission := range []string{"edit content", "view reports"} {
		has, err := engine.UserHasPermission(ctx, user.ID, permission)
		require.NoError(t, err)
		assert.True(t, has, "expected permission %q", permission)
	}

	has, err := engine.UserHasPermission(ctx, user.ID, "delete everything")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = engine.UserHasPermission(ctx, 9999, "edit content")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUserHasAnyRoleAndPermission(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	editor, err := engine.CreateRole(ctx, CreateInput{Name: "Editor"})
	require.NoError(t, err)
	_, err = engine.CreatePermission(ctx, CreateInput{Name: "edit content"})
	require.NoError(t, err)
	_, err = engine.AssignPermissionToRole(ctx, "Editor", "edit content")
	require.NoError(t, err)

	user := store.AddUser("editor@editor.com")
	store.GrantRole(user.ID, editor.ID)

	has, err := engine.UserHasAnyRole(ctx, user.ID, "Admin", "Editor")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = engine.UserHasAnyRole(ctx, user.ID, "Admin", "Supervisor")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = engine.UserHasAnyPermission(ctx, user.ID, "manage_roles", "edit content")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = engine.UserHasAnyPermission(ctx, user.ID, "manage_roles")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestConcurrentCreatePermission(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	const workers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := engine.CreatePermission(ctx, CreateInput{Name: "edit content"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()

				return
			}

			mu.Lock()
			defer mu.Unlock()
			assert.ErrorIs(t, err, ErrPermissionExists)
		}()
	}

	wg.Wait()

	// exactly one create wins the race
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.PermissionCount())
}

func TestConcurrentAssignRevoke(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	_, err := engine.CreateRole(ctx, CreateInput{Name: "Editor"})
	require.NoError(t, err)

	const permissions = 8

	for i := 0; i < permissions; i++ {
		_, err = engine.CreatePermission(ctx, CreateInput{Name: fmt.Sprintf("perm-%d", i)})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup

	for i := 0; i < permissions; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			name := fmt.Sprintf("perm-%d", i)

			_, err := engine.AssignPermissionToRole(ctx, "Editor", name)
			assert.NoError(t, err)

			if i%2 == 0 {
				_, err = engine.RevokePermissionFromRole(ctx, "Editor", name)
				assert.NoError(t, err)
			}
		}(i)
	}

	wg.Wait()

	role, err := store.RoleByName(ctx, "Editor")
	require.NoError(t, err)
	assert.Len(t, role.Permissions, permissions/2)
}
