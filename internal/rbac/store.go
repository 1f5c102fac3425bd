package rbac

import (
	"context"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
)

// Store is the repository capability the engine depends on. Implementations
// must be safe for concurrent use and must keep each attach/detach call
// atomic with respect to other mutations of the same role.
type Store interface {
	// PermissionByName returns the permission with the given name,
	// or ErrPermissionNotFound.
	PermissionByName(ctx context.Context, name string) (*models.Permission, error)

	// CreatePermission persists a new permission. It returns
	// ErrPermissionExists when the name is already taken, including when a
	// concurrent create won the race.
	CreatePermission(ctx context.Context, perm *models.Permission) error

	// RoleByName returns the role with the given name, with its permission
	// set loaded, or ErrRoleNotFound.
	RoleByName(ctx context.Context, name string) (*models.Role, error)

	// CreateRole persists a new role. It returns ErrRoleExists when the name
	// is already taken, including when a concurrent create won the race.
	CreateRole(ctx context.Context, role *models.Role) error

	// UserRoles returns the roles of the given user with each role's
	// permission set loaded, or ErrUserNotFound.
	UserRoles(ctx context.Context, userID uint64) ([]models.Role, error)

	// AttachPermission adds the permission to the role's set.
	// Attaching an already-attached permission is a no-op.
	AttachPermission(ctx context.Context, roleID, permissionID uint) error

	// DetachPermission removes the permission from the role's set.
	// Detaching a permission that is not attached is a no-op.
	DetachPermission(ctx context.Context, roleID, permissionID uint) error
}
