// Package rbac implements the policy resolution engine: membership queries
// over the user/role/permission graph and the mutating primitives used by
// both the structured API and the command interpreter.
package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
)

// Engine answers authorization queries and mutates the policy graph.
// All mutating operations resolve entities by their human-readable name;
// the command interpreter only ever produces names, never identifiers.
type Engine struct {
	store Store
}

// NewEngine creates a new policy resolution engine on top of the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Grant identifies a (role, permission) pair affected by an assign or
// revoke operation.
type Grant struct {
	RoleName       string `json:"roleName"`
	PermissionName string `json:"permissionName"`
}

// CreateInput carries the fields for the create primitives.
// Description may be empty, in which case a default is derived from Name.
type CreateInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UserHasRole reports whether the user holds a role with exactly the given
// name. An unknown user is reported as not holding the role, not as an error.
func (e *Engine) UserHasRole(ctx context.Context, userID uint64, roleName string) (bool, error) {
	roles, err := e.store.UserRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to load user roles: %w", err)
	}

	for _, role := range roles {
		if role.Name == roleName {
			return true, nil
		}
	}

	return false, nil
}

// UserHasPermission reports whether any of the user's roles carries a
// permission with exactly the given name. A user holding several roles
// effectively has the union of all their permission sets.
func (e *Engine) UserHasPermission(ctx context.Context, userID uint64, permissionName string) (bool, error) {
	roles, err := e.store.UserRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("failed to load user roles: %w", err)
	}

	for _, role := range roles {
		if role.HasPermission(permissionName) {
			return true, nil
		}
	}

	return false, nil
}

// UserHasAnyRole reports whether the user holds at least one of the given roles.
func (e *Engine) UserHasAnyRole(ctx context.Context, userID uint64, roleNames ...string) (bool, error) {
	for _, roleName := range roleNames {
		has, err := e.UserHasRole(ctx, userID, roleName)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// UserHasAnyPermission reports whether the user holds at least one of the
// given permissions.
func (e *Engine) UserHasAnyPermission(ctx context.Context, userID uint64, permissionNames ...string) (bool, error) {
	for _, permissionName := range permissionNames {
		has, err := e.UserHasPermission(ctx, userID, permissionName)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// CreatePermission creates a new permission. The name must be unique;
// creating an existing name fails with ErrPermissionExists. When the
// description is empty it defaults to "Permission to {name}".
func (e *Engine) CreatePermission(ctx context.Context, in CreateInput) (*models.Permission, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("permission: %w", ErrNameEmpty)
	}

	if _, err := e.store.PermissionByName(ctx, name); err == nil {
		return nil, fmt.Errorf("permission %q: %w", name, ErrPermissionExists)
	} else if !errors.Is(err, ErrPermissionNotFound) {
		return nil, fmt.Errorf("failed to check permission %q: %w", name, err)
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = fmt.Sprintf("Permission to %s", name)
	}

	perm := &models.Permission{
		Name:        name,
		Description: description,
	}

	if err := e.store.CreatePermission(ctx, perm); err != nil {
		if errors.Is(err, ErrPermissionExists) {
			// lost a create race, same outcome as the pre-check
			return nil, fmt.Errorf("permission %q: %w", name, ErrPermissionExists)
		}

		return nil, fmt.Errorf("failed to create permission %q: %w", name, err)
	}

	return perm, nil
}

// CreateRole creates a new role. The name must be unique; creating an
// existing name fails with ErrRoleExists. When the description is empty it
// defaults to "{name} role".
func (e *Engine) CreateRole(ctx context.Context, in CreateInput) (*models.Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("role: %w", ErrNameEmpty)
	}

	if _, err := e.store.RoleByName(ctx, name); err == nil {
		return nil, fmt.Errorf("role %q: %w", name, ErrRoleExists)
	} else if !errors.Is(err, ErrRoleNotFound) {
		return nil, fmt.Errorf("failed to check role %q: %w", name, err)
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = fmt.Sprintf("%s role", name)
	}

	role := &models.Role{
		Name:        name,
		Description: description,
	}

	if err := e.store.CreateRole(ctx, role); err != nil {
		if errors.Is(err, ErrRoleExists) {
			return nil, fmt.Errorf("role %q: %w", name, ErrRoleExists)
		}

		return nil, fmt.Errorf("failed to create role %q: %w", name, err)
	}

	return role, nil
}

// AssignPermissionToRole attaches the named permission to the named role.
// Both are resolved by name; a missing role or permission fails with the
// corresponding not-found error. Attaching twice is a no-op, not an error.
func (e *Engine) AssignPermissionToRole(ctx context.Context, roleName, permissionName string) (*Grant, error) {
	role, perm, err := e.resolvePair(ctx, roleName, permissionName)
	if err != nil {
		return nil, err
	}

	if err := e.store.AttachPermission(ctx, role.ID, perm.ID); err != nil {
		return nil, fmt.Errorf("failed to attach permission %q to role %q: %w", perm.Name, role.Name, err)
	}

	return &Grant{RoleName: role.Name, PermissionName: perm.Name}, nil
}

// RevokePermissionFromRole detaches the named permission from the named role.
// Both are resolved by name; a missing role or permission fails with the
// corresponding not-found error. Detaching a permission that was never
// attached is a no-op, not an error.
func (e *Engine) RevokePermissionFromRole(ctx context.Context, roleName, permissionName string) (*Grant, error) {
	role, perm, err := e.resolvePair(ctx, roleName, permissionName)
	if err != nil {
		return nil, err
	}

	if err := e.store.DetachPermission(ctx, role.ID, perm.ID); err != nil {
		return nil, fmt.Errorf("failed to detach permission %q from role %q: %w", perm.Name, role.Name, err)
	}

	return &Grant{RoleName: role.Name, PermissionName: perm.Name}, nil
}

// resolvePair looks up a role and a permission by their trimmed names.
func (e *Engine) resolvePair(ctx context.Context, roleName, permissionName string) (*models.Role, *models.Permission, error) {
	roleName = strings.TrimSpace(roleName)
	permissionName = strings.TrimSpace(permissionName)

	role, err := e.store.RoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return nil, nil, fmt.Errorf("role %q: %w", roleName, ErrRoleNotFound)
		}

		return nil, nil, fmt.Errorf("failed to load role %q: %w", roleName, err)
	}

	perm, err := e.store.PermissionByName(ctx, permissionName)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			return nil, nil, fmt.Errorf("permission %q: %w", permissionName, ErrPermissionNotFound)
		}

		return nil, nil, fmt.Errorf("failed to load permission %q: %w", permissionName, err)
	}

	return role, perm, nil
}
