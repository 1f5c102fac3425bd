package rbac

import "errors"

var (
	// ErrPermissionExists is returned when creating a permission whose name is already taken.
	ErrPermissionExists = errors.New("permission already exists")

	// ErrRoleExists is returned when creating a role whose name is already taken.
	ErrRoleExists = errors.New("role already exists")

	// ErrPermissionNotFound is returned when a referenced permission does not exist.
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrRoleNotFound is returned when a referenced role does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrNameEmpty is returned when a create primitive is called without a name.
	ErrNameEmpty = errors.New("name cannot be empty")
)
