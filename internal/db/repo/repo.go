// Package repo provides the GORM-backed implementation of the rbac.Store
// capability used by the policy resolution engine.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
)

const nameQueryPattern = "name = ?"

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Repo implements rbac.Store on top of a GORM database connection.
// The connection must be opened with TranslateError enabled so duplicate
// key violations surface as gorm.ErrDuplicatedKey; that is what turns a
// lost create race into an already-exists error instead of a second success.
type Repo struct {
	db *gorm.DB
}

// New creates a new repository.
func New(db *gorm.DB) (*Repo, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Repo{db: db}, nil
}

// PermissionByName retrieves a permission by its unique name.
func (r *Repo) PermissionByName(ctx context.Context, name string) (*models.Permission, error) {
	var perm models.Permission

	result := r.db.WithContext(ctx).Where(nameQueryPattern, name).First(&perm)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, rbac.ErrPermissionNotFound
		}

		return nil, result.Error
	}

	return &perm, nil
}

// CreatePermission inserts a new permission. The unique index on the name
// column decides create races: exactly one insert succeeds.
func (r *Repo) CreatePermission(ctx context.Context, perm *models.Permission) error {
	result := r.db.WithContext(ctx).Create(perm)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return rbac.ErrPermissionExists
		}

		return result.Error
	}

	return nil
}

// RoleByName retrieves a role by its unique name, with its permission set loaded.
func (r *Repo) RoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role

	result := r.db.WithContext(ctx).Preload("Permissions").Where(nameQueryPattern, name).First(&role)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, rbac.ErrRoleNotFound
		}

		return nil, result.Error
	}

	return &role, nil
}

// CreateRole inserts a new role. Create races are decided by the unique
// index on the name column, same as permissions.
func (r *Repo) CreateRole(ctx context.Context, role *models.Role) error {
	result := r.db.WithContext(ctx).Create(role)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return rbac.ErrRoleExists
		}

		return result.Error
	}

	return nil
}

// UserRoles retrieves the roles of a user with each role's permissions loaded.
func (r *Repo) UserRoles(ctx context.Context, userID uint64) ([]models.Role, error) {
	var user models.User

	result := r.db.WithContext(ctx).Preload("Roles.Permissions").First(&user, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, rbac.ErrUserNotFound
		}

		return nil, result.Error
	}

	return user.Roles, nil
}

// AttachPermission adds a permission to a role's set. The composite primary
// key on the junction table plus ON CONFLICT DO NOTHING makes the attach
// idempotent in a single atomic statement.
func (r *Repo) AttachPermission(ctx context.Context, roleID, permissionID uint) error {
	mapping := models.RolePermission{
		RoleID:       roleID,
		PermissionID: permissionID,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&mapping)

	return result.Error
}

// DetachPermission removes a permission from a role's set. Removing an
// absent mapping deletes zero rows, which is the required no-op.
func (r *Repo) DetachPermission(ctx context.Context, roleID, permissionID uint) error {
	result := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&models.RolePermission{})

	return result.Error
}
