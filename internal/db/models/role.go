package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// Roles are collections of permissions that can be assigned to users.
// Examples include the seeded "Admin", "Editor" and "User" roles.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the unique name of the role (e.g., "Admin", "Editor").
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// Permissions is the set of permissions attached to this role.
	// Membership is what matters; the order carries no meaning.
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}

// HasPermission reports whether a permission with the given name is
// attached to this role. Permissions must be loaded.
func (r *Role) HasPermission(name string) bool {
	for _, p := range r.Permissions {
		if p.Name == name {
			return true
		}
	}

	return false
}
