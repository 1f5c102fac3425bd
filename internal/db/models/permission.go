package models

import "time"

// Permission represents a specific permission in the authorization system.
// Permissions define granular access rights and are attached to roles,
// which are then assigned to users.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the unique, human-readable permission name (e.g., "edit_users").
	// It is the natural key used by both the structured API and the command interpreter.
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Permission model.
// This overrides GORM's default pluralized table naming.
func (Permission) TableName() string {
	return "permissions"
}
