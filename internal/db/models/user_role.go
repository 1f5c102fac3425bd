package models

// UserRole represents the many-to-many relationship between users and roles.
type UserRole struct {
	// UserID is the ID of the user in this mapping.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// RoleID is the ID of the role in this mapping.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// User is the associated user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the UserRole model.
// This overrides GORM's default pluralized table naming.
func (UserRole) TableName() string {
	return "user_roles"
}
