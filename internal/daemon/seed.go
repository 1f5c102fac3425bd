package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
)

// seed creates the default permissions, roles and demo accounts on first
// start. Every entity is looked up by name first, so seeding an already
// populated database changes nothing.
func seed(_ *config.Config, db *gorm.DB) {
	permissions := seedPermissions(db)

	adminRole := seedRole(db, "Admin", "Full system access - can manage everything",
		permissions, rbac.PermManageAllUsers, rbac.PermManageRoles, rbac.PermManagePermissions,
		rbac.PermEditUsers, rbac.PermViewUsers, rbac.PermViewOwnProfile, rbac.PermViewDashboard)

	editorRole := seedRole(db, "Editor", "Can edit users and view dashboard",
		permissions, rbac.PermEditUsers, rbac.PermViewUsers, rbac.PermViewDashboard)

	userRole := seedRole(db, "User", "Can only view own profile",
		permissions, rbac.PermViewOwnProfile, rbac.PermViewDashboard)

	seedUser(db, "admin@admin.com", "admin123", adminRole)
	seedUser(db, "editor@editor.com", "editor123", editorRole)
	seedUser(db, "user@user.com", "user123", userRole)
}

func seedPermissions(db *gorm.DB) map[string]models.Permission {
	defaults := []models.Permission{
		{Name: rbac.PermManageAllUsers, Description: "Full access to all users"},
		{Name: rbac.PermManageRoles, Description: "Create, read, update, delete roles"},
		{Name: rbac.PermManagePermissions, Description: "Create, read, update, delete permissions"},
		{Name: rbac.PermEditUsers, Description: "Edit user information"},
		{Name: rbac.PermViewUsers, Description: "View user list"},
		{Name: rbac.PermViewOwnProfile, Description: "View own profile only"},
		{Name: rbac.PermViewDashboard, Description: "Access dashboard"},
	}

	byName := make(map[string]models.Permission, len(defaults))

	for _, perm := range defaults {
		var existing models.Permission

		if err := db.Where("name = ?", perm.Name).First(&existing).Error; err == nil {
			byName[existing.Name] = existing
			continue
		}

		if err := db.Create(&perm).Error; err != nil {
			log.Error().Err(err).Str("permission", perm.Name).Msg("failed to seed permission")
			continue
		}

		byName[perm.Name] = perm
	}

	return byName
}

func seedRole(db *gorm.DB, name, description string,
	permissions map[string]models.Permission, permissionNames ...string,
) *models.Role {
	var role models.Role

	if err := db.Preload("Permissions").Where("name = ?", name).First(&role).Error; err == nil {
		return &role
	}

	role = models.Role{
		Name:        name,
		Description: description,
	}

	for _, permName := range permissionNames {
		if perm, ok := permissions[permName]; ok {
			role.Permissions = append(role.Permissions, perm)
		}
	}

	if err := db.Create(&role).Error; err != nil {
		log.Error().Err(err).Str("role", name).Msg("failed to seed role")

		return nil
	}

	return &role
}

func seedUser(db *gorm.DB, email, password string, role *models.Role) {
	if role == nil {
		return
	}

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return
	}

	user := models.User{
		Email:    email,
		Password: models.HashPassword(password),
		Roles:    []models.Role{*role},
	}

	if err := db.Create(&user).Error; err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to seed user")

		return
	}

	log.Info().Str("email", email).Msg("default user created")
}
