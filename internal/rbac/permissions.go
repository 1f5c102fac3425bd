package rbac

// Permission constants define the seeded permissions in the system.
// Administrators can create further permissions at runtime, through the
// structured API or the command interpreter; these are the ones the
// built-in route guards rely on.
const (
	// PermManageAllUsers allows full access to all user accounts.
	PermManageAllUsers = "manage_all_users"
	// PermManageRoles allows creating, reading, updating and deleting roles.
	PermManageRoles = "manage_roles"
	// PermManagePermissions allows creating, reading, updating and deleting permissions.
	PermManagePermissions = "manage_permissions"
	// PermEditUsers allows editing user information.
	PermEditUsers = "edit_users"
	// PermViewUsers allows viewing the user list.
	PermViewUsers = "view_users"
	// PermViewOwnProfile allows viewing one's own profile only.
	PermViewOwnProfile = "view_own_profile"
	// PermViewDashboard allows accessing the dashboard.
	PermViewDashboard = "view_dashboard"
)
