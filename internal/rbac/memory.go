package rbac

import (
	"context"
	"sync"
	"time"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
)

// MemoryStore is an in-memory Store implementation. It backs the engine in
// tests and anywhere no database is wanted. A single mutex serializes every
// operation, which trivially satisfies the per-role atomicity contract.
type MemoryStore struct {
	mu sync.Mutex

	permissions map[uint]*models.Permission
	roles       map[uint]*models.Role
	users       map[uint64]*models.User

	rolePerms map[uint]map[uint]struct{}
	userRoles map[uint64]map[uint]struct{}

	nextPermissionID uint
	nextRoleID       uint
	nextUserID       uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		permissions: make(map[uint]*models.Permission),
		roles:       make(map[uint]*models.Role),
		users:       make(map[uint64]*models.User),
		rolePerms:   make(map[uint]map[uint]struct{}),
		userRoles:   make(map[uint64]map[uint]struct{}),
	}
}

// PermissionByName implements Store.
func (m *MemoryStore) PermissionByName(_ context.Context, name string) (*models.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, perm := range m.permissions {
		if perm.Name == name {
			p := *perm
			return &p, nil
		}
	}

	return nil, ErrPermissionNotFound
}

// CreatePermission implements Store.
func (m *MemoryStore) CreatePermission(_ context.Context, perm *models.Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.permissions {
		if existing.Name == perm.Name {
			return ErrPermissionExists
		}
	}

	m.nextPermissionID++
	perm.ID = m.nextPermissionID
	perm.CreatedAt = time.Now()
	perm.UpdatedAt = perm.CreatedAt

	stored := *perm
	m.permissions[perm.ID] = &stored

	return nil
}

// RoleByName implements Store.
func (m *MemoryStore) RoleByName(_ context.Context, name string) (*models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, role := range m.roles {
		if role.Name == name {
			return m.loadRoleLocked(id), nil
		}
	}

	return nil, ErrRoleNotFound
}

// CreateRole implements Store.
func (m *MemoryStore) CreateRole(_ context.Context, role *models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.roles {
		if existing.Name == role.Name {
			return ErrRoleExists
		}
	}

	m.nextRoleID++
	role.ID = m.nextRoleID
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt

	stored := *role
	stored.Permissions = nil
	m.roles[role.ID] = &stored
	m.rolePerms[role.ID] = make(map[uint]struct{})

	return nil
}

// UserRoles implements Store.
func (m *MemoryStore) UserRoles(_ context.Context, userID uint64) ([]models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, ErrUserNotFound
	}

	roles := make([]models.Role, 0, len(m.userRoles[userID]))
	for roleID := range m.userRoles[userID] {
		roles = append(roles, *m.loadRoleLocked(roleID))
	}

	return roles, nil
}

// AttachPermission implements Store.
func (m *MemoryStore) AttachPermission(_ context.Context, roleID, permissionID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roles[roleID]; !ok {
		return ErrRoleNotFound
	}

	if _, ok := m.permissions[permissionID]; !ok {
		return ErrPermissionNotFound
	}

	m.rolePerms[roleID][permissionID] = struct{}{}

	return nil
}

// DetachPermission implements Store.
func (m *MemoryStore) DetachPermission(_ context.Context, roleID, permissionID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roles[roleID]; !ok {
		return ErrRoleNotFound
	}

	delete(m.rolePerms[roleID], permissionID)

	return nil
}

// AddUser creates a user and returns it. Test helper.
func (m *MemoryStore) AddUser(email string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextUserID++
	user := &models.User{
		ID:        m.nextUserID,
		Email:     email,
		CreatedAt: time.Now(),
	}
	m.users[user.ID] = user
	m.userRoles[user.ID] = make(map[uint]struct{})

	return user
}

// GrantRole assigns a role to a user. Test helper.
func (m *MemoryStore) GrantRole(userID uint64, roleID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.userRoles[userID]; ok {
		m.userRoles[userID][roleID] = struct{}{}
	}
}

// PermissionCount returns the number of stored permissions. Test helper.
func (m *MemoryStore) PermissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.permissions)
}

// loadRoleLocked materializes a role with its permission set.
// Callers must hold the mutex.
func (m *MemoryStore) loadRoleLocked(roleID uint) *models.Role {
	role := *m.roles[roleID]
	role.Permissions = make([]models.Permission, 0, len(m.rolePerms[roleID]))

	for permID := range m.rolePerms[roleID] {
		role.Permissions = append(role.Permissions, *m.permissions[permID])
	}

	return &role
}
