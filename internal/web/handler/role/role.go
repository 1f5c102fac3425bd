// Package role implements the role management endpoints, including the
// grant endpoints that attach and detach permissions.
package role

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/middleware/auth"
)

const (
	// Path is the route group prefix for role endpoints.
	Path = "/api/roles"
)

// Service is the role handler service.
type Service struct {
	db     *gorm.DB
	engine *rbac.Engine
}

// Handler is the role handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the role handler. The role list is visible to anyone
// with user-management visibility; everything else requires manage_roles.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, engine *rbac.Engine) error {
	if app == nil || cfg == nil || db == nil || engine == nil {
		return errors.New("app, cfg, db or engine is nil")
	}

	s.db = db
	s.engine = engine

	protected := auth.Protected(cfg.Auth.JWTSecret)
	manage := auth.RequirePermission(engine, rbac.PermManageRoles)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, protected,
			auth.RequireAnyPermission(engine,
				rbac.PermManageRoles, rbac.PermManageAllUsers, rbac.PermEditUsers, rbac.PermViewUsers),
			s.List)
		router.Post(handler.RouterRootPath, protected, manage, s.Create)
		router.Get("/:id", protected, manage, s.Get)
		router.Put("/:id", protected, manage, s.Update)
		router.Delete("/:id", protected, manage, s.Delete)
		router.Get("/:id/permissions", protected, manage, s.Permissions)
		router.Post("/permissions", protected, manage, s.AttachPermission)
		router.Delete("/permissions", protected, manage, s.DetachPermission)
	})

	return nil
}

type createRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type updateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type grantRequest struct {
	RoleName       string `json:"roleName" validate:"required"`
	PermissionName string `json:"permissionName" validate:"required"`
}

// List returns all roles with their permissions preloaded.
func (s *Service) List(c *fiber.Ctx) error {
	var roles []models.Role

	if err := s.db.Preload("Permissions").Order("created_at DESC").Find(&roles).Error; err != nil {
		log.Error().Err(err).Msg("Failed to list roles")

		return handler.Error(c, err)
	}

	return c.JSON(roles)
}

// Create creates a new role through the policy resolution engine.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(createRequest)

	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	if err := handler.Validate.Struct(req); err != nil {
		return badRequest(c, "name required")
	}

	role, err := s.engine.CreateRole(c.UserContext(), rbac.CreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

// Get returns a single role with its permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	var role models.Role

	if err := s.db.Preload("Permissions").First(&role, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	return c.JSON(role)
}

// Update changes a role's name and/or description.
func (s *Service) Update(c *fiber.Ctx) error {
	req := new(updateRequest)

	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	var role models.Role
	if err := s.db.First(&role, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	if req.Name != "" {
		role.Name = req.Name
	}

	if req.Description != "" {
		role.Description = req.Description
	}

	if err := s.db.Save(&role).Error; err != nil {
		log.Error().Err(err).Uint("role_id", role.ID).Msg("Failed to update role")

		return handler.Error(c, err)
	}

	return c.JSON(role)
}

// Delete removes a role. Junction rows cascade, so members simply lose
// the role.
func (s *Service) Delete(c *fiber.Ctx) error {
	result := s.db.Delete(&models.Role{}, c.Params("id"))
	if result.Error != nil {
		log.Error().Err(result.Error).Str("role_id", c.Params("id")).Msg("Failed to delete role")

		return handler.Error(c, result.Error)
	}

	if result.RowsAffected == 0 {
		return notFound(c)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Permissions returns the permissions attached to a role.
func (s *Service) Permissions(c *fiber.Ctx) error {
	var role models.Role

	if err := s.db.Preload("Permissions").First(&role, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	return c.JSON(role.Permissions)
}

// AttachPermission grants a permission to a role, by name. Attaching an
// already granted permission succeeds without change.
func (s *Service) AttachPermission(c *fiber.Ctx) error {
	req := new(grantRequest)

	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	if err := handler.Validate.Struct(req); err != nil {
		return badRequest(c, "roleName & permissionName required")
	}

	grant, err := s.engine.AssignPermissionToRole(c.UserContext(), req.RoleName, req.PermissionName)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"ok":       true,
		"assigned": grant,
	})
}

// DetachPermission revokes a permission from a role, by name. Revoking a
// permission the role does not hold succeeds without change.
func (s *Service) DetachPermission(c *fiber.Ctx) error {
	req := new(grantRequest)

	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	if err := handler.Validate.Struct(req); err != nil {
		return badRequest(c, "roleName & permissionName required")
	}

	grant, err := s.engine.RevokePermissionFromRole(c.UserContext(), req.RoleName, req.PermissionName)
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"revoked": grant,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "not found",
	})
}
