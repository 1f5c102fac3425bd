// Package permission implements the permission management endpoints.
package permission

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
	// Path is the route group prefix for permission endpoints.
	Path = "/api/permissions"
)

// Service is the permission handler service.
type Service struct {
	db     *gorm.DB
	engine *rbac.Engine
}

// Handler is the permission handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the permission handler. All routes require a valid
// bearer token; mutations additionally require the manage_permissions
// permission.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, engine *rbac.Engine) error {
	if app == nil || cfg == nil || db == nil || engine == nil {
		return errors.New("app, cfg, db or engine is nil")
	}

	s.db = db
	s.engine = engine

	protected := auth.Protected(cfg.Auth.JWTSecret)
	manage := auth.RequirePermission(engine, rbac.PermManagePermissions)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, protected,
			auth.RequireAnyPermission(engine, rbac.PermManagePermissions, rbac.PermManageRoles), s.List)
		router.Post(handler.RouterRootPath, protected, manage, s.Create)
		router.Get("/:id", protected, manage, s.Get)
		router.Put("/:id", protected, manage, s.Update)
		router.Delete("/:id", protected, manage, s.Delete)
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

// List returns all permissions, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	var perms []models.Permission

	if err := s.db.Order("created_at DESC").Find(&perms).Error; err != nil {
		log.Error().Err(err).Msg("Failed to list permissions")

		return handler.Error(c, err)
	}

	return c.JSON(perms)
}

// Create creates a new permission through the policy resolution engine.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(createRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if err := handler.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name required",
		})
	}

	perm, err := s.engine.CreatePermission(c.UserContext(), rbac.CreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(perm)
}

// Get returns a single permission by id.
func (s *Service) Get(c *fiber.Ctx) error {
	var perm models.Permission

	if err := s.db.First(&perm, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	return c.JSON(perm)
}

// Update changes a permission's name and/or description.
func (s *Service) Update(c *fiber.Ctx) error {
	req := new(updateRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var perm models.Permission
	if err := s.db.First(&perm, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	if req.Name != "" {
		perm.Name = req.Name
	}

	if req.Description != "" {
		perm.Description = req.Description
	}

	if err := s.db.Save(&perm).Error; err != nil {
		log.Error().Err(err).Uint("permission_id", perm.ID).Msg("Failed to update permission")

		return handler.Error(c, err)
	}

	return c.JSON(perm)
}

// Delete removes a permission. The junction table cascades, so roles lose
// the detached permission without further bookkeeping.
func (s *Service) Delete(c *fiber.Ctx) error {
	result := s.db.Delete(&models.Permission{}, c.Params("id"))
	if result.Error != nil {
		log.Error().Err(result.Error).Str("permission_id", c.Params("id")).Msg("Failed to delete permission")

		return handler.Error(c, result.Error)
	}

	if result.RowsAffected == 0 {
		return notFound(c)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "not found",
	})
}
