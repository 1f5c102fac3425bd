// Package user implements the user management endpoints. Visibility is
// graded: Admins and Editors see every account, everyone else only their
// own.
package user

import (
	"errors"
	"strings"

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
	// Path is the route group prefix for user endpoints.
	Path = "/api/users"
)

// Service is the user handler service.
type Service struct {
	db     *gorm.DB
	engine *rbac.Engine
}

// Handler is the user handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the user handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, engine *rbac.Engine) error {
	if app == nil || cfg == nil || db == nil || engine == nil {
		return errors.New("app, cfg, db or engine is nil")
	}

	s.db = db
	s.engine = engine

	protected := auth.Protected(cfg.Auth.JWTSecret)
	canAccess := auth.CanAccessUser(engine)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, protected, s.List)
		router.Post(handler.RouterRootPath, protected,
			auth.RequireRole(engine, auth.RoleAdmin), s.Create)
		router.Get("/:id", protected, canAccess, s.Get)
		router.Put("/:id", protected, canAccess, s.Update)
		router.Delete("/:id", protected,
			auth.RequireRole(engine, auth.RoleAdmin), s.Delete)
		router.Get("/:id/roles", protected, canAccess, s.Roles)
		router.Post("/:id/roles", protected,
			auth.RequireRole(engine, auth.RoleAdmin), s.AssignRole)
	})

	return nil
}

type createRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

type updateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// List returns every user for Admins and Editors. Other subjects get a
// list containing only themselves.
func (s *Service) List(c *fiber.Ctx) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	seesAll, err := s.engine.UserHasAnyRole(c.UserContext(), userID, auth.RoleAdmin, auth.RoleEditor)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("Failed to check roles")

		return handler.Error(c, err)
	}

	var users []models.User

	query := s.db.Preload("Roles")
	if !seesAll {
		query = query.Where("id = ?", userID)
	}

	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("Failed to list users")

		return handler.Error(c, err)
	}

	response := make([]handler.UserResponse, 0, len(users))
	for i := range users {
		response = append(response, handler.NewUserResponse(&users[i]))
	}

	return c.JSON(response)
}

// Create registers a new user account. Admin only.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(createRequest)

	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	if err := handler.Validate.Struct(req); err != nil {
		return badRequest(c, "email, password & role required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "email already registered",
		})
	}

	var role models.Role
	if err := s.db.Where("name = ?", req.Role).First(&role).Error; err != nil {
		return badRequest(c, "Invalid role")
	}

	user := models.User{
		Email:    email,
		Password: models.HashPassword(req.Password),
		Roles:    []models.Role{role},
	}

	if err := s.db.Create(&user).Error; err != nil {
		log.Error().Err(err).Str("email", email).Msg("Failed to create user")

		return handler.Error(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(handler.NewUserResponse(&user))
}

// Get returns a single user with roles.
func (s *Service) Get(c *fiber.Ctx) error {
	var user models.User

	if err := s.db.Preload("Roles").First(&user, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	return c.JSON(handler.NewUserResponse(&user))
}

// Update changes a user's email, password or role. Only Admins and
// Editors may change the role; a subject editing itself may change its
// own email and password.
func (s *Service) Update(c *fiber.Ctx) error {
	req := new(updateRequest)

	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	var user models.User
	if err := s.db.Preload("Roles").First(&user, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	if req.Email != "" {
		user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}

	if req.Password != "" {
		user.Password = models.HashPassword(req.Password)
	}

	if req.Role != "" {
		userID, ok := auth.CurrentUserID(c)
		if !ok {
			return unauthorized(c)
		}

		mayChangeRole, err := s.engine.UserHasAnyRole(c.UserContext(), userID, auth.RoleAdmin, auth.RoleEditor)
		if err != nil {
			return handler.Error(c, err)
		}

		if !mayChangeRole {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only admins and editors can change roles",
			})
		}

		var role models.Role
		if err := s.db.Where("name = ?", req.Role).First(&role).Error; err != nil {
			return badRequest(c, "Invalid role")
		}

		if err := s.db.Model(&user).Association("Roles").Replace(&role); err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Msg("Failed to replace roles")

			return handler.Error(c, err)
		}

		user.Roles = []models.Role{role}
	}

	if err := s.db.Save(&user).Error; err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("Failed to update user")

		return handler.Error(c, err)
	}

	return c.JSON(handler.NewUserResponse(&user))
}

// Delete removes a user account. Admin only.
func (s *Service) Delete(c *fiber.Ctx) error {
	result := s.db.Delete(&models.User{}, c.Params("id"))
	if result.Error != nil {
		log.Error().Err(result.Error).Str("user_id", c.Params("id")).Msg("Failed to delete user")

		return handler.Error(c, result.Error)
	}

	if result.RowsAffected == 0 {
		return notFound(c)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Roles returns the roles held by a user.
func (s *Service) Roles(c *fiber.Ctx) error {
	var user models.User

	if err := s.db.Preload("Roles").First(&user, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	return c.JSON(user.Roles)
}

// AssignRole grants an additional role to a user. Admin only. Granting a
// role the user already holds succeeds without change.
func (s *Service) AssignRole(c *fiber.Ctx) error {
	req := new(assignRoleRequest)

	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	if err := handler.Validate.Struct(req); err != nil {
		return badRequest(c, "role required")
	}

	var user models.User
	if err := s.db.Preload("Roles").First(&user, c.Params("id")).Error; err != nil {
		return notFound(c)
	}

	var role models.Role
	if err := s.db.Where("name = ?", req.Role).First(&role).Error; err != nil {
		return badRequest(c, "Invalid role")
	}

	if err := s.db.Model(&user).Association("Roles").Append(&role); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Str("role", role.Name).
			Msg("Failed to assign role")

		return handler.Error(c, err)
	}

	return c.JSON(fiber.Map{
		"ok":       true,
		"assigned": fiber.Map{"user": user.Email, "role": role.Name},
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

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized",
	})
}
