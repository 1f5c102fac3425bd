// Package auth implements signup, login and the current-user profile endpoint.
package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/middleware/auth"
)

const (
	// Path is the route group prefix for authentication endpoints.
	Path = "/api/auth"
)

// Service is the auth handler service.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the auth handler.
var Handler = Service{} //nolint:gochecknoglobals

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Init initializes the auth handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New("app, cfg or db is nil")
	}

	s.cfg = cfg
	s.db = db

	app.Route(Path, func(router fiber.Router) {
		router.Post("/signup", s.Signup)
		router.Post("/login", s.Login)
		router.Get("/me", auth.Protected(cfg.Auth.JWTSecret), s.Me)
	})

	return nil
}

// Signup registers a new user account with the requested role.
func (s *Service) Signup(c *fiber.Ctx) error {
	req := new(signupRequest)

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

		return serverError(c)
	}

	token, err := SignToken(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL, &user)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("Failed to sign token")

		return serverError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  handler.NewUserResponse(&user),
	})
}

// Login authenticates a user and issues a bearer token.
func (s *Service) Login(c *fiber.Ctx) error {
	req := new(loginRequest)

	if err := c.BodyParser(req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}

	if err := handler.Validate.Struct(req); err != nil {
		return badRequest(c, "email & password required")
	}

	var user models.User

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.db.Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		return invalidCredentials(c)
	}

	if !user.VerifyPassword(req.Password) {
		return invalidCredentials(c)
	}

	token, err := SignToken(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenTTL, &user)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Msg("Failed to sign token")

		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  handler.NewUserResponse(&user),
	})
}

// Me returns the authenticated user's profile with all assigned roles.
func (s *Service) Me(c *fiber.Ctx) error {
	userID, ok := auth.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var user models.User
	if err := s.db.Preload("Roles.Permissions").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"roles": user.Roles,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}

func invalidCredentials(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Invalid email or password",
	})
}

func serverError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Server error",
	})
}
