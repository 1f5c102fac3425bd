// Package nl exposes the natural-language command endpoint. Free-text
// administration commands are interpreted and executed through the command
// interpreter; only Admins may use it.
package nl

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/interpreter"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/handler"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web/middleware/auth"
)

const (
	// Path is the route group prefix for the command endpoint.
	Path = "/api/nl"
)

// Service is the natural-language command handler service.
type Service struct {
	interp *interpreter.Interpreter
}

// Handler is the natural-language command handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the natural-language command handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *rbac.Engine, interp *interpreter.Interpreter) error {
	if app == nil || cfg == nil || engine == nil || interp == nil {
		return errors.New("app, cfg, engine or interp is nil")
	}

	s.interp = interp

	app.Route(Path, func(router fiber.Router) {
		router.Post("/command",
			auth.Protected(cfg.Auth.JWTSecret),
			auth.RequireRole(engine, auth.RoleAdmin),
			s.Command)
	})

	return nil
}

type commandRequest struct {
	Command string `json:"command" validate:"required"`
}

// Command interprets and executes one free-text command.
func (s *Service) Command(c *fiber.Ctx) error {
	req := new(commandRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if err := handler.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "command required",
		})
	}

	result, err := s.interp.Run(c.UserContext(), req.Command)
	if err != nil {
		if errors.Is(err, interpreter.ErrUnrecognizedCommand) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":      "Could not understand the command",
				"suggestion": "Try commands like:",
				"examples":   interpreter.CommandExamples,
			})
		}

		log.Warn().Err(err).Str("command", req.Command).Msg("Command failed")

		return handler.Error(c, err)
	}

	return c.JSON(result)
}
