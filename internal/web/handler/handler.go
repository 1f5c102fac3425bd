// Package handler holds the pieces shared by all web handlers: route
// constants, request validation and the mapping from error kinds to HTTP
// status codes.
package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/interpreter"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
)

// RouterRootPath is the root path within a handler's route group.
const RouterRootPath = "/"

// Validate is the shared request body validator.
var Validate = validator.New() //nolint:gochecknoglobals

// Status maps an error to the HTTP status code of its kind. Unknown errors
// map to 500.
func Status(err error) int {
	var validationErr *interpreter.ValidationError

	switch {
	case errors.Is(err, rbac.ErrPermissionExists), errors.Is(err, rbac.ErrRoleExists):
		return fiber.StatusConflict
	case errors.Is(err, rbac.ErrPermissionNotFound),
		errors.Is(err, rbac.ErrRoleNotFound),
		errors.Is(err, rbac.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, rbac.ErrNameEmpty),
		errors.Is(err, interpreter.ErrUnknownAction),
		errors.Is(err, interpreter.ErrUnrecognizedCommand),
		errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// Error writes the error as a JSON body with the status of its kind.
// Internal errors are not echoed to the client.
func Error(c *fiber.Ctx, err error) error {
	status := Status(err)

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "Server error"
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// RoleResponse is the wire shape of a role reference inside a user payload.
type RoleResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// UserResponse is the wire shape of a user, without credentials.
type UserResponse struct {
	ID    uint64         `json:"id"`
	Email string         `json:"email"`
	Roles []RoleResponse `json:"roles"`
}

// NewUserResponse converts a user model to its wire shape.
func NewUserResponse(user *models.User) UserResponse {
	roles := make([]RoleResponse, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, RoleResponse{ID: role.ID, Name: role.Name})
	}

	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Roles: roles,
	}
}
