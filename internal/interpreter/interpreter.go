// Package interpreter turns free-text administration commands into validated
// policy mutations. A command first goes through an optional generative
// language-model parse; when that is unavailable or fails, a deterministic
// ordered rule table takes over. Valid intents are dispatched to the policy
// resolution engine; the two stages share one validation and dispatch path.
package interpreter

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
)

// Interpreter runs the two-stage command pipeline.
type Interpreter struct {
	engine *rbac.Engine
	parser Parser // nil when no generative backend is configured
}

// New creates an interpreter. The parser may be nil, in which case every
// command goes straight to the fallback rule table.
func New(engine *rbac.Engine, parser Parser) *Interpreter {
	return &Interpreter{engine: engine, parser: parser}
}

// Result reports a successfully executed command: which action was
// understood, the original command text, and the mutation outcome.
type Result struct {
	Success bool   `json:"success"`
	Action  Action `json:"action"`
	Command string `json:"command"`
	Result  any    `json:"result"`
}

// PermissionResult is the mutation payload for a created permission.
type PermissionResult struct {
	OK         bool               `json:"ok"`
	Permission *models.Permission `json:"permission"`
}

// RoleResult is the mutation payload for a created role.
type RoleResult struct {
	OK   bool         `json:"ok"`
	Role *models.Role `json:"role"`
}

// AssignResult is the mutation payload for an attached permission.
type AssignResult struct {
	OK       bool        `json:"ok"`
	Assigned *rbac.Grant `json:"assigned"`
}

// RevokeResult is the mutation payload for a detached permission.
type RevokeResult struct {
	OK      bool        `json:"ok"`
	Revoked *rbac.Grant `json:"revoked"`
}

// Run interprets and executes one command. Stage-1 failures are logged and
// swallowed; unrecognized commands, invalid intents and engine errors
// propagate to the caller, each distinguishable via errors.Is / errors.As.
func (i *Interpreter) Run(ctx context.Context, command string) (*Result, error) {
	intent, ok := i.generativeParse(ctx, command)
	if !ok {
		parsed, err := parseFallback(command)
		if err != nil {
			return nil, err
		}

		intent = parsed
	}

	if err := intent.Validate(); err != nil {
		return nil, err
	}

	outcome, err := i.dispatch(ctx, intent)
	if err != nil {
		return nil, err
	}

	return &Result{
		Success: true,
		Action:  intent.Action,
		Command: command,
		Result:  outcome,
	}, nil
}

// generativeParse runs stage 1 when a parser is configured. Any transport or
// parse failure, and any response without an action field, is treated as
// "stage 1 unavailable": logged, never surfaced.
func (i *Interpreter) generativeParse(ctx context.Context, command string) (Intent, bool) {
	if i.parser == nil {
		return Intent{}, false
	}

	intent, err := i.parser.ParseCommand(ctx, command)
	if err != nil {
		log.Debug().Err(err).Str("command", command).
			Msg("generative parse failed, falling back to pattern rules")

		return Intent{}, false
	}

	if strings.TrimSpace(string(intent.Action)) == "" {
		log.Debug().Str("command", command).
			Msg("generative parse returned no action, falling back to pattern rules")

		return Intent{}, false
	}

	return intent, true
}

// dispatch forwards a validated intent to the matching engine primitive and
// wraps the outcome in the action's mutation payload.
func (i *Interpreter) dispatch(ctx context.Context, intent Intent) (any, error) {
	switch intent.Action {
	case ActionCreatePermission:
		perm, err := i.engine.CreatePermission(ctx, rbac.CreateInput{
			Name:        intent.Name,
			Description: intent.Description,
		})
		if err != nil {
			return nil, err
		}

		return &PermissionResult{OK: true, Permission: perm}, nil

	case ActionCreateRole:
		role, err := i.engine.CreateRole(ctx, rbac.CreateInput{
			Name:        intent.Name,
			Description: intent.Description,
		})
		if err != nil {
			return nil, err
		}

		return &RoleResult{OK: true, Role: role}, nil

	case ActionAssignPermission:
		grant, err := i.engine.AssignPermissionToRole(ctx, intent.RoleName, intent.PermissionName)
		if err != nil {
			return nil, err
		}

		return &AssignResult{OK: true, Assigned: grant}, nil

	case ActionRevokePermission:
		grant, err := i.engine.RevokePermissionFromRole(ctx, intent.RoleName, intent.PermissionName)
		if err != nil {
			return nil, err
		}

		return &RevokeResult{OK: true, Revoked: grant}, nil
	}

	// unreachable after Validate, kept for exhaustiveness
	return nil, ErrUnknownAction
}
