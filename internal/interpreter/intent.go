package interpreter

import (
	"fmt"
	"strings"
)

// Action identifies one of the policy mutations the interpreter can produce.
// The set is closed; anything else fails validation.
type Action string

const (
	// ActionCreatePermission creates a new permission.
	ActionCreatePermission Action = "create_permission"
	// ActionCreateRole creates a new role.
	ActionCreateRole Action = "create_role"
	// ActionAssignPermission attaches a permission to a role.
	ActionAssignPermission Action = "assign_permission_to_role"
	// ActionRevokePermission detaches a permission from a role.
	ActionRevokePermission Action = "revoke_permission_from_role"
)

// Known reports whether the action is one of the four permitted values.
func (a Action) Known() bool {
	switch a {
	case ActionCreatePermission, ActionCreateRole, ActionAssignPermission, ActionRevokePermission:
		return true
	default:
		return false
	}
}

// Intent is the structured representation of "what policy mutation the
// caller wants". Both interpretation stages produce this shape; which
// fields are required depends on the action and is checked by Validate.
type Intent struct {
	Action         Action `json:"action"`
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	RoleName       string `json:"roleName,omitempty"`
	PermissionName string `json:"permissionName,omitempty"`
}

// Validate checks that the action is known and that every required field for
// that action is present and non-blank after trimming. It applies equally to
// generative-parse and fallback-parse output.
func (in Intent) Validate() error {
	if !in.Action.Known() {
		return fmt.Errorf("action %q: %w", string(in.Action), ErrUnknownAction)
	}

	var missing []string

	switch in.Action {
	case ActionCreatePermission, ActionCreateRole:
		if strings.TrimSpace(in.Name) == "" {
			missing = append(missing, "name")
		}
	case ActionAssignPermission, ActionRevokePermission:
		if strings.TrimSpace(in.RoleName) == "" {
			missing = append(missing, "roleName")
		}

		if strings.TrimSpace(in.PermissionName) == "" {
			missing = append(missing, "permissionName")
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Action: in.Action, Missing: missing}
	}

	return nil
}
