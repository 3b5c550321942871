package auth

import (
	"errors"

	"github.com/yukikurage/tax-task-tracker/internal/models"
)

type Action string

const (
	ActionCreateTask          Action = "create_task"
	ActionEditTask            Action = "edit_task"
	ActionDeleteTask          Action = "delete_task"
	ActionUpdateTaskStatus    Action = "update_task_status"
	ActionManageUsers         Action = "manage_users"
	ActionDeleteUser          Action = "delete_user"
	ActionDeleteFile          Action = "delete_file"
	ActionGenerateObligations Action = "generate_obligations"
	ActionViewAllLogs         Action = "view_all_logs"
)

// Target carries the ownership facts a rule may need.
type Target struct {
	AssigneeID string
	UploaderID string
	UserID     string
}

var (
	ErrForbidden    = errors.New("forbidden")
	ErrSelfDeletion = errors.New("you cannot delete your own account")
)

// DenialError explains why an action was refused. It matches ErrForbidden.
type DenialError struct {
	Action Action
	Reason string
}

func (e *DenialError) Error() string {
	return e.Reason
}

func (e *DenialError) Is(target error) bool {
	return target == ErrForbidden
}

// Authorize decides whether p may perform action on target. It returns nil,
// a *DenialError, or ErrSelfDeletion.
func Authorize(p *Principal, action Action, target Target) error {
	if p == nil {
		return &DenialError{Action: action, Reason: "authentication required"}
	}

	switch action {
	case ActionCreateTask, ActionEditTask, ActionDeleteTask,
		ActionManageUsers, ActionGenerateObligations, ActionViewAllLogs:
		return requireAdmin(p, action)
	case ActionDeleteUser:
		if err := requireAdmin(p, action); err != nil {
			return err
		}
		if target.UserID == p.ID {
			return ErrSelfDeletion
		}
		return nil
	case ActionUpdateTaskStatus:
		if isAdmin(p.Role) || (target.AssigneeID != "" && target.AssigneeID == p.ID) {
			return nil
		}
		return &DenialError{Action: action, Reason: "only an administrator or the task assignee can change its status"}
	case ActionDeleteFile:
		if isAdmin(p.Role) || (target.UploaderID != "" && target.UploaderID == p.ID) {
			return nil
		}
		return &DenialError{Action: action, Reason: "only the uploader or an administrator can delete this file"}
	default:
		return &DenialError{Action: action, Reason: "unknown action"}
	}
}

func requireAdmin(p *Principal, action Action) error {
	if isAdmin(p.Role) {
		return nil
	}
	return &DenialError{Action: action, Reason: "administrator role required"}
}

func isAdmin(r models.Role) bool {
	switch r {
	case models.RoleAdmin:
		return true
	case models.RoleStandard:
		return false
	default:
		return false
	}
}
