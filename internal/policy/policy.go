// Package policy decides whether a principal may perform an operation on a
// task or a user account. Every function is pure: decisions are computed from
// the inputs alone, apart from the read-only reference count consulted before
// deleting a user.
package policy

import (
	"context"

	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
)

// Capability names an operation class guarded by the policy.
type Capability int

const (
	CapRead Capability = iota
	CapModify
	CapDelete
	CapArchive
	CapAdmin
)

func (c Capability) String() string {
	switch c {
	case CapRead:
		return "read"
	case CapModify:
		return "modify"
	case CapDelete:
		return "delete"
	case CapArchive:
		return "archive"
	case CapAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a policy check. A denied decision always carries
// a reason code.
type Decision struct {
	Allowed bool
	Reason  apierrors.Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason apierrors.Reason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into a typed error; it returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case apierrors.ReasonUnauthenticated:
		return apierrors.Unauthenticated(d.Reason, "Authentication required")
	case apierrors.ReasonCannotDeleteSelf:
		return apierrors.ConflictError(d.Reason, "You cannot delete your own account")
	case apierrors.ReasonCannotDeactivateSelf:
		return apierrors.ConflictError(d.Reason, "You cannot deactivate your own account")
	case apierrors.ReasonUserHasTasks:
		return apierrors.Integrity(d.Reason, "Cannot delete user with existing tasks. Please reassign or delete tasks first.")
	case apierrors.ReasonNotAdmin:
		return apierrors.Authorization(d.Reason, "Access denied. Admin privileges required.")
	case apierrors.ReasonNotOwner:
		return apierrors.Authorization(d.Reason, "Access denied. Only the task creator or an admin can perform this action.")
	default:
		return apierrors.Authorization(d.Reason, "Access denied")
	}
}

// TaskReferenceCounter counts tasks that reference a user as creator or assignee.
type TaskReferenceCounter interface {
	CountTasksReferencing(ctx context.Context, userID string) (int64, error)
}

func isCreator(p *models.User, t *models.Task) bool {
	return t.CreatedByID == p.ID
}

// CanReadTask allows admins, the creator and the assignee.
func CanReadTask(p *models.User, t *models.Task) Decision {
	if p == nil {
		return deny(apierrors.ReasonUnauthenticated)
	}
	if p.IsAdmin() || isCreator(p, t) || t.IsAssignedTo(p.ID) {
		return allow()
	}
	return deny(apierrors.ReasonNotOwnerOrAssignee)
}

// CanModifyTask follows the read rule: updating fields, commenting and
// toggling subtasks are open to admins, the creator and the assignee.
func CanModifyTask(p *models.User, t *models.Task) Decision {
	return CanReadTask(p, t)
}

// CanDeleteTask is narrower than modify: the assignee alone may not delete.
func CanDeleteTask(p *models.User, t *models.Task) Decision {
	return ownerOrAdmin(p, t)
}

// CanArchiveTask allows admins and the creator.
func CanArchiveTask(p *models.User, t *models.Task) Decision {
	return ownerOrAdmin(p, t)
}

func ownerOrAdmin(p *models.User, t *models.Task) Decision {
	if p == nil {
		return deny(apierrors.ReasonUnauthenticated)
	}
	if p.IsAdmin() || isCreator(p, t) {
		return allow()
	}
	return deny(apierrors.ReasonNotOwner)
}

// CanDeactivateOrDeleteSelf is false whenever the principal targets their own
// account, whatever their role.
func CanDeactivateOrDeleteSelf(principalID, targetID string) bool {
	return principalID != targetID
}

// CanReassignRole allows admins only.
func CanReassignRole(p *models.User) Decision {
	return requireAdmin(p)
}

// CanDeactivateUser allows an admin to change another user's active flag.
func CanDeactivateUser(p *models.User, target *models.User) Decision {
	if d := requireAdmin(p); !d.Allowed {
		return d
	}
	if !CanDeactivateOrDeleteSelf(p.ID, target.ID) {
		return deny(apierrors.ReasonCannotDeactivateSelf)
	}
	return allow()
}

// CanDeleteUser allows an admin to delete another user who is referenced by no
// task. A counter failure is returned as is.
func CanDeleteUser(ctx context.Context, p *models.User, target *models.User, counter TaskReferenceCounter) (Decision, error) {
	if d := requireAdmin(p); !d.Allowed {
		return d, nil
	}
	if !CanDeactivateOrDeleteSelf(p.ID, target.ID) {
		return deny(apierrors.ReasonCannotDeleteSelf), nil
	}
	count, err := counter.CountTasksReferencing(ctx, target.ID)
	if err != nil {
		return Decision{}, err
	}
	if count > 0 {
		return deny(apierrors.ReasonUserHasTasks), nil
	}
	return allow(), nil
}

func requireAdmin(p *models.User) Decision {
	if p == nil {
		return deny(apierrors.ReasonUnauthenticated)
	}
	if !p.IsAdmin() {
		return deny(apierrors.ReasonNotAdmin)
	}
	return allow()
}

// Authorize evaluates cap for p against t and returns a typed error on denial.
// t may be nil for CapAdmin.
func Authorize(p *models.User, cap Capability, t *models.Task) error {
	var d Decision
	switch cap {
	case CapRead:
		d = CanReadTask(p, t)
	case CapModify:
		d = CanModifyTask(p, t)
	case CapDelete:
		d = CanDeleteTask(p, t)
	case CapArchive:
		d = CanArchiveTask(p, t)
	case CapAdmin:
		d = requireAdmin(p)
	default:
		d = deny(apierrors.ReasonAccessDenied)
	}
	return d.Err()
}
