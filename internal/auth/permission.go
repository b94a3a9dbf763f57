package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Action is one of the closed set of gated operations. Each variant carries the
// resource identifiers needed to adjudicate it. The String rendering is used
// only for the "you may not <action>" message, never for access decisions.
type Action interface {
	fmt.Stringer
	isAction()
}

// ViewAPIDocs is reading the internal API documentation.
type ViewAPIDocs struct{}

// ListEnterprises is viewing the list of every enterprise on the platform.
type ListEnterprises struct{}

// CreateEnterprise is creating a new enterprise.
type CreateEnterprise struct{}

// ViewEnterprise is viewing a single enterprise by ID.
type ViewEnterprise struct{ EnterpriseID uuid.UUID }

// UpdateEnterprise is editing an enterprise by ID.
type UpdateEnterprise struct{ EnterpriseID uuid.UUID }

// DeleteEnterprise is deleting an enterprise by ID.
type DeleteEnterprise struct{ EnterpriseID uuid.UUID }

// CreateInvitation is inviting a new or existing user to an enterprise.
type CreateInvitation struct{ EnterpriseID uuid.UUID }

// ListOutgoingInvitations is viewing all pending invitations sent by an enterprise.
type ListOutgoingInvitations struct{ EnterpriseID uuid.UUID }

// AcceptInvitation is accepting an enterprise invitation by its ID.
type AcceptInvitation struct{ InvitationID uuid.UUID }

// DeleteInvitation is deleting or rejecting an enterprise invitation by its ID.
type DeleteInvitation struct{ InvitationID uuid.UUID }

// ListMembers is viewing the members of an enterprise.
type ListMembers struct{ EnterpriseID uuid.UUID }

// UpdateMembership is changing a member's role within an enterprise.
type UpdateMembership struct{ EnterpriseID, UserID uuid.UUID }

// RemoveMember is removing a member from an enterprise.
type RemoveMember struct{ EnterpriseID, UserID uuid.UUID }

func (ViewAPIDocs) isAction()             {}
func (ListEnterprises) isAction()         {}
func (CreateEnterprise) isAction()        {}
func (ViewEnterprise) isAction()          {}
func (UpdateEnterprise) isAction()        {}
func (DeleteEnterprise) isAction()        {}
func (CreateInvitation) isAction()        {}
func (ListOutgoingInvitations) isAction() {}
func (AcceptInvitation) isAction()        {}
func (DeleteInvitation) isAction()        {}
func (ListMembers) isAction()             {}
func (UpdateMembership) isAction()        {}
func (RemoveMember) isAction()            {}

func (ViewAPIDocs) String() string     { return "view the API documentation" }
func (ListEnterprises) String() string { return "list all enterprises" }
func (CreateEnterprise) String() string {
	return "create an enterprise"
}
func (a ViewEnterprise) String() string {
	return fmt.Sprintf("view enterprise with id %s", a.EnterpriseID)
}
func (a UpdateEnterprise) String() string {
	return fmt.Sprintf("update enterprise with id %s", a.EnterpriseID)
}
func (a DeleteEnterprise) String() string {
	return fmt.Sprintf("delete enterprise with id %s", a.EnterpriseID)
}
func (a CreateInvitation) String() string {
	return fmt.Sprintf("send an invitation for enterprise with id %s", a.EnterpriseID)
}
func (a ListOutgoingInvitations) String() string {
	return fmt.Sprintf("view outgoing invitations for enterprise with id %s", a.EnterpriseID)
}
func (a AcceptInvitation) String() string {
	return fmt.Sprintf("accept invitation with id %s", a.InvitationID)
}
func (a DeleteInvitation) String() string {
	return fmt.Sprintf("delete invitation with id %s", a.InvitationID)
}
func (a ListMembers) String() string {
	return fmt.Sprintf("view members of enterprise with id %s", a.EnterpriseID)
}
func (a UpdateMembership) String() string {
	return fmt.Sprintf("update membership of user %s in enterprise %s", a.UserID, a.EnterpriseID)
}
func (a RemoveMember) String() string {
	return fmt.Sprintf("remove user %s from enterprise %s", a.UserID, a.EnterpriseID)
}

// Engine is the permission decision core. It re-resolves roles from the
// membership store on every call, so a revoked role takes effect on the very
// next request without any token invalidation. Lookups for a single decision
// are issued independently; the window between resolving a role and acting on
// it is accepted.
type Engine struct {
	roles   RoleDirectory
	invites InvitationDirectory
}

// NewEngine constructs an Engine over the two read ports.
func NewEngine(roles RoleDirectory, invites InvitationDirectory) (*Engine, error) {
	if roles == nil {
		return nil, fmt.Errorf("role directory is required")
	}
	if invites == nil {
		return nil, fmt.Errorf("invitation directory is required")
	}
	return &Engine{roles: roles, invites: invites}, nil
}

// Check decides whether caller may perform action. It returns nil to allow,
// *ForbiddenError to deny, *NotFoundError when the action references a resource
// that does not resolve, or a storage error.
func (e *Engine) Check(ctx context.Context, caller uuid.UUID, action Action) error {
	switch a := action.(type) {
	case ViewAPIDocs:
		return e.requireAnyTeamRole(ctx, caller, a)

	case ListEnterprises:
		return e.requireAnyTeamRole(ctx, caller, a)

	case CreateEnterprise:
		role, ok, err := e.roles.TeamRole(ctx, caller)
		if err != nil {
			return err
		}
		if !ok || role < TeamRoleFrontend {
			return &ForbiddenError{Action: a}
		}
		return nil

	case ViewEnterprise:
		// Enterprises are public.
		return nil

	case UpdateEnterprise:
		return e.requireEnterpriseAdmin(ctx, caller, a.EnterpriseID, a)

	case DeleteEnterprise:
		// Any team member may delete, otherwise the enterprise's own admin.
		if _, ok, err := e.roles.TeamRole(ctx, caller); err != nil {
			return err
		} else if ok {
			return nil
		}
		return e.requireEnterpriseAdmin(ctx, caller, a.EnterpriseID, a)

	case CreateInvitation:
		return e.requireEnterpriseAdmin(ctx, caller, a.EnterpriseID, a)

	case ListOutgoingInvitations:
		return e.requireEnterpriseAdmin(ctx, caller, a.EnterpriseID, a)

	case AcceptInvitation:
		recipient, err := e.invites.InvitationRecipient(ctx, a.InvitationID)
		if err != nil {
			return err
		}
		if recipient == uuid.Nil {
			// invitation exists but its email matches no account
			return &NotFoundError{Resource: "invitation recipient"}
		}
		if caller != recipient {
			return &ForbiddenError{Action: a}
		}
		return nil

	case DeleteInvitation:
		recipient, enterpriseID, err := e.invites.InvitationRecipientAndEnterprise(ctx, a.InvitationID)
		if err != nil {
			return err
		}
		if recipient != uuid.Nil && caller == recipient {
			return nil
		}
		return e.requireEnterpriseAdmin(ctx, caller, enterpriseID, a)

	case ListMembers:
		return e.requireEnterpriseAdmin(ctx, caller, a.EnterpriseID, a)

	case UpdateMembership:
		return e.requireEnterpriseAdmin(ctx, caller, a.EnterpriseID, a)

	case RemoveMember:
		return e.requireEnterpriseAdmin(ctx, caller, a.EnterpriseID, a)

	default:
		return fmt.Errorf("unhandled permission action %T", action)
	}
}

func (e *Engine) requireAnyTeamRole(ctx context.Context, caller uuid.UUID, action Action) error {
	_, ok, err := e.roles.TeamRole(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return &ForbiddenError{Action: action}
	}
	return nil
}

func (e *Engine) requireEnterpriseAdmin(ctx context.Context, caller, enterpriseID uuid.UUID, action Action) error {
	role, ok, err := e.roles.EnterpriseRole(ctx, caller, enterpriseID)
	if err != nil {
		return err
	}
	if !ok || role != EnterpriseRoleAdmin {
		return &ForbiddenError{Action: action}
	}
	return nil
}
