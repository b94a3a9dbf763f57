package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TeamRole is a MyAce staff member's global privilege tier. Tiers are ordered;
// comparisons such as "at least frontend" use the numeric value.
type TeamRole int

const (
	TeamRoleBusiness TeamRole = iota + 1
	TeamRoleFrontend
	TeamRoleBackend
)

func (r TeamRole) String() string {
	switch r {
	case TeamRoleBusiness:
		return "business"
	case TeamRoleFrontend:
		return "frontend"
	case TeamRoleBackend:
		return "backend"
	default:
		return fmt.Sprintf("team_role(%d)", int(r))
	}
}

// ParseTeamRole maps the wire/database representation to a TeamRole.
func ParseTeamRole(s string) (TeamRole, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "business":
		return TeamRoleBusiness, nil
	case "frontend":
		return TeamRoleFrontend, nil
	case "backend":
		return TeamRoleBackend, nil
	default:
		return 0, fmt.Errorf("unknown team role %q", s)
	}
}

// EnterpriseRole is a member's role within a single enterprise. Only admin is
// privileged; the remaining roles exist for presentation and invitations.
type EnterpriseRole int

const (
	EnterpriseRoleParent EnterpriseRole = iota + 1
	EnterpriseRolePlayer
	EnterpriseRoleInstructor
	EnterpriseRoleAdmin
)

func (r EnterpriseRole) String() string {
	switch r {
	case EnterpriseRoleParent:
		return "parent"
	case EnterpriseRolePlayer:
		return "player"
	case EnterpriseRoleInstructor:
		return "instructor"
	case EnterpriseRoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("enterprise_role(%d)", int(r))
	}
}

// ParseEnterpriseRole maps the wire/database representation to an EnterpriseRole.
func ParseEnterpriseRole(s string) (EnterpriseRole, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "parent":
		return EnterpriseRoleParent, nil
	case "player":
		return EnterpriseRolePlayer, nil
	case "instructor":
		return EnterpriseRoleInstructor, nil
	case "admin":
		return EnterpriseRoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown enterprise role %q", s)
	}
}

// RoleDirectory resolves a caller's roles from the membership store. The second
// return reports presence: (0, false, nil) means "not a member", which is a
// normal outcome, not an error. The two lookups are independent queries and
// neither implies the other.
type RoleDirectory interface {
	TeamRole(ctx context.Context, userID uuid.UUID) (TeamRole, bool, error)
	EnterpriseRole(ctx context.Context, userID, enterpriseID uuid.UUID) (EnterpriseRole, bool, error)
}

// InvitationDirectory provides the direct lookups the permission engine needs
// to adjudicate invitation actions. Both resolve the invitation's recipient by
// matching the stored invite email against a registered account email. A
// missing invitation yields *NotFoundError; an invitation whose email has no
// registered account yields a zero recipient id and no error.
type InvitationDirectory interface {
	InvitationRecipient(ctx context.Context, invitationID uuid.UUID) (uuid.UUID, error)
	InvitationRecipientAndEnterprise(ctx context.Context, invitationID uuid.UUID) (recipientID, enterpriseID uuid.UUID, err error)
}
