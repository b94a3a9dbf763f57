package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash is the only persisted form of the
// credential and must never be serialized outward.
type User struct {
	ID           uuid.UUID
	Username     string
	DisplayName  string
	Biography    string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Enterprise is an organization on the platform.
type Enterprise struct {
	ID           uuid.UUID
	Name         string
	Website      *string
	SupportEmail *string
	SupportPhone *string
	Logo         *string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Invitation is a pending offer binding an email address, an enterprise and an
// intended role. At most one pending invitation may exist per
// (enterprise, email) pair. The invite code lets an unregistered recipient
// create an account that consumes the invitation.
type Invitation struct {
	ID           uuid.UUID
	EnterpriseID uuid.UUID
	Email        string
	Role         EnterpriseRole
	InviteCode   string
	CreatedAt    time.Time
}

// RecipientInvitation is an invitation as seen by the invited user, including
// the enterprise it belongs to.
type RecipientInvitation struct {
	Invitation
	Enterprise Enterprise
}

// Member is a user's membership within one enterprise.
type Member struct {
	User        User
	Role        EnterpriseRole
	MemberSince time.Time
}

// NewTeamMember is the input for registering a MyAce staff account.
type NewTeamMember struct {
	Email        string
	Username     string
	PasswordHash string
	Role         TeamRole
}

// NewInvitedUser is the input for registering an account through an enterprise
// invitation. The account email comes from the invitation itself.
type NewInvitedUser struct {
	InviteCode   string
	Username     string
	DisplayName  string
	Biography    string
	PasswordHash string
}

// UserUpdate carries optional profile changes; nil fields are left unchanged.
type UserUpdate struct {
	Username     *string
	DisplayName  *string
	Biography    *string
	PasswordHash *string
}

// NewEnterprise is the input for creating an enterprise.
type NewEnterprise struct {
	Name         string
	Website      *string
	SupportEmail *string
	SupportPhone *string
}

// EnterpriseUpdate carries optional enterprise changes; nil fields are left
// unchanged except SupportEmail/SupportPhone which are replaced as given.
type EnterpriseUpdate struct {
	Name         *string
	Website      *string
	SupportEmail *string
	SupportPhone *string
}

// UserStore manages accounts and credentials.
type UserStore interface {
	CreateTeamMember(ctx context.Context, in NewTeamMember) (User, error)
	CreateFromInvite(ctx context.Context, in NewInvitedUser) (User, error)
	Find(ctx context.Context, id uuid.UUID) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UsernameAvailable(ctx context.Context, username string) (bool, error)
}

// EnterpriseStore manages enterprises.
type EnterpriseStore interface {
	CreateEnterprise(ctx context.Context, in NewEnterprise) (Enterprise, error)
	ListEnterprises(ctx context.Context) ([]Enterprise, error)
	FindEnterprise(ctx context.Context, id uuid.UUID) (Enterprise, error)
	UpdateEnterprise(ctx context.Context, id uuid.UUID, upd EnterpriseUpdate) (Enterprise, error)
	DeleteEnterprise(ctx context.Context, id uuid.UUID) error
}

// InvitationStore manages the invitation lifecycle. AcceptInvitation converts
// the invitation into a membership and consumes the record atomically.
type InvitationStore interface {
	CreateInvitation(ctx context.Context, enterpriseID uuid.UUID, email string, role EnterpriseRole) (Invitation, error)
	ListEnterpriseInvitations(ctx context.Context, enterpriseID uuid.UUID) ([]Invitation, error)
	ListUserInvitations(ctx context.Context, userID uuid.UUID) ([]RecipientInvitation, error)
	AcceptInvitation(ctx context.Context, invitationID uuid.UUID) error
	DeleteInvitation(ctx context.Context, invitationID uuid.UUID) error
}

// MemberStore manages enterprise memberships.
type MemberStore interface {
	ListMembers(ctx context.Context, enterpriseID uuid.UUID) ([]Member, error)
	UpdateMemberRole(ctx context.Context, enterpriseID, userID uuid.UUID, role EnterpriseRole) (Member, error)
	RemoveMember(ctx context.Context, enterpriseID, userID uuid.UUID) error
}
