package httpapi

import (
	"time"

	"github.com/google/uuid"

	"myace.ai/internal/auth"
)

// publicUserView is what anyone may see of an account. The private view adds
// the email; the password hash never leaves the store layer.
type publicUserView struct {
	ID          uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Biography   string    `json:"biography"`
	CreatedAt   time.Time `json:"created_at"`
}

type privateUserView struct {
	publicUserView
	Email     string     `json:"email"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func publicUser(u auth.User) publicUserView {
	return publicUserView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Biography:   u.Biography,
		CreatedAt:   u.CreatedAt,
	}
}

func privateUser(u auth.User) privateUserView {
	return privateUserView{
		publicUserView: publicUser(u),
		Email:          u.Email,
		UpdatedAt:      u.UpdatedAt,
	}
}

// sessionView is the response to a successful registration or login.
type sessionView struct {
	User  privateUserView `json:"user"`
	Token string          `json:"token"`
}

type enterpriseView struct {
	ID           uuid.UUID  `json:"enterprise_id"`
	Name         string     `json:"name"`
	Website      *string    `json:"website_url"`
	SupportEmail *string    `json:"support_email"`
	SupportPhone *string    `json:"support_phone"`
	Logo         *string    `json:"logo_url"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func enterpriseOut(e auth.Enterprise) enterpriseView {
	return enterpriseView{
		ID:           e.ID,
		Name:         e.Name,
		Website:      e.Website,
		SupportEmail: e.SupportEmail,
		SupportPhone: e.SupportPhone,
		Logo:         e.Logo,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// outgoingInvitationView includes the invite code so an admin can forward it
// to an unregistered recipient.
type outgoingInvitationView struct {
	ID           uuid.UUID `json:"invite_id"`
	EnterpriseID uuid.UUID `json:"enterprise_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	InviteCode   string    `json:"invite_code"`
	CreatedAt    time.Time `json:"created_at"`
}

func outgoingInvitation(inv auth.Invitation) outgoingInvitationView {
	return outgoingInvitationView{
		ID:           inv.ID,
		EnterpriseID: inv.EnterpriseID,
		Email:        inv.Email,
		Role:         inv.Role.String(),
		InviteCode:   inv.InviteCode,
		CreatedAt:    inv.CreatedAt,
	}
}

// incomingInvitationView is the recipient's side; the code is withheld since a
// registered recipient accepts by id, not by code.
type incomingInvitationView struct {
	ID         uuid.UUID      `json:"invite_id"`
	Role       string         `json:"role"`
	CreatedAt  time.Time      `json:"created_at"`
	Enterprise enterpriseView `json:"enterprise"`
}

func incomingInvitation(inv auth.RecipientInvitation) incomingInvitationView {
	return incomingInvitationView{
		ID:         inv.ID,
		Role:       inv.Role.String(),
		CreatedAt:  inv.CreatedAt,
		Enterprise: enterpriseOut(inv.Enterprise),
	}
}

type memberView struct {
	User        publicUserView `json:"user"`
	Role        string         `json:"role"`
	MemberSince time.Time      `json:"member_since"`
}

func memberOut(m auth.Member) memberView {
	return memberView{
		User:        publicUser(m.User),
		Role:        m.Role.String(),
		MemberSince: m.MemberSince,
	}
}
