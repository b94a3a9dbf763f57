package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// fakeDirectory implements RoleDirectory and InvitationDirectory in memory.
type fakeDirectory struct {
	teamRoles       map[uuid.UUID]TeamRole
	enterpriseRoles map[uuid.UUID]map[uuid.UUID]EnterpriseRole
	invites         map[uuid.UUID]fakeInvite

	teamLookups       int
	enterpriseLookups int
}

type fakeInvite struct {
	recipient    uuid.UUID
	enterpriseID uuid.UUID
}

func (f *fakeDirectory) TeamRole(_ context.Context, userID uuid.UUID) (TeamRole, bool, error) {
	f.teamLookups++
	role, ok := f.teamRoles[userID]
	return role, ok, nil
}

func (f *fakeDirectory) EnterpriseRole(_ context.Context, userID, enterpriseID uuid.UUID) (EnterpriseRole, bool, error) {
	f.enterpriseLookups++
	role, ok := f.enterpriseRoles[userID][enterpriseID]
	return role, ok, nil
}

func (f *fakeDirectory) InvitationRecipient(_ context.Context, invitationID uuid.UUID) (uuid.UUID, error) {
	inv, ok := f.invites[invitationID]
	if !ok {
		return uuid.Nil, &NotFoundError{Resource: "invitation for user"}
	}
	return inv.recipient, nil
}

func (f *fakeDirectory) InvitationRecipientAndEnterprise(_ context.Context, invitationID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	inv, ok := f.invites[invitationID]
	if !ok {
		return uuid.Nil, uuid.Nil, &NotFoundError{Resource: "invitation for user"}
	}
	return inv.recipient, inv.enterpriseID, nil
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		teamRoles:       map[uuid.UUID]TeamRole{},
		enterpriseRoles: map[uuid.UUID]map[uuid.UUID]EnterpriseRole{},
		invites:         map[uuid.UUID]fakeInvite{},
	}
}

func (f *fakeDirectory) grantEnterpriseRole(userID, enterpriseID uuid.UUID, role EnterpriseRole) {
	if f.enterpriseRoles[userID] == nil {
		f.enterpriseRoles[userID] = map[uuid.UUID]EnterpriseRole{}
	}
	f.enterpriseRoles[userID][enterpriseID] = role
}

func newTestEngine(t *testing.T, dir *fakeDirectory) *Engine {
	t.Helper()
	engine, err := NewEngine(dir, dir)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func isForbidden(err error) bool {
	var forbidden *ForbiddenError
	return errors.As(err, &forbidden)
}

func TestTeamGatedActions(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	engine := newTestEngine(t, dir)

	business := uuid.New()
	frontend := uuid.New()
	backend := uuid.New()
	outsider := uuid.New()
	dir.teamRoles[business] = TeamRoleBusiness
	dir.teamRoles[frontend] = TeamRoleFrontend
	dir.teamRoles[backend] = TeamRoleBackend

	// Any team tier may view docs and list enterprises.
	for _, caller := range []uuid.UUID{business, frontend, backend} {
		if err := engine.Check(ctx, caller, ViewAPIDocs{}); err != nil {
			t.Fatalf("team member denied docs: %v", err)
		}
		if err := engine.Check(ctx, caller, ListEnterprises{}); err != nil {
			t.Fatalf("team member denied enterprise list: %v", err)
		}
	}
	if err := engine.Check(ctx, outsider, ViewAPIDocs{}); !isForbidden(err) {
		t.Fatalf("outsider allowed docs: %v", err)
	}

	// Enterprise creation needs at least the frontend tier.
	if err := engine.Check(ctx, business, CreateEnterprise{}); !isForbidden(err) {
		t.Fatalf("business tier allowed to create enterprise: %v", err)
	}
	if err := engine.Check(ctx, frontend, CreateEnterprise{}); err != nil {
		t.Fatalf("frontend tier denied enterprise creation: %v", err)
	}
	if err := engine.Check(ctx, backend, CreateEnterprise{}); err != nil {
		t.Fatalf("backend tier denied enterprise creation: %v", err)
	}
}

func TestViewEnterpriseIsPublic(t *testing.T) {
	engine := newTestEngine(t, newFakeDirectory())
	if err := engine.Check(context.Background(), uuid.New(), ViewEnterprise{EnterpriseID: uuid.New()}); err != nil {
		t.Fatalf("viewing an enterprise must be public: %v", err)
	}
}

func TestAdminGatedActions(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	engine := newTestEngine(t, dir)

	enterpriseID := uuid.New()
	admin := uuid.New()
	player := uuid.New()
	dir.grantEnterpriseRole(admin, enterpriseID, EnterpriseRoleAdmin)
	dir.grantEnterpriseRole(player, enterpriseID, EnterpriseRolePlayer)

	actions := []Action{
		UpdateEnterprise{EnterpriseID: enterpriseID},
		CreateInvitation{EnterpriseID: enterpriseID},
		ListOutgoingInvitations{EnterpriseID: enterpriseID},
		ListMembers{EnterpriseID: enterpriseID},
		UpdateMembership{EnterpriseID: enterpriseID, UserID: player},
		RemoveMember{EnterpriseID: enterpriseID, UserID: player},
	}
	for _, action := range actions {
		if err := engine.Check(ctx, admin, action); err != nil {
			t.Fatalf("admin denied %s: %v", action, err)
		}
		if err := engine.Check(ctx, player, action); !isForbidden(err) {
			t.Fatalf("player allowed to %s: %v", action, err)
		}
		if err := engine.Check(ctx, uuid.New(), action); !isForbidden(err) {
			t.Fatalf("non-member allowed to %s: %v", action, err)
		}
	}
}

func TestDeleteEnterpriseTeamOverride(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	engine := newTestEngine(t, dir)

	enterpriseID := uuid.New()
	action := DeleteEnterprise{EnterpriseID: enterpriseID}

	// A team member of any tier may delete, even as a plain player there.
	teamMember := uuid.New()
	dir.teamRoles[teamMember] = TeamRoleBusiness
	dir.grantEnterpriseRole(teamMember, enterpriseID, EnterpriseRolePlayer)
	if err := engine.Check(ctx, teamMember, action); err != nil {
		t.Fatalf("team override failed: %v", err)
	}

	// The enterprise's own admin may delete without any team role.
	admin := uuid.New()
	dir.grantEnterpriseRole(admin, enterpriseID, EnterpriseRoleAdmin)
	if err := engine.Check(ctx, admin, action); err != nil {
		t.Fatalf("enterprise admin denied deletion: %v", err)
	}

	// No team role and a non-admin membership is denied.
	player := uuid.New()
	dir.grantEnterpriseRole(player, enterpriseID, EnterpriseRoleInstructor)
	if err := engine.Check(ctx, player, action); !isForbidden(err) {
		t.Fatalf("instructor allowed deletion: %v", err)
	}
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	engine := newTestEngine(t, dir)

	recipient := uuid.New()
	invitationID := uuid.New()
	enterpriseID := uuid.New()
	dir.invites[invitationID] = fakeInvite{recipient: recipient, enterpriseID: enterpriseID}

	if err := engine.Check(ctx, recipient, AcceptInvitation{InvitationID: invitationID}); err != nil {
		t.Fatalf("recipient denied acceptance: %v", err)
	}

	// An admin of an unrelated enterprise is still denied.
	otherAdmin := uuid.New()
	dir.grantEnterpriseRole(otherAdmin, uuid.New(), EnterpriseRoleAdmin)
	if err := engine.Check(ctx, otherAdmin, AcceptInvitation{InvitationID: invitationID}); !isForbidden(err) {
		t.Fatalf("unrelated admin allowed acceptance: %v", err)
	}

	// A missing invitation is NotFound, not Forbidden.
	var notFound *NotFoundError
	err := engine.Check(ctx, recipient, AcceptInvitation{InvitationID: uuid.New()})
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	// So is an invitation whose email matches no registered account.
	unresolved := uuid.New()
	dir.invites[unresolved] = fakeInvite{enterpriseID: enterpriseID}
	err = engine.Check(ctx, recipient, AcceptInvitation{InvitationID: unresolved})
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for unresolved recipient, got %v", err)
	}
}

func TestDeleteInvitation(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	engine := newTestEngine(t, dir)

	recipient := uuid.New()
	enterpriseID := uuid.New()
	invitationID := uuid.New()
	dir.invites[invitationID] = fakeInvite{recipient: recipient, enterpriseID: enterpriseID}

	admin := uuid.New()
	dir.grantEnterpriseRole(admin, enterpriseID, EnterpriseRoleAdmin)

	if err := engine.Check(ctx, recipient, DeleteInvitation{InvitationID: invitationID}); err != nil {
		t.Fatalf("recipient denied rejection: %v", err)
	}
	if err := engine.Check(ctx, admin, DeleteInvitation{InvitationID: invitationID}); err != nil {
		t.Fatalf("admin denied deletion: %v", err)
	}
	if err := engine.Check(ctx, uuid.New(), DeleteInvitation{InvitationID: invitationID}); !isForbidden(err) {
		t.Fatalf("stranger allowed deletion: %v", err)
	}

	// An admin may delete an invitation even before its recipient registers.
	unresolved := uuid.New()
	dir.invites[unresolved] = fakeInvite{enterpriseID: enterpriseID}
	if err := engine.Check(ctx, admin, DeleteInvitation{InvitationID: unresolved}); err != nil {
		t.Fatalf("admin denied deletion of unresolved invitation: %v", err)
	}
}

func TestRolesAreReResolvedPerCheck(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	engine := newTestEngine(t, dir)

	enterpriseID := uuid.New()
	user := uuid.New()
	action := UpdateEnterprise{EnterpriseID: enterpriseID}

	if err := engine.Check(ctx, user, action); !isForbidden(err) {
		t.Fatalf("expected deny before grant: %v", err)
	}
	dir.grantEnterpriseRole(user, enterpriseID, EnterpriseRoleAdmin)
	if err := engine.Check(ctx, user, action); err != nil {
		t.Fatalf("expected allow after grant: %v", err)
	}
	delete(dir.enterpriseRoles[user], enterpriseID)
	if err := engine.Check(ctx, user, action); !isForbidden(err) {
		t.Fatalf("expected deny after revocation: %v", err)
	}
	if dir.enterpriseLookups != 3 {
		t.Fatalf("expected one lookup per check, got %d", dir.enterpriseLookups)
	}
}

func TestForbiddenRendersAction(t *testing.T) {
	err := &ForbiddenError{Action: CreateEnterprise{}}
	if got, want := err.Error(), "forbidden: you may not create an enterprise"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
