package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"myace.ai/internal/auth"
)

// fakeStore is an in-memory implementation of every persistence port, enough
// to exercise the handlers end to end without Postgres.
type fakeStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]auth.User
	teamRoles   map[uuid.UUID]auth.TeamRole
	enterprises map[uuid.UUID]auth.Enterprise
	memberships map[uuid.UUID]map[uuid.UUID]auth.EnterpriseRole
	invites     map[uuid.UUID]auth.Invitation

	teamMemberInserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[uuid.UUID]auth.User),
		teamRoles:   make(map[uuid.UUID]auth.TeamRole),
		enterprises: make(map[uuid.UUID]auth.Enterprise),
		memberships: make(map[uuid.UUID]map[uuid.UUID]auth.EnterpriseRole),
		invites:     make(map[uuid.UUID]auth.Invitation),
	}
}

func (s *fakeStore) CreateTeamMember(_ context.Context, in auth.NewTeamMember) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamMemberInserts++
	for _, u := range s.users {
		if u.Username == in.Username {
			return auth.User{}, &auth.UsernameTakenError{Username: in.Username}
		}
	}
	u := auth.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	s.teamRoles[u.ID] = in.Role
	return u, nil
}

func (s *fakeStore) CreateFromInvite(_ context.Context, in auth.NewInvitedUser) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inv auth.Invitation
	found := false
	for _, candidate := range s.invites {
		if candidate.InviteCode == in.InviteCode {
			inv, found = candidate, true
			break
		}
	}
	if !found {
		return auth.User{}, &auth.NotFoundError{Resource: "invite code"}
	}
	u := auth.User{
		ID:           uuid.New(),
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		Biography:    in.Biography,
		Email:        inv.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	if s.memberships[inv.EnterpriseID] == nil {
		s.memberships[inv.EnterpriseID] = make(map[uuid.UUID]auth.EnterpriseRole)
	}
	s.memberships[inv.EnterpriseID][u.ID] = inv.Role
	delete(s.invites, inv.ID)
	return u, nil
}

func (s *fakeStore) Find(_ context.Context, id uuid.UUID) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, &auth.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return auth.User{}, &auth.NotFoundError{Resource: "account with email"}
}

func (s *fakeStore) Update(_ context.Context, id uuid.UUID, upd auth.UserUpdate) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, &auth.NotFoundError{Resource: "user"}
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Biography != nil {
		u.Biography = *upd.Biography
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	now := time.Now()
	u.UpdatedAt = &now
	s.users[id] = u
	return u, nil
}

func (s *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return &auth.NotFoundError{Resource: "user"}
	}
	delete(s.users, id)
	delete(s.teamRoles, id)
	return nil
}

func (s *fakeStore) UsernameAvailable(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return false, nil
		}
	}
	return true, nil
}

func (s *fakeStore) CreateEnterprise(_ context.Context, in auth.NewEnterprise) (auth.Enterprise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := auth.Enterprise{
		ID:           uuid.New(),
		Name:         in.Name,
		Website:      in.Website,
		SupportEmail: in.SupportEmail,
		SupportPhone: in.SupportPhone,
		CreatedAt:    time.Now(),
	}
	s.enterprises[e.ID] = e
	return e, nil
}

func (s *fakeStore) ListEnterprises(_ context.Context) ([]auth.Enterprise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.Enterprise, 0, len(s.enterprises))
	for _, e := range s.enterprises {
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) FindEnterprise(_ context.Context, id uuid.UUID) (auth.Enterprise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enterprises[id]
	if !ok {
		return auth.Enterprise{}, &auth.NotFoundError{Resource: "enterprise"}
	}
	return e, nil
}

func (s *fakeStore) UpdateEnterprise(_ context.Context, id uuid.UUID, upd auth.EnterpriseUpdate) (auth.Enterprise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enterprises[id]
	if !ok {
		return auth.Enterprise{}, &auth.NotFoundError{Resource: "enterprise"}
	}
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.Website != nil {
		e.Website = upd.Website
	}
	if upd.SupportEmail != nil {
		e.SupportEmail = upd.SupportEmail
	}
	if upd.SupportPhone != nil {
		e.SupportPhone = upd.SupportPhone
	}
	s.enterprises[id] = e
	return e, nil
}

func (s *fakeStore) DeleteEnterprise(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enterprises[id]; !ok {
		return &auth.NotFoundError{Resource: "enterprise"}
	}
	delete(s.enterprises, id)
	return nil
}

func (s *fakeStore) CreateInvitation(_ context.Context, enterpriseID uuid.UUID, email string, role auth.EnterpriseRole) (auth.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invites {
		if inv.EnterpriseID == enterpriseID && inv.Email == email {
			return auth.Invitation{}, auth.ErrInvitationAlreadySent
		}
	}
	inv := auth.Invitation{
		ID:           uuid.New(),
		EnterpriseID: enterpriseID,
		Email:        email,
		Role:         role,
		InviteCode:   uuid.NewString(),
		CreatedAt:    time.Now(),
	}
	s.invites[inv.ID] = inv
	return inv, nil
}

func (s *fakeStore) ListEnterpriseInvitations(_ context.Context, enterpriseID uuid.UUID) ([]auth.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.Invitation
	for _, inv := range s.invites {
		if inv.EnterpriseID == enterpriseID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *fakeStore) ListUserInvitations(_ context.Context, userID uuid.UUID) ([]auth.RecipientInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	var out []auth.RecipientInvitation
	for _, inv := range s.invites {
		if inv.Email == u.Email {
			out = append(out, auth.RecipientInvitation{
				Invitation: inv,
				Enterprise: s.enterprises[inv.EnterpriseID],
			})
		}
	}
	return out, nil
}

func (s *fakeStore) AcceptInvitation(_ context.Context, invitationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[invitationID]
	if !ok {
		return &auth.NotFoundError{Resource: "invitation"}
	}
	recipient, ok := s.recipientLocked(inv)
	if !ok {
		return &auth.NotFoundError{Resource: "invitation"}
	}
	if s.memberships[inv.EnterpriseID] == nil {
		s.memberships[inv.EnterpriseID] = make(map[uuid.UUID]auth.EnterpriseRole)
	}
	s.memberships[inv.EnterpriseID][recipient] = inv.Role
	delete(s.invites, invitationID)
	return nil
}

func (s *fakeStore) DeleteInvitation(_ context.Context, invitationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invites[invitationID]; !ok {
		return &auth.NotFoundError{Resource: "invitation"}
	}
	delete(s.invites, invitationID)
	return nil
}

func (s *fakeStore) ListMembers(_ context.Context, enterpriseID uuid.UUID) ([]auth.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.Member
	for userID, role := range s.memberships[enterpriseID] {
		out = append(out, auth.Member{User: s.users[userID], Role: role, MemberSince: time.Now()})
	}
	return out, nil
}

func (s *fakeStore) UpdateMemberRole(_ context.Context, enterpriseID, userID uuid.UUID, role auth.EnterpriseRole) (auth.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[enterpriseID][userID]; !ok {
		return auth.Member{}, &auth.NotFoundError{Resource: "membership"}
	}
	s.memberships[enterpriseID][userID] = role
	return auth.Member{User: s.users[userID], Role: role, MemberSince: time.Now()}, nil
}

func (s *fakeStore) RemoveMember(_ context.Context, enterpriseID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[enterpriseID][userID]; !ok {
		return &auth.NotFoundError{Resource: "membership"}
	}
	delete(s.memberships[enterpriseID], userID)
	return nil
}

func (s *fakeStore) TeamRole(_ context.Context, userID uuid.UUID) (auth.TeamRole, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.teamRoles[userID]
	return role, ok, nil
}

func (s *fakeStore) EnterpriseRole(_ context.Context, userID, enterpriseID uuid.UUID) (auth.EnterpriseRole, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.memberships[enterpriseID][userID]
	return role, ok, nil
}

func (s *fakeStore) InvitationRecipient(_ context.Context, invitationID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[invitationID]
	if !ok {
		return uuid.Nil, &auth.NotFoundError{Resource: "invitation"}
	}
	recipient, _ := s.recipientLocked(inv)
	return recipient, nil
}

func (s *fakeStore) InvitationRecipientAndEnterprise(_ context.Context, invitationID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[invitationID]
	if !ok {
		return uuid.Nil, uuid.Nil, &auth.NotFoundError{Resource: "invitation"}
	}
	recipient, _ := s.recipientLocked(inv)
	return recipient, inv.EnterpriseID, nil
}

func (s *fakeStore) recipientLocked(inv auth.Invitation) (uuid.UUID, bool) {
	for id, u := range s.users {
		if u.Email == inv.Email {
			return id, true
		}
	}
	return uuid.Nil, false
}

const testServerPassword = "test-server-password"

type apiClient struct {
	baseURL string
	client  *http.Client
	store   *fakeStore
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	store := newFakeStore()
	codec, err := auth.NewTokenCodec("test-hmac-key")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	engine, err := auth.NewEngine(store, store)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	api := New(ReadyProbe{}, "test", Deps{
		Codec:          codec,
		Extractor:      auth.NewExtractor(codec),
		Engine:         engine,
		Users:          store,
		Enterprises:    store,
		Invitations:    store,
		Members:        store,
		ServerPassword: testServerPassword,
	})

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		store:   store,
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, token string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// registerTeamMember registers a staff account through the API and returns its
// session.
func (c *apiClient) registerTeamMember(username, email, password, role string) sessionView {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/users/team", map[string]any{
		"email":           email,
		"username":        username,
		"password":        password,
		"role":            role,
		"server_password": testServerPassword,
	}, "")
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register team member: status %d", resp.StatusCode)
	}
	var session sessionView
	decodeBody(c.t, resp, &session)
	return session
}
