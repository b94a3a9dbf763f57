package httpapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"myace.ai/internal/audit"
	"myace.ai/internal/auth"
	"myace.ai/internal/obs"
)

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Biography   string `json:"biography"`
	InviteCode  string `json:"invite_code"`
	Password    string `json:"password"`
}

type registerTeamMemberRequest struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	ServerPassword string `json:"server_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateMeRequest struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	Biography   *string `json:"biography"`
	Password    *string `json:"password"`
	OldPassword *string `json:"old_password"`
}

// handleRegister creates an account from an enterprise invite code.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.InviteCode = strings.TrimSpace(req.InviteCode)
	if req.Username == "" || req.InviteCode == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "username, invite_code and password are required")
		return
	}

	digest, err := auth.HashPassword(r.Context(), req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	user, err := a.users.CreateFromInvite(r.Context(), auth.NewInvitedUser{
		InviteCode:   req.InviteCode,
		Username:     req.Username,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Biography:    req.Biography,
		PasswordHash: digest,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	token, err := a.codec.Issue(user.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	ctx := auth.ContextWithIdentity(r.Context(), user.ID)
	_ = audit.LogEvent(ctx, "user.registered", map[string]any{
		"username": user.Username,
		"via":      "invite",
	})
	writeJSON(w, http.StatusCreated, sessionView{User: privateUser(user), Token: token})
}

// handleRegisterTeamMember creates a staff account. The shared server password
// is checked in constant time before anything touches the database, so a wrong
// credential leaves no trace of an account.
func (a *API) handleRegisterTeamMember(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerTeamMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !constantTimeEqual(req.ServerPassword, a.serverPassword) {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email, username and password are required")
		return
	}
	role, err := auth.ParseTeamRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	digest, err := auth.HashPassword(r.Context(), req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	user, err := a.users.CreateTeamMember(r.Context(), auth.NewTeamMember{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: digest,
		Role:         role,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	token, err := a.codec.Issue(user.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	ctx := auth.ContextWithIdentity(r.Context(), user.ID)
	_ = audit.LogEvent(ctx, "user.registered", map[string]any{
		"username": user.Username,
		"via":      "team",
		"role":     role.String(),
	})
	writeJSON(w, http.StatusCreated, sessionView{User: privateUser(user), Token: token})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		var nf *auth.NotFoundError
		if errors.As(err, &nf) {
			// same response as a wrong password: do not leak which emails exist
			obs.ObserveLogin("unknown_account")
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		obs.ObserveLogin("error")
		writeDomainError(w, r, err)
		return
	}
	if err := auth.VerifyPassword(r.Context(), req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrIncorrectPassword) {
			obs.ObserveLogin("incorrect_password")
		} else {
			obs.ObserveLogin("error")
		}
		writeDomainError(w, r, err)
		return
	}
	token, err := a.codec.Issue(user.ID)
	if err != nil {
		obs.ObserveLogin("error")
		writeDomainError(w, r, err)
		return
	}
	obs.ObserveLogin("ok")
	ctx := auth.ContextWithIdentity(r.Context(), user.ID)
	_ = audit.LogEvent(ctx, "user.login", map[string]any{
		"username": user.Username,
	})
	writeJSON(w, http.StatusOK, sessionView{User: privateUser(user), Token: token})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.identify(w, r)
	if !ok {
		return
	}
	r = withIdentity(r, caller)

	switch r.Method {
	case http.MethodGet:
		user, err := a.users.Find(r.Context(), caller)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, privateUser(user))

	case http.MethodPatch:
		a.handleUpdateMe(w, r, caller)

	case http.MethodDelete:
		if err := a.users.Delete(r.Context(), caller); err != nil {
			writeDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.deleted", nil)
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	upd := auth.UserUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Biography:   req.Biography,
	}
	if req.Password != nil {
		// changing the credential requires proving the current one
		if req.OldPassword == nil {
			writeError(w, r, http.StatusBadRequest, "old_password is required to change the password")
			return
		}
		current, err := a.users.Find(r.Context(), caller)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if err := auth.VerifyPassword(r.Context(), *req.OldPassword, current.PasswordHash); err != nil {
			writeDomainError(w, r, err)
			return
		}
		digest, err := auth.HashPassword(r.Context(), *req.Password)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		upd.PasswordHash = &digest
	}

	user, err := a.users.Update(r.Context(), caller, upd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.updated", map[string]any{
		"password_changed": upd.PasswordHash != nil,
	})
	writeJSON(w, http.StatusOK, privateUser(user))
}

// handleUserByID serves GET /users/{id}. Authenticated callers get the private
// view; anonymous callers the public one. A present-but-invalid token fails.
func (a *API) handleUserByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	rawID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
	id, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	_, authenticated, err := a.extractor.Optional(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	user, err := a.users.Find(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if authenticated {
		writeJSON(w, http.StatusOK, privateUser(user))
		return
	}
	writeJSON(w, http.StatusOK, publicUser(user))
}

func (a *API) handleMyInvitations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, ok := a.identify(w, r)
	if !ok {
		return
	}
	invs, err := a.invitations.ListUserInvitations(r.Context(), caller)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]incomingInvitationView, 0, len(invs))
	for _, inv := range invs {
		out = append(out, incomingInvitation(inv))
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": out})
}

// handleUsernameCheck serves GET /usernames/{username}/check.
func (a *API) handleUsernameCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/usernames/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "check" || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	username := parts[0]
	available, err := a.users.UsernameAvailable(r.Context(), username)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username":  username,
		"available": available,
	})
}

// constantTimeEqual compares without leaking length or prefix timing.
func constantTimeEqual(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1
}
