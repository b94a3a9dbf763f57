package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"myace.ai/internal/audit"
	"myace.ai/internal/auth"
)

type createInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// handleEnterpriseInvitations serves /enterprises/{id}/invitations.
func (a *API) handleEnterpriseInvitations(w http.ResponseWriter, r *http.Request, enterpriseID uuid.UUID) {
	caller, ok := a.identify(w, r)
	if !ok {
		return
	}
	r = withIdentity(r, caller)

	switch r.Method {
	case http.MethodGet:
		if !a.authorize(w, r, caller, auth.ListOutgoingInvitations{EnterpriseID: enterpriseID}) {
			return
		}
		invs, err := a.invitations.ListEnterpriseInvitations(r.Context(), enterpriseID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		out := make([]outgoingInvitationView, 0, len(invs))
		for _, inv := range invs {
			out = append(out, outgoingInvitation(inv))
		}
		writeJSON(w, http.StatusOK, map[string]any{"invitations": out})

	case http.MethodPost:
		if !a.authorize(w, r, caller, auth.CreateInvitation{EnterpriseID: enterpriseID}) {
			return
		}
		var req createInvitationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" {
			writeError(w, r, http.StatusBadRequest, "email is required")
			return
		}
		role, err := auth.ParseEnterpriseRole(req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		inv, err := a.invitations.CreateInvitation(r.Context(), enterpriseID, req.Email, role)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "invitation.created", map[string]any{
			"invite_id":     inv.ID.String(),
			"enterprise_id": enterpriseID.String(),
			"role":          role.String(),
		})
		writeJSON(w, http.StatusCreated, outgoingInvitation(inv))

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleInvitationResource serves /enterprises/invitations/{id} and
// /enterprises/invitations/{id}/accept.
func (a *API) handleInvitationResource(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	invitationID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	caller, ok := a.identify(w, r)
	if !ok {
		return
	}
	r = withIdentity(r, caller)

	switch {
	case len(parts) == 2 && parts[1] == "accept":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		if !a.authorize(w, r, caller, auth.AcceptInvitation{InvitationID: invitationID}) {
			return
		}
		if err := a.invitations.AcceptInvitation(r.Context(), invitationID); err != nil {
			writeDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "invitation.accepted", map[string]any{
			"invite_id": invitationID.String(),
		})
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		if !a.authorize(w, r, caller, auth.DeleteInvitation{InvitationID: invitationID}) {
			return
		}
		if err := a.invitations.DeleteInvitation(r.Context(), invitationID); err != nil {
			writeDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "invitation.deleted", map[string]any{
			"invite_id": invitationID.String(),
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}
