package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"myace.ai/internal/audit"
	"myace.ai/internal/auth"
)

type updateMembershipRequest struct {
	Role string `json:"role"`
}

// handleEnterpriseMembers serves GET /enterprises/{id}/members.
func (a *API) handleEnterpriseMembers(w http.ResponseWriter, r *http.Request, enterpriseID uuid.UUID) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	caller, ok := a.identify(w, r)
	if !ok {
		return
	}
	if !a.authorize(w, r, caller, auth.ListMembers{EnterpriseID: enterpriseID}) {
		return
	}
	members, err := a.members.ListMembers(r.Context(), enterpriseID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		out = append(out, memberOut(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

// handleEnterpriseMember serves /enterprises/{id}/members/{user_id}.
func (a *API) handleEnterpriseMember(w http.ResponseWriter, r *http.Request, enterpriseID, userID uuid.UUID) {
	caller, ok := a.identify(w, r)
	if !ok {
		return
	}
	r = withIdentity(r, caller)

	switch r.Method {
	case http.MethodPatch:
		if !a.authorize(w, r, caller, auth.UpdateMembership{EnterpriseID: enterpriseID, UserID: userID}) {
			return
		}
		var req updateMembershipRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := auth.ParseEnterpriseRole(req.Role)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		member, err := a.members.UpdateMemberRole(r.Context(), enterpriseID, userID, role)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "membership.updated", map[string]any{
			"enterprise_id": enterpriseID.String(),
			"member_id":     userID.String(),
			"role":          role.String(),
		})
		writeJSON(w, http.StatusOK, memberOut(member))

	case http.MethodDelete:
		if !a.authorize(w, r, caller, auth.RemoveMember{EnterpriseID: enterpriseID, UserID: userID}) {
			return
		}
		if err := a.members.RemoveMember(r.Context(), enterpriseID, userID); err != nil {
			writeDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "membership.removed", map[string]any{
			"enterprise_id": enterpriseID.String(),
			"member_id":     userID.String(),
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}
