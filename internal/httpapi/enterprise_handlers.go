package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"myace.ai/internal/audit"
	"myace.ai/internal/auth"
)

type createEnterpriseRequest struct {
	Name         string  `json:"name"`
	Website      *string `json:"website_url"`
	SupportEmail *string `json:"support_email"`
	SupportPhone *string `json:"support_phone"`
}

type updateEnterpriseRequest struct {
	Name         *string `json:"name"`
	Website      *string `json:"website_url"`
	SupportEmail *string `json:"support_email"`
	SupportPhone *string `json:"support_phone"`
}

func (a *API) handleEnterprises(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		caller, ok := a.identify(w, r)
		if !ok {
			return
		}
		if !a.authorize(w, r, caller, auth.ListEnterprises{}) {
			return
		}
		ents, err := a.enterprises.ListEnterprises(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		out := make([]enterpriseView, 0, len(ents))
		for _, e := range ents {
			out = append(out, enterpriseOut(e))
		}
		writeJSON(w, http.StatusOK, map[string]any{"enterprises": out})

	case http.MethodPost:
		caller, ok := a.identify(w, r)
		if !ok {
			return
		}
		if !a.authorize(w, r, caller, auth.CreateEnterprise{}) {
			return
		}
		var req createEnterpriseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, r, http.StatusBadRequest, "name is required")
			return
		}
		ent, err := a.enterprises.CreateEnterprise(r.Context(), auth.NewEnterprise{
			Name:         req.Name,
			Website:      req.Website,
			SupportEmail: req.SupportEmail,
			SupportPhone: req.SupportPhone,
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		r = withIdentity(r, caller)
		_ = audit.LogEvent(r.Context(), "enterprise.created", map[string]any{
			"enterprise_id": ent.ID.String(),
			"name":          ent.Name,
		})
		w.Header().Set("Location", "/enterprises/"+ent.ID.String())
		writeJSON(w, http.StatusCreated, enterpriseOut(ent))

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleEnterpriseScoped routes everything under /enterprises/: the enterprise
// resource itself, its invitations and members, and the invitation resource
// (/enterprises/invitations/{id}[/accept]).
func (a *API) handleEnterpriseScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/enterprises/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")

	if parts[0] == "invitations" {
		a.handleInvitationResource(w, r, parts[1:])
		return
	}

	enterpriseID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch {
	case len(parts) == 1:
		a.handleEnterpriseByID(w, r, enterpriseID)
	case parts[1] == "invitations" && len(parts) == 2:
		a.handleEnterpriseInvitations(w, r, enterpriseID)
	case parts[1] == "members" && len(parts) == 2:
		a.handleEnterpriseMembers(w, r, enterpriseID)
	case parts[1] == "members" && len(parts) == 3:
		userID, err := uuid.Parse(parts[2])
		if err != nil {
			writeError(w, r, http.StatusNotFound, "resource not found")
			return
		}
		a.handleEnterpriseMember(w, r, enterpriseID, userID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleEnterpriseByID(w http.ResponseWriter, r *http.Request, enterpriseID uuid.UUID) {
	switch r.Method {
	case http.MethodGet:
		// public view; the engine allows this for anyone, including anonymous
		ent, err := a.enterprises.FindEnterprise(r.Context(), enterpriseID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, enterpriseOut(ent))

	case http.MethodPatch:
		caller, ok := a.identify(w, r)
		if !ok {
			return
		}
		if !a.authorize(w, r, caller, auth.UpdateEnterprise{EnterpriseID: enterpriseID}) {
			return
		}
		var req updateEnterpriseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		ent, err := a.enterprises.UpdateEnterprise(r.Context(), enterpriseID, auth.EnterpriseUpdate{
			Name:         req.Name,
			Website:      req.Website,
			SupportEmail: req.SupportEmail,
			SupportPhone: req.SupportPhone,
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		r = withIdentity(r, caller)
		_ = audit.LogEvent(r.Context(), "enterprise.updated", map[string]any{
			"enterprise_id": enterpriseID.String(),
		})
		writeJSON(w, http.StatusOK, enterpriseOut(ent))

	case http.MethodDelete:
		caller, ok := a.identify(w, r)
		if !ok {
			return
		}
		if !a.authorize(w, r, caller, auth.DeleteEnterprise{EnterpriseID: enterpriseID}) {
			return
		}
		if err := a.enterprises.DeleteEnterprise(r.Context(), enterpriseID); err != nil {
			writeDomainError(w, r, err)
			return
		}
		r = withIdentity(r, caller)
		_ = audit.LogEvent(r.Context(), "enterprise.deleted", map[string]any{
			"enterprise_id": enterpriseID.String(),
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
