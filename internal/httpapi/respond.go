package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"myace.ai/internal/audit"
	"myace.ai/internal/auth"
	"myace.ai/internal/obs"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// writeDomainError maps domain errors onto HTTP responses. A credential
// mismatch and a missing/invalid token produce the same body and status, so a
// caller cannot distinguish which check failed.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		forbidden       *auth.ForbiddenError
		notFound        *auth.NotFoundError
		usernameTaken   *auth.UsernameTakenError
		invalidUsername *auth.InvalidUsernameError
		invalidEmail    *auth.InvalidEmailError
		invalidPhone    *auth.InvalidPhoneError
	)
	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrIncorrectPassword):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.As(err, &forbidden):
		obs.ObservePermissionDenial(actionLabel(forbidden.Action))
		writeError(w, r, http.StatusForbidden, forbidden.Error())
	case errors.As(err, &notFound):
		writeError(w, r, http.StatusNotFound, notFound.Error())
	case errors.Is(err, auth.ErrInvitationAlreadySent):
		writeError(w, r, http.StatusConflict, auth.ErrInvitationAlreadySent.Error())
	case errors.As(err, &usernameTaken):
		writeError(w, r, http.StatusUnprocessableEntity, usernameTaken.Error())
	case errors.As(err, &invalidUsername):
		writeError(w, r, http.StatusUnprocessableEntity, invalidUsername.Error())
	case errors.As(err, &invalidEmail):
		writeError(w, r, http.StatusUnprocessableEntity, invalidEmail.Error())
	case errors.As(err, &invalidPhone):
		writeError(w, r, http.StatusUnprocessableEntity, invalidPhone.Error())
	default:
		obs.LogRequest(map[string]any{
			"level":      "error",
			"msg":        "request failed",
			"error":      err.Error(),
			"request_id": audit.RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		})
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// actionLabel keeps the denial metric's label set bounded: one value per action
// kind, no resource ids.
func actionLabel(a auth.Action) string {
	switch a.(type) {
	case auth.ViewAPIDocs:
		return "view_api_docs"
	case auth.ListEnterprises:
		return "list_enterprises"
	case auth.CreateEnterprise:
		return "create_enterprise"
	case auth.ViewEnterprise:
		return "view_enterprise"
	case auth.UpdateEnterprise:
		return "update_enterprise"
	case auth.DeleteEnterprise:
		return "delete_enterprise"
	case auth.CreateInvitation:
		return "create_invitation"
	case auth.ListOutgoingInvitations:
		return "list_outgoing_invitations"
	case auth.AcceptInvitation:
		return "accept_invitation"
	case auth.DeleteInvitation:
		return "delete_invitation"
	case auth.ListMembers:
		return "list_members"
	case auth.UpdateMembership:
		return "update_membership"
	case auth.RemoveMember:
		return "remove_member"
	default:
		return "unknown"
	}
}
