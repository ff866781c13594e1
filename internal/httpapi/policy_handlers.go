package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"datenwacht.org/internal/auth"
	"datenwacht.org/internal/policy"
)

type generatePolicyRequest struct {
	OrganizationID      string `json:"organizationId"`
	OrganizationDetails string `json:"organizationDetails,omitempty"`
}

func (a *API) handlePrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.generatePrivacyPolicy(w, r)
	case http.MethodGet:
		a.listPrivacyPolicies(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) generatePrivacyPolicy(w http.ResponseWriter, r *http.Request) {
	var req generatePolicyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		writeError(w, r, http.StatusUnauthorized, errMsgUnauthorized)
		return
	}

	generated, err := a.policies.Generate(r.Context(), userID, orgID, req.OrganizationDetails, actorFromRequest(r, userID))
	if err != nil {
		handlePolicyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"policy": generated})
}

func (a *API) listPrivacyPolicies(w http.ResponseWriter, r *http.Request) {
	orgID := strings.TrimSpace(r.URL.Query().Get(queryParamOrg))
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		writeError(w, r, http.StatusUnauthorized, errMsgUnauthorized)
		return
	}
	policies, err := a.policies.List(r.Context(), userID, orgID)
	if err != nil {
		handlePolicyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policies)
}

func handlePolicyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, policy.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeError(w, r, http.StatusTooManyRequests, "Too many requests. Please try again later.")
	case errors.Is(err, policy.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "Organization not found or access denied")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Organization not found")
	default:
		writeError(w, r, http.StatusInternalServerError, errMsgInternal)
	}
}
