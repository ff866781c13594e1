package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"datenwacht.org/internal/auth"
)

type createOrganizationRequest struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type addMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
}

type addActivityRequest struct {
	Name       string `json:"name"`
	Purpose    string `json:"purpose,omitempty"`
	LegalBasis string `json:"legalBasis,omitempty"`
}

func (a *API) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		writeError(w, r, http.StatusUnauthorized, errMsgUnauthorized)
		return
	}

	var req createOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	org, err := a.dir.CreateOrganization(r.Context(), req.Name, req.Metadata)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	// The creator becomes the first member.
	if _, err := a.dir.AddMember(r.Context(), org.ID, userID, "owner"); err != nil && !errors.Is(err, auth.ErrConflict) {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

// handleOrganizationResource routes /v1/organizations/{id} and its
// sub-resources (members, processing-activities).
func (a *API) handleOrganizationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/organizations/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	orgID, rest, _ := strings.Cut(path, "/")
	if orgID == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch rest {
	case "":
		a.getOrganization(w, r, orgID)
	case "members":
		a.addOrganizationMember(w, r, orgID)
	case "processing-activities":
		a.handleProcessingActivities(w, r, orgID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getOrganization(w http.ResponseWriter, r *http.Request, orgID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
		return
	}
	org, err := a.dir.GetOrganization(r.Context(), orgID)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (a *API) addOrganizationMember(w http.ResponseWriter, r *http.Request, orgID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
		return
	}
	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role := req.Role
	if strings.TrimSpace(role) == "" {
		role = "member"
	}
	m, err := a.dir.AddMember(r.Context(), orgID, req.UserID, role)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) handleProcessingActivities(w http.ResponseWriter, r *http.Request, orgID string) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
			return
		}
		activities, err := a.dir.ListProcessingActivities(r.Context(), orgID)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, activities)
	case http.MethodPost:
		if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
			return
		}
		var req addActivityRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		act, err := a.dir.AddProcessingActivity(r.Context(), orgID, req.Name, req.Purpose, req.LegalBasis)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, act)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func handleDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Organization not found")
	default:
		writeError(w, r, http.StatusInternalServerError, errMsgInternal)
	}
}
