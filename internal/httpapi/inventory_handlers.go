package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"datenwacht.org/internal/auth"
	"datenwacht.org/internal/inventory"
)

const (
	errMsgOrgRequired  = "Organization ID is required"
	errMsgIDAndOrg     = "ID and Organization ID are required"
	errMsgUnauthorized = "Unauthorized"
	errMsgForbidden    = "Forbidden"
	errMsgInternal     = "internal error"
	queryParamID       = "id"
	queryParamOrg      = "organizationId"
)

// requireOrgAccess authenticates the caller against the organization. It
// writes the error response itself and returns ok=false on failure.
func (a *API) requireOrgAccess(w http.ResponseWriter, r *http.Request, orgID string) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		writeError(w, r, http.StatusUnauthorized, errMsgUnauthorized)
		return "", false
	}
	member, err := a.dir.IsMember(r.Context(), userID, orgID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, errMsgInternal)
		return "", false
	}
	if !member {
		writeError(w, r, http.StatusForbidden, errMsgForbidden)
		return "", false
	}
	return userID, true
}

func actorFromRequest(r *http.Request, userID string) inventory.Actor {
	return inventory.Actor{
		UserID:    userID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func handleInventoryError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var verr *inventory.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Error())
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, notFoundMsg)
	default:
		writeError(w, r, http.StatusInternalServerError, errMsgInternal)
	}
}

// matchesSearch reports whether the needle occurs in any haystack field,
// case-insensitively.
func matchesSearch(needle string, fields ...string) bool {
	needle = strings.ToLower(needle)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// filterActive reports whether a filter value constrains results; "all" and
// the empty string do not.
func filterActive(v string) bool {
	return v != "" && v != "all"
}

// --- data sources ---

type createSourceRequest struct {
	OrganizationID string `json:"organizationId"`
	inventory.CreateSourceInput
}

type updateSourceRequest struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	inventory.UpdateSourceInput
}

func (a *API) handleSources(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listSources(w, r)
	case http.MethodPost:
		a.createSource(w, r)
	case http.MethodPut:
		a.updateSource(w, r)
	case http.MethodDelete:
		a.deleteSource(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listSources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
		return
	}
	sources, err := a.inv.ListSources(r.Context(), orgID)
	if err != nil {
		handleInventoryError(w, r, err, "Data source not found")
		return
	}
	search := strings.TrimSpace(q.Get("search"))
	status := strings.TrimSpace(q.Get("status"))
	out := make([]inventory.DataSource, 0, len(sources))
	for _, src := range sources {
		if search != "" && !matchesSearch(search, src.Name, string(src.Type)) {
			continue
		}
		if filterActive(status) && string(src.Status) != status {
			continue
		}
		out = append(out, src)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createSource(w http.ResponseWriter, r *http.Request) {
	var req createSourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	src, err := a.inv.CreateSource(r.Context(), orgID, actorFromRequest(r, userID), req.CreateSourceInput)
	if err != nil {
		handleInventoryError(w, r, err, "Data source not found")
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

func (a *API) updateSource(w http.ResponseWriter, r *http.Request) {
	var req updateSourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(req.ID)
	orgID := strings.TrimSpace(req.OrganizationID)
	if id == "" || orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgIDAndOrg)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	src, err := a.inv.UpdateSource(r.Context(), id, orgID, actorFromRequest(r, userID), req.UpdateSourceInput)
	if err != nil {
		handleInventoryError(w, r, err, "Data source not found")
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (a *API) deleteSource(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get(queryParamID))
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if id == "" || orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgIDAndOrg)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	if err := a.inv.DeleteSource(r.Context(), id, orgID, actorFromRequest(r, userID)); err != nil {
		handleInventoryError(w, r, err, "Data source not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data source deleted successfully"})
}

// --- data assets ---

type createAssetRequest struct {
	OrganizationID string `json:"organizationId"`
	inventory.CreateAssetInput
}

type updateAssetRequest struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	inventory.UpdateAssetInput
}

func (a *API) handleAssets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAssets(w, r)
	case http.MethodPost:
		a.createAsset(w, r)
	case http.MethodPut:
		a.updateAsset(w, r)
	case http.MethodDelete:
		a.deleteAsset(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
		return
	}
	assets, err := a.inv.ListAssets(r.Context(), orgID)
	if err != nil {
		handleInventoryError(w, r, err, "Data asset not found")
		return
	}
	search := strings.TrimSpace(q.Get("search"))
	category := strings.TrimSpace(q.Get("category"))
	sourceID := strings.TrimSpace(q.Get("dataSourceId"))
	out := make([]inventory.DataAsset, 0, len(assets))
	for _, asset := range assets {
		if search != "" && !matchesSearch(search, asset.Name, string(asset.Type)) {
			continue
		}
		if filterActive(category) && string(asset.Category) != category {
			continue
		}
		if sourceID != "" && asset.DataSourceID != sourceID {
			continue
		}
		out = append(out, asset)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createAsset(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	asset, err := a.inv.CreateAsset(r.Context(), orgID, actorFromRequest(r, userID), req.CreateAssetInput)
	if err != nil {
		handleInventoryError(w, r, err, "Data asset not found")
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (a *API) updateAsset(w http.ResponseWriter, r *http.Request) {
	var req updateAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(req.ID)
	orgID := strings.TrimSpace(req.OrganizationID)
	if id == "" || orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgIDAndOrg)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	asset, err := a.inv.UpdateAsset(r.Context(), id, orgID, actorFromRequest(r, userID), req.UpdateAssetInput)
	if err != nil {
		handleInventoryError(w, r, err, "Data asset not found")
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func (a *API) deleteAsset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get(queryParamID))
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if id == "" || orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgIDAndOrg)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	if err := a.inv.DeleteAsset(r.Context(), id, orgID, actorFromRequest(r, userID)); err != nil {
		handleInventoryError(w, r, err, "Data asset not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data asset deleted successfully"})
}

// --- data classifications ---

type createClassificationRequest struct {
	OrganizationID string `json:"organizationId"`
	inventory.CreateClassificationInput
}

type updateClassificationRequest struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	inventory.UpdateClassificationInput
}

func (a *API) handleClassifications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listClassifications(w, r)
	case http.MethodPost:
		a.createClassification(w, r)
	case http.MethodPut:
		a.updateClassification(w, r)
	case http.MethodDelete:
		a.deleteClassification(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listClassifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
		return
	}
	classifications, err := a.inv.ListClassifications(r.Context(), orgID)
	if err != nil {
		handleInventoryError(w, r, err, "Data classification not found")
		return
	}
	assetID := strings.TrimSpace(q.Get("dataAssetId"))
	clsType := strings.TrimSpace(q.Get("type"))
	out := make([]inventory.DataClassification, 0, len(classifications))
	for _, cls := range classifications {
		if assetID != "" && cls.DataAssetID != assetID {
			continue
		}
		if filterActive(clsType) && string(cls.ClassificationType) != clsType {
			continue
		}
		out = append(out, cls)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createClassification(w http.ResponseWriter, r *http.Request) {
	var req createClassificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	cls, err := a.inv.CreateClassification(r.Context(), orgID, actorFromRequest(r, userID), req.CreateClassificationInput)
	if err != nil {
		handleInventoryError(w, r, err, "Data classification not found")
		return
	}
	writeJSON(w, http.StatusCreated, cls)
}

func (a *API) updateClassification(w http.ResponseWriter, r *http.Request) {
	var req updateClassificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(req.ID)
	orgID := strings.TrimSpace(req.OrganizationID)
	if id == "" || orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgIDAndOrg)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	cls, err := a.inv.UpdateClassification(r.Context(), id, orgID, actorFromRequest(r, userID), req.UpdateClassificationInput)
	if err != nil {
		handleInventoryError(w, r, err, "Data classification not found")
		return
	}
	writeJSON(w, http.StatusOK, cls)
}

func (a *API) deleteClassification(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get(queryParamID))
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if id == "" || orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgIDAndOrg)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	if err := a.inv.DeleteClassification(r.Context(), id, orgID, actorFromRequest(r, userID)); err != nil {
		handleInventoryError(w, r, err, "Data classification not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data classification deleted successfully"})
}

// --- data flows ---

type createFlowRequest struct {
	OrganizationID string `json:"organizationId"`
	inventory.CreateFlowInput
}

type updateFlowRequest struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	inventory.UpdateFlowInput
}

func (a *API) handleFlows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listFlows(w, r)
	case http.MethodPost:
		a.createFlow(w, r)
	case http.MethodPut:
		a.updateFlow(w, r)
	case http.MethodDelete:
		a.deleteFlow(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listFlows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
		return
	}

	if q.Get("graph") == "true" {
		graph, err := a.inv.FlowGraph(r.Context(), orgID)
		if err != nil {
			handleInventoryError(w, r, err, "Data flow not found")
			return
		}
		writeJSON(w, http.StatusOK, graph)
		return
	}

	flows, err := a.inv.ListFlows(r.Context(), orgID)
	if err != nil {
		handleInventoryError(w, r, err, "Data flow not found")
		return
	}
	search := strings.TrimSpace(q.Get("search"))
	sourceAssetID := strings.TrimSpace(q.Get("sourceAssetId"))
	destAssetID := strings.TrimSpace(q.Get("destinationAssetId"))
	out := make([]inventory.DataFlow, 0, len(flows))
	for _, flow := range flows {
		if search != "" && !matchesSearch(search, flow.Purpose, string(flow.Frequency), string(flow.TransferMethod)) {
			continue
		}
		if sourceAssetID != "" && flow.SourceAssetID != sourceAssetID {
			continue
		}
		if destAssetID != "" && flow.DestinationAssetID != destAssetID {
			continue
		}
		out = append(out, flow)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createFlow(w http.ResponseWriter, r *http.Request) {
	var req createFlowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	flow, err := a.inv.CreateFlow(r.Context(), orgID, actorFromRequest(r, userID), req.CreateFlowInput)
	if err != nil {
		handleInventoryError(w, r, err, "Data flow not found")
		return
	}
	writeJSON(w, http.StatusCreated, flow)
}

func (a *API) updateFlow(w http.ResponseWriter, r *http.Request) {
	var req updateFlowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(req.ID)
	orgID := strings.TrimSpace(req.OrganizationID)
	if id == "" || orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgIDAndOrg)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	flow, err := a.inv.UpdateFlow(r.Context(), id, orgID, actorFromRequest(r, userID), req.UpdateFlowInput)
	if err != nil {
		handleInventoryError(w, r, err, "Data flow not found")
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (a *API) deleteFlow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get(queryParamID))
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if id == "" || orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgIDAndOrg)
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	if err := a.inv.DeleteFlow(r.Context(), id, orgID, actorFromRequest(r, userID)); err != nil {
		handleInventoryError(w, r, err, "Data flow not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data flow deleted successfully"})
}

// --- audit logs ---

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	q := r.URL.Query()
	orgID := strings.TrimSpace(q.Get(queryParamOrg))
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	if _, ok := a.requireOrgAccess(w, r, orgID); !ok {
		return
	}
	limit, err := parseLimit(q.Get("limit"), 50, 1, 500)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := a.inv.AuditTrail(r.Context(), orgID, limit)
	if err != nil {
		handleInventoryError(w, r, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- scan ---

type scanRequest struct {
	OrganizationID string `json:"organizationId"`
	DataSourceID   string `json:"dataSourceId"`
}

func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	sourceID := strings.TrimSpace(req.DataSourceID)
	if orgID == "" {
		writeError(w, r, http.StatusBadRequest, errMsgOrgRequired)
		return
	}
	if sourceID == "" {
		writeError(w, r, http.StatusBadRequest, "Data source ID is required")
		return
	}
	userID, ok := a.requireOrgAccess(w, r, orgID)
	if !ok {
		return
	}
	result, err := a.inv.ScanSource(r.Context(), sourceID, orgID, actorFromRequest(r, userID))
	if err != nil {
		handleInventoryError(w, r, err, "Data source not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
