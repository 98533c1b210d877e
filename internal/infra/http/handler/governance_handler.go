package handler

import (
	"encoding/json"
	"net/http"

	"github.com/codegate/api/internal/app"
	apihttp "github.com/codegate/api/internal/infra/http"
	"github.com/codegate/api/pkg/apierror"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/logger"
	"github.com/codegate/api/pkg/validator"
)

// GovernanceHandler handles permission and merge-gate endpoints.
type GovernanceHandler struct {
	service   *app.GovernanceService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewGovernanceHandler creates a new governance handler.
func NewGovernanceHandler(svc *app.GovernanceService, v *validator.Validator, log *logger.Logger) *GovernanceHandler {
	return &GovernanceHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// EvaluateMergeGateRequest represents the request to evaluate the merge gate.
type EvaluateMergeGateRequest struct {
	RepositoryID string `json:"repository_id" validate:"required,uuid"`
	ScanID       string `json:"scan_id" validate:"required,uuid"`
	ActorID      string `json:"actor_id" validate:"omitempty,uuid"`
	PushRadar    bool   `json:"push_radar"`
	NotifyOwner  bool   `json:"notify_owner"`
}

// GetPermissions handles GET /api/v1/users/{id}/permissions.
func (h *GovernanceHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := parsePathID(w, apihttp.PathParam(r, "id"), "user ID")
	if !ok {
		return
	}

	perms, err := h.service.GetPermissions(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, perms)
}

// EvaluateMergeGate handles POST /api/v1/merge-gate/evaluate.
func (h *GovernanceHandler) EvaluateMergeGate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateMergeGateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	repoID, ok := parsePathID(w, req.RepositoryID, "repository ID")
	if !ok {
		return
	}
	scanID, ok := parsePathID(w, req.ScanID, "scan ID")
	if !ok {
		return
	}

	input := app.MergeGateInput{
		RepositoryID: repoID,
		ScanID:       scanID,
		PushRadar:    req.PushRadar,
		NotifyOwner:  req.NotifyOwner,
	}
	if req.ActorID != "" {
		actorID, err := shared.IDFromString(req.ActorID)
		if err != nil {
			apierror.BadRequest("invalid actor ID").WriteJSON(w)
			return
		}
		input.ActorID = &actorID
	}

	decision, err := h.service.EvaluateMergeGate(r.Context(), input)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}
