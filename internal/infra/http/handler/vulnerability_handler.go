package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/codegate/api/internal/app"
	apihttp "github.com/codegate/api/internal/infra/http"
	"github.com/codegate/api/pkg/apierror"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
	"github.com/codegate/api/pkg/validator"
)

// VulnerabilityHandler handles finding retrieval and dismissal.
type VulnerabilityHandler struct {
	service   *app.ScanService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewVulnerabilityHandler creates a new vulnerability handler.
func NewVulnerabilityHandler(svc *app.ScanService, v *validator.Validator, log *logger.Logger) *VulnerabilityHandler {
	return &VulnerabilityHandler{
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// FindingResponse represents a finding in API responses.
type FindingResponse struct {
	ID           string `json:"id"`
	ScanID       string `json:"scan_id"`
	RepositoryID string `json:"repository_id"`

	FilePath   string  `json:"file_path"`
	StartLine  int     `json:"start_line"`
	EndLine    int     `json:"end_line"`
	Snippet    string  `json:"snippet,omitempty"`
	VulnType   string  `json:"vuln_type"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`

	Source   string `json:"source,omitempty"`
	Sink     string `json:"sink,omitempty"`
	DataFlow string `json:"data_flow,omitempty"`

	AIExploitable     bool    `json:"ai_exploitable"`
	AISeverity        string  `json:"ai_severity,omitempty"`
	AIReasoning       string  `json:"ai_reasoning,omitempty"`
	AIPatchSuggestion string  `json:"ai_patch_suggestion,omitempty"`
	AIConfidence      float64 `json:"ai_confidence"`

	ExploitConfirmed  *bool    `json:"exploit_confirmed,omitempty"`
	ExploitDetails    string   `json:"exploit_details,omitempty"`
	ExploitConfidence *float64 `json:"exploit_confidence,omitempty"`

	ValidationSource string `json:"validation_source"`
	Status           string `json:"status"`

	DismissedBy string     `json:"dismissed_by,omitempty"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DismissFindingRequest represents the request to dismiss a finding.
type DismissFindingRequest struct {
	ActorID string `json:"actor_id" validate:"required,uuid"`
}

func toFindingResponse(f *vulnerability.Finding) FindingResponse {
	dismissedBy := ""
	if f.DismissedBy() != nil {
		dismissedBy = f.DismissedBy().String()
	}
	return FindingResponse{
		ID:           f.ID().String(),
		ScanID:       f.ScanID().String(),
		RepositoryID: f.RepositoryID().String(),

		FilePath:   f.FilePath(),
		StartLine:  f.StartLine(),
		EndLine:    f.EndLine(),
		Snippet:    f.Snippet(),
		VulnType:   f.VulnType(),
		Severity:   string(f.Severity()),
		Confidence: f.Confidence(),

		Source:   f.Source(),
		Sink:     f.Sink(),
		DataFlow: f.DataFlow(),

		AIExploitable:     f.AIExploitable(),
		AISeverity:        string(f.AISeverity()),
		AIReasoning:       f.AIReasoning(),
		AIPatchSuggestion: f.AIPatchSuggestion(),
		AIConfidence:      f.AIConfidence(),

		ExploitConfirmed:  f.ExploitConfirmed(),
		ExploitDetails:    f.ExploitDetails(),
		ExploitConfidence: f.ExploitConfidence(),

		ValidationSource: string(f.ValidationSource()),
		Status:           string(f.Status()),

		DismissedBy: dismissedBy,
		DismissedAt: f.DismissedAt(),

		CreatedAt: f.CreatedAt(),
		UpdatedAt: f.UpdatedAt(),
	}
}

func toFindingResponses(findings []*vulnerability.Finding) []FindingResponse {
	out := make([]FindingResponse, len(findings))
	for i, f := range findings {
		out[i] = toFindingResponse(f)
	}
	return out
}

// ListByRepository handles GET /api/v1/repositories/{id}/findings.
// Returns open and confirmed findings ordered by severity then
// descending confidence.
func (h *VulnerabilityHandler) ListByRepository(w http.ResponseWriter, r *http.Request) {
	repoID, ok := parsePathID(w, apihttp.PathParam(r, "id"), "repository ID")
	if !ok {
		return
	}

	findings, err := h.service.ListRepositoryFindings(r.Context(), repoID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toFindingResponses(findings))
}

// Dismiss handles POST /api/v1/findings/{id}/dismiss.
// Dismissing an already-dismissed finding succeeds silently.
func (h *VulnerabilityHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	findingID, ok := parsePathID(w, apihttp.PathParam(r, "id"), "finding ID")
	if !ok {
		return
	}

	var req DismissFindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	actorID, ok := parsePathID(w, req.ActorID, "actor ID")
	if !ok {
		return
	}

	finding, err := h.service.DismissFinding(r.Context(), findingID, actorID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toFindingResponse(finding))
}
