package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/codegate/api/internal/app"
	apihttp "github.com/codegate/api/internal/infra/http"
	"github.com/codegate/api/pkg/apierror"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/logger"
	"github.com/codegate/api/pkg/validator"
)

// ScanHandler handles scan submission and retrieval.
type ScanHandler struct {
	queue     *app.ScanQueue
	service   *app.ScanService
	validator *validator.Validator
	logger    *logger.Logger
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(queue *app.ScanQueue, svc *app.ScanService, v *validator.Validator, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		queue:     queue,
		service:   svc,
		validator: v,
		logger:    log,
	}
}

// SourceFileRequest is one file in a scan submission.
type SourceFileRequest struct {
	Path     string `json:"path" validate:"required,max=1024"`
	Content  string `json:"content"`
	Language string `json:"language" validate:"max=64"`
}

// SubmitScanRequest represents the request to submit a scan.
type SubmitScanRequest struct {
	RepositoryID            string              `json:"repository_id" validate:"required,uuid"`
	ActorID                 string              `json:"actor_id" validate:"required,uuid"`
	Kind                    string              `json:"kind" validate:"required,scan_kind"`
	CommitSHA               string              `json:"commit_sha" validate:"max=64"`
	Branch                  string              `json:"branch" validate:"max=255"`
	Files                   []SourceFileRequest `json:"files" validate:"required,min=1,dive"`
	ExploitValidatorEnabled bool                `json:"exploit_validator_enabled"`
	Async                   bool                `json:"async"`
}

// SeverityCountsResponse tallies findings per severity in API responses.
type SeverityCountsResponse struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// ScanResponse represents a scan in API responses.
type ScanResponse struct {
	ID                   string                 `json:"id"`
	RepositoryID         string                 `json:"repository_id"`
	ActorID              string                 `json:"actor_id,omitempty"`
	Kind                 string                 `json:"kind"`
	Status               string                 `json:"status"`
	CommitSHA            string                 `json:"commit_sha,omitempty"`
	Branch               string                 `json:"branch,omitempty"`
	Counts               SeverityCountsResponse `json:"counts"`
	SecureCodingScore    float64                `json:"secure_coding_score"`
	RiskScore            float64                `json:"risk_score"`
	ExploitValidatorUsed bool                   `json:"exploit_validator_used"`
	ErrorMessage         string                 `json:"error_message,omitempty"`
	StartedAt            *time.Time             `json:"started_at,omitempty"`
	CompletedAt          *time.Time             `json:"completed_at,omitempty"`
	DurationMS           int64                  `json:"duration_ms"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// ScanResultResponse is the synchronous scan submission response.
type ScanResultResponse struct {
	ScanID               string                 `json:"scan_id"`
	RepositoryID         string                 `json:"repository_id"`
	Status               string                 `json:"status"`
	Counts               SeverityCountsResponse `json:"counts"`
	SecureCodingScore    float64                `json:"secure_coding_score"`
	RiskScore            float64                `json:"risk_score"`
	ShouldBlockMerge     bool                   `json:"should_block_merge"`
	ExploitValidatorUsed bool                   `json:"exploit_validator_used"`
	Findings             []FindingResponse      `json:"findings"`
	DurationMS           int64                  `json:"duration_ms"`
}

// ScanDetailResponse is a scan with its findings.
type ScanDetailResponse struct {
	Scan     ScanResponse      `json:"scan"`
	Findings []FindingResponse `json:"findings"`
}

// QueuedScanResponse is the asynchronous scan submission response. The
// depth counts requests still waiting for a slot at acknowledgment time.
type QueuedScanResponse struct {
	Status       string `json:"status"`
	RepositoryID string `json:"repository_id"`
	QueueDepth   int    `json:"queue_depth"`
}

func toSeverityCountsResponse(c scan.SeverityCounts) SeverityCountsResponse {
	return SeverityCountsResponse{
		Critical: c.Critical,
		High:     c.High,
		Medium:   c.Medium,
		Low:      c.Low,
		Info:     c.Info,
	}
}

func toScanResponse(s *scan.Scan) ScanResponse {
	actorID := ""
	if !s.ActorID().IsZero() {
		actorID = s.ActorID().String()
	}
	return ScanResponse{
		ID:                   s.ID().String(),
		RepositoryID:         s.RepositoryID().String(),
		ActorID:              actorID,
		Kind:                 string(s.Kind()),
		Status:               string(s.Status()),
		CommitSHA:            s.CommitSHA(),
		Branch:               s.Branch(),
		Counts:               toSeverityCountsResponse(s.Counts()),
		SecureCodingScore:    s.SecureCodingScore(),
		RiskScore:            s.RiskScore(),
		ExploitValidatorUsed: s.ExploitValidatorUsed(),
		ErrorMessage:         s.ErrorMessage(),
		StartedAt:            s.StartedAt(),
		CompletedAt:          s.CompletedAt(),
		DurationMS:           s.Duration().Milliseconds(),
		CreatedAt:            s.CreatedAt(),
		UpdatedAt:            s.UpdatedAt(),
	}
}

func toScanResultResponse(res *app.ScanResult) ScanResultResponse {
	return ScanResultResponse{
		ScanID:               res.ScanID.String(),
		RepositoryID:         res.RepositoryID.String(),
		Status:               string(res.Status),
		Counts:               toSeverityCountsResponse(res.Counts),
		SecureCodingScore:    res.SecureCodingScore,
		RiskScore:            res.RiskScore,
		ShouldBlockMerge:     res.ShouldBlockMerge,
		ExploitValidatorUsed: res.ExploitValidatorUsed,
		Findings:             toFindingResponses(res.Findings),
		DurationMS:           res.Duration.Milliseconds(),
	}
}

func (h *ScanHandler) buildRequest(req SubmitScanRequest) (scan.Request, error) {
	repoID, err := shared.IDFromString(req.RepositoryID)
	if err != nil {
		return scan.Request{}, err
	}
	actorID, err := shared.IDFromString(req.ActorID)
	if err != nil {
		return scan.Request{}, err
	}

	files := make([]scan.SourceFile, len(req.Files))
	for i, f := range req.Files {
		files[i] = scan.SourceFile{
			Path:     f.Path,
			Content:  f.Content,
			Language: f.Language,
		}
	}

	return scan.Request{
		RepositoryID:            repoID,
		ActorID:                 actorID,
		Kind:                    scan.Kind(req.Kind),
		CommitSHA:               req.CommitSHA,
		Branch:                  req.Branch,
		Files:                   files,
		ExploitValidatorEnabled: req.ExploitValidatorEnabled,
	}, nil
}

// Submit handles POST /api/v1/scans.
// The request runs through the bounded scan queue; with async set the
// handler returns 202 immediately, otherwise it waits for the outcome.
func (h *ScanHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	scanReq, err := h.buildRequest(req)
	if err != nil {
		apierror.BadRequest(err.Error()).WriteJSON(w)
		return
	}

	if req.Async {
		// Detach from the request context: the scan outlives this request.
		h.queue.Enqueue(context.WithoutCancel(r.Context()), scanReq)
		writeJSON(w, http.StatusAccepted, QueuedScanResponse{
			Status:       "queued",
			RepositoryID: req.RepositoryID,
			QueueDepth:   h.queue.Status().Queued,
		})
		return
	}

	outcome := <-h.queue.Enqueue(r.Context(), scanReq)
	if outcome.Err != nil {
		handleServiceError(w, h.logger, outcome.Err)
		return
	}

	writeJSON(w, http.StatusCreated, toScanResultResponse(outcome.Result))
}

// Get handles GET /api/v1/scans/{id}.
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(w, apihttp.PathParam(r, "id"), "scan ID")
	if !ok {
		return
	}

	sc, findings, err := h.service.GetScan(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ScanDetailResponse{
		Scan:     toScanResponse(sc),
		Findings: toFindingResponses(findings),
	})
}

// ListByRepository handles GET /api/v1/repositories/{id}/scans.
func (h *ScanHandler) ListByRepository(w http.ResponseWriter, r *http.Request) {
	repoID, ok := parsePathID(w, apihttp.PathParam(r, "id"), "repository ID")
	if !ok {
		return
	}

	limit := parseQueryInt(apihttp.QueryParam(r, "limit"), 20)

	scans, err := h.service.ListRepositoryScans(r.Context(), repoID, limit)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	out := make([]ScanResponse, len(scans))
	for i, s := range scans {
		out[i] = toScanResponse(s)
	}
	writeJSON(w, http.StatusOK, out)
}

// QueueStatus handles GET /api/v1/scans/queue.
func (h *ScanHandler) QueueStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.Status())
}
