package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/codegate/api/internal/app"
	apihttp "github.com/codegate/api/internal/infra/http"
	"github.com/codegate/api/pkg/apierror"
	"github.com/codegate/api/pkg/domain/trust"
	"github.com/codegate/api/pkg/logger"
	"github.com/codegate/api/pkg/validator"
)

// RadarHandler handles radar and domain score endpoints.
type RadarHandler struct {
	service   *app.RadarService
	enqueuer  app.RadarEnqueuer
	validator *validator.Validator
	logger    *logger.Logger
}

// NewRadarHandler creates a new radar handler.
func NewRadarHandler(svc *app.RadarService, enqueuer app.RadarEnqueuer, v *validator.Validator, log *logger.Logger) *RadarHandler {
	return &RadarHandler{
		service:   svc,
		enqueuer:  enqueuer,
		validator: v,
		logger:    log,
	}
}

// RadarResponse represents a user's current radar axes.
type RadarResponse struct {
	UserID string             `json:"user_id"`
	Axes   map[string]float64 `json:"axes"`
}

// RadarHistoryEntry is one audit row in a history response.
type RadarHistoryEntry struct {
	Axis       string    `json:"axis"`
	Score      float64   `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// DomainScoresResponse exposes the raw pre-aggregation score inputs.
type DomainScoresResponse struct {
	Repository  RepositoryScoreResponse  `json:"repository"`
	Marketplace MarketplaceScoreResponse `json:"marketplace"`
	OpenSource  OpenSourceScoreResponse  `json:"open_source"`
}

// RepositoryScoreResponse holds repository-derived sub-scores.
type RepositoryScoreResponse struct {
	SecureCoding   float64 `json:"secure_coding"`
	FixSpeed       float64 `json:"fix_speed"`
	RiskManagement float64 `json:"risk_management"`
	Consistency    float64 `json:"consistency"`
}

// MarketplaceScoreResponse holds marketplace-derived sub-scores.
type MarketplaceScoreResponse struct {
	Reliability        float64 `json:"reliability"`
	DeliveryDiscipline float64 `json:"delivery_discipline"`
	AppliedSecurity    float64 `json:"applied_security"`
}

// OpenSourceScoreResponse holds open-source-derived sub-scores.
type OpenSourceScoreResponse struct {
	EngineeringDepth   float64 `json:"engineering_depth"`
	SecurityLeadership float64 `json:"security_leadership"`
	OSSImpact          float64 `json:"oss_impact"`
}

// DomainScoresUpdatedRequest is the internal event notifying that a
// user's raw domain scores changed.
type DomainScoresUpdatedRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// Get handles GET /api/v1/users/{id}/radar.
// Returns 404 when the user has never been recalculated.
func (h *RadarHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := parsePathID(w, apihttp.PathParam(r, "id"), "user ID")
	if !ok {
		return
	}

	axes, err := h.service.GetUserRadar(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if axes == nil {
		apierror.NotFound("radar").WriteJSON(w)
		return
	}

	out := make(map[string]float64, len(axes))
	for axis, score := range axes {
		out[string(axis)] = score
	}
	writeJSON(w, http.StatusOK, RadarResponse{
		UserID: userID.String(),
		Axes:   out,
	})
}

// History handles GET /api/v1/users/{id}/radar/history.
func (h *RadarHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := parsePathID(w, apihttp.PathParam(r, "id"), "user ID")
	if !ok {
		return
	}

	days := parseQueryInt(apihttp.QueryParam(r, "days"), 30)

	history, err := h.service.GetHistory(r.Context(), userID, days)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	out := make([]RadarHistoryEntry, len(history))
	for i, entry := range history {
		out[i] = RadarHistoryEntry{
			Axis:       string(entry.Axis),
			Score:      entry.Score,
			RecordedAt: entry.RecordedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// DomainScores handles GET /api/v1/users/{id}/scores.
func (h *RadarHandler) DomainScores(w http.ResponseWriter, r *http.Request) {
	userID, ok := parsePathID(w, apihttp.PathParam(r, "id"), "user ID")
	if !ok {
		return
	}

	scores, err := h.service.GetDomainScores(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toDomainScoresResponse(scores))
}

// DomainScoresUpdated handles POST /api/v1/internal/events/domain-scores-updated.
// Enqueues an asynchronous radar recalculation for the user.
func (h *RadarHandler) DomainScoresUpdated(w http.ResponseWriter, r *http.Request) {
	var req DomainScoresUpdatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleValidationError(w, err)
		return
	}

	userID, ok := parsePathID(w, req.UserID, "user ID")
	if !ok {
		return
	}

	if err := h.enqueuer.EnqueueRadarRecalculation(r.Context(), userID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "queued",
		"user_id": userID.String(),
	})
}

func toDomainScoresResponse(scores trust.DomainScores) DomainScoresResponse {
	return DomainScoresResponse{
		Repository: RepositoryScoreResponse{
			SecureCoding:   scores.Repository.SecureCoding,
			FixSpeed:       scores.Repository.FixSpeed,
			RiskManagement: scores.Repository.RiskManagement,
			Consistency:    scores.Repository.Consistency,
		},
		Marketplace: MarketplaceScoreResponse{
			Reliability:        scores.Marketplace.Reliability,
			DeliveryDiscipline: scores.Marketplace.DeliveryDiscipline,
			AppliedSecurity:    scores.Marketplace.AppliedSecurity,
		},
		OpenSource: OpenSourceScoreResponse{
			EngineeringDepth:   scores.OpenSource.EngineeringDepth,
			SecurityLeadership: scores.OpenSource.SecurityLeadership,
			OSSImpact:          scores.OpenSource.OSSImpact,
		},
	}
}
