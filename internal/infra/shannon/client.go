// Package shannon wraps the external exploit-validation service. Its
// single responsibility is to make the validator's unavailability
// invisible to the scan pipeline: any error, timeout or non-2xx response
// yields a nil report, never a propagated failure.
package shannon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/codegate/api/internal/config"
	"github.com/codegate/api/internal/metrics"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
)

// Client is the HTTP adapter for the exploit-validation service.
type Client struct {
	baseURL    string
	apiKey     string
	enabled    bool
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient creates a new exploit-validator client.
func NewClient(cfg config.ShannonConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 4
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:     log.With("service", "shannon"),
	}
}

// Enabled reflects the static configuration flag, not live health.
func (c *Client) Enabled() bool {
	return c.enabled
}

type scanRequest struct {
	RepositoryID string        `json:"repository_id"`
	Categories   []string      `json:"categories"`
	Files        []scanReqFile `json:"files"`
}

type scanReqFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

type scanResponse struct {
	Findings []struct {
		Category   string  `json:"category"`
		FilePath   string  `json:"file_path"`
		Line       int     `json:"line"`
		Severity   string  `json:"severity"`
		Confidence float64 `json:"confidence"`
		Details    string  `json:"details"`
	} `json:"findings"`
}

// Scan submits the file set for exploit validation. Returns nil on any
// failure; no retries are attempted (retry policy belongs to callers).
func (c *Client) Scan(ctx context.Context, repositoryID shared.ID, files []scan.SourceFile, categories []string) *vulnerability.ExploitReport {
	if !c.enabled {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Warn("exploit validator rate wait aborted", "error", err)
		metrics.ShannonRequestsTotal.WithLabelValues("canceled").Inc()
		return nil
	}

	reqBody := scanRequest{
		RepositoryID: repositoryID.String(),
		Categories:   categories,
		Files:        make([]scanReqFile, 0, len(files)),
	}
	for _, f := range files {
		reqBody.Files = append(reqBody.Files, scanReqFile{
			Path:     f.Path,
			Content:  f.Content,
			Language: f.Language,
		})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		c.logger.Error("exploit validator request marshal failed", "error", err)
		metrics.ShannonRequestsTotal.WithLabelValues("error").Inc()
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/scan", bytes.NewReader(body))
	if err != nil {
		metrics.ShannonRequestsTotal.WithLabelValues("error").Inc()
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("exploit validator call failed", "error", err)
		metrics.ShannonRequestsTotal.WithLabelValues("error").Inc()
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("exploit validator returned non-2xx", "status", resp.StatusCode)
		metrics.ShannonRequestsTotal.WithLabelValues(fmt.Sprintf("status_%d", resp.StatusCode)).Inc()
		return nil
	}

	var parsed scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Warn("exploit validator response undecodable", "error", err)
		metrics.ShannonRequestsTotal.WithLabelValues("bad_response").Inc()
		return nil
	}

	report := &vulnerability.ExploitReport{
		Findings: make([]vulnerability.ExploitFinding, 0, len(parsed.Findings)),
	}
	for _, f := range parsed.Findings {
		report.Findings = append(report.Findings, vulnerability.ExploitFinding{
			Category:   f.Category,
			FilePath:   f.FilePath,
			Line:       f.Line,
			Severity:   vulnerability.NormalizeSeverity(f.Severity),
			Confidence: f.Confidence,
			Details:    f.Details,
		})
	}

	metrics.ShannonRequestsTotal.WithLabelValues("ok").Inc()
	return report
}

// HealthCheck probes the validator's health endpoint.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if !c.enabled {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
