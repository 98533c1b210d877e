// Package notification delivers merge-gate alerts to repository owners.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codegate/api/internal/config"
	"github.com/codegate/api/pkg/domain/governance"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/logger"
)

// WebhookNotifier posts merge-gate denial alerts to a configured webhook.
// It implements the governance service's OwnerNotifier.
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewWebhookNotifier creates a webhook notifier from configuration.
func NewWebhookNotifier(cfg config.NotificationConfig, log *logger.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookNotifier{
		webhookURL: cfg.OwnerWebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With("component", "owner_notifier"),
	}
}

// ownerAlert is the JSON payload sent to the owner webhook.
type ownerAlert struct {
	EventType    string         `json:"event_type"`
	Timestamp    string         `json:"timestamp"`
	RepositoryID string         `json:"repository_id"`
	Reason       string         `json:"reason"`
	Severity     string         `json:"severity"`
	Findings     []alertFinding `json:"findings,omitempty"`
}

type alertFinding struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	VulnType  string `json:"vuln_type"`
	Severity  string `json:"severity"`
}

// NotifyOwner posts a merge-gate denial alert for the repository.
func (n *WebhookNotifier) NotifyOwner(ctx context.Context, repositoryID shared.ID, decision governance.GateDecision) error {
	payload := ownerAlert{
		EventType:    "merge_gate.denied",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		RepositoryID: repositoryID.String(),
		Reason:       decision.Reason,
		Severity:     "critical",
	}
	for _, f := range decision.Findings {
		payload.Findings = append(payload.Findings, alertFinding{
			FilePath:  f.FilePath,
			StartLine: f.StartLine,
			VulnType:  f.VulnType,
			Severity:  f.Severity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal owner alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create owner alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send owner alert: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("owner webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info("owner notified of merge-gate denial",
		"repository_id", repositoryID.String())
	return nil
}
