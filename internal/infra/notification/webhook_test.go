package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegate/api/internal/config"
	"github.com/codegate/api/pkg/domain/governance"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/logger"
)

func testNotifier(url string) *WebhookNotifier {
	return NewWebhookNotifier(config.NotificationConfig{OwnerWebhookURL: url}, logger.NewNop())
}

func testDecision() governance.GateDecision {
	return governance.GateDecision{
		Status:          governance.GateDenied,
		Reason:          "1 critical finding(s) must be resolved before merging",
		CriticalBlocked: true,
		Findings: []governance.GateFinding{
			{FilePath: "src/db.js", StartLine: 12, VulnType: "sql_injection", Severity: "critical", Confidence: 0.95},
		},
	}
}

func TestWebhookNotifier_NotifyOwner(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the denial alert", func(t *testing.T) {
		var alert ownerAlert
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		}))
		defer srv.Close()

		repoID := shared.NewID()
		err := testNotifier(srv.URL).NotifyOwner(ctx, repoID, testDecision())

		require.NoError(t, err)
		assert.Equal(t, "merge_gate.denied", alert.EventType)
		assert.Equal(t, repoID.String(), alert.RepositoryID)
		assert.Contains(t, alert.Reason, "critical finding")
		assert.Equal(t, "critical", alert.Severity)
		require.Len(t, alert.Findings, 1)
		assert.Equal(t, "src/db.js", alert.Findings[0].FilePath)
		assert.Equal(t, "sql_injection", alert.Findings[0].VulnType)
	})

	t.Run("non-2xx status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		err := testNotifier(srv.URL).NotifyOwner(ctx, shared.NewID(), testDecision())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("unreachable webhook is an error", func(t *testing.T) {
		err := testNotifier("http://127.0.0.1:1").NotifyOwner(ctx, shared.NewID(), testDecision())

		assert.Error(t, err)
	})
}
