package shannon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegate/api/internal/config"
	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/domain/vulnerability"
	"github.com/codegate/api/pkg/logger"
)

func testClient(baseURL string, enabled bool) *Client {
	return NewClient(config.ShannonConfig{
		Enabled:       enabled,
		BaseURL:       baseURL,
		APIKey:        "test-key",
		RatePerSecond: 100,
		RateBurst:     100,
	}, logger.NewNop())
}

func testFiles() []scan.SourceFile {
	return []scan.SourceFile{{Path: "src/db.js", Content: "db.query(x)", Language: "javascript"}}
}

func TestClient_Scan(t *testing.T) {
	ctx := context.Background()

	t.Run("parses findings and normalizes severity", func(t *testing.T) {
		var gotAuth string
		var gotBody scanRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/v1/scan", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"findings": [
				{"category": "injection", "file_path": "src/db.js", "line": 12, "severity": "HIGH", "confidence": 0.9, "details": "exploit chain verified"},
				{"category": "web_exposure", "file_path": "src/api.js", "line": 3, "severity": "weird", "confidence": 0.4, "details": ""}
			]}`))
		}))
		defer srv.Close()

		client := testClient(srv.URL, true)
		report := client.Scan(ctx, shared.NewID(), testFiles(), []string{"injection"})

		require.NotNil(t, report)
		require.Len(t, report.Findings, 2)
		assert.Equal(t, vulnerability.SeverityHigh, report.Findings[0].Severity)
		assert.Equal(t, 12, report.Findings[0].Line)
		assert.Equal(t, vulnerability.SeverityInfo, report.Findings[1].Severity)

		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, []string{"injection"}, gotBody.Categories)
		require.Len(t, gotBody.Files, 1)
		assert.Equal(t, "src/db.js", gotBody.Files[0].Path)
	})

	t.Run("disabled returns nil without calling", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		client := testClient(srv.URL, false)
		report := client.Scan(ctx, shared.NewID(), testFiles(), nil)

		assert.Nil(t, report)
		assert.False(t, called)
	})

	t.Run("non-2xx returns nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := testClient(srv.URL, true)
		assert.Nil(t, client.Scan(ctx, shared.NewID(), testFiles(), nil))
	})

	t.Run("undecodable body returns nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>gateway error</html>"))
		}))
		defer srv.Close()

		client := testClient(srv.URL, true)
		assert.Nil(t, client.Scan(ctx, shared.NewID(), testFiles(), nil))
	})

	t.Run("unreachable service returns nil", func(t *testing.T) {
		client := testClient("http://127.0.0.1:1", true)
		assert.Nil(t, client.Scan(ctx, shared.NewID(), testFiles(), nil))
	})
}

func TestClient_HealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/healthz", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		assert.True(t, testClient(srv.URL, true).HealthCheck(ctx))
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		assert.False(t, testClient(srv.URL, true).HealthCheck(ctx))
	})

	t.Run("disabled is never healthy", func(t *testing.T) {
		assert.False(t, testClient("http://127.0.0.1:1", false).HealthCheck(ctx))
	})
}
