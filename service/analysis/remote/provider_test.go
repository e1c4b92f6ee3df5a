package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/reviewgate/model/artifact"
	"github.com/viant/reviewgate/model/detail"
	"github.com/viant/reviewgate/service/analysis"
)

func TestProvider_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer k-123", r.Header.Get("Authorization"))
		payload := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "scorer-v1", payload["model"])
		assert.Equal(t, "Week 42", payload["title"])
		_, _ = w.Write([]byte(`{"confidence":0.82,"narrative":"solid"}`))
	}))
	defer server.Close()

	provider, err := New(Config{URL: server.URL, Model: "scorer-v1"}, WithAPIKey("k-123"))
	require.NoError(t, err)
	result, err := provider.Analyze(context.Background(), &analysis.Subject{
		ArtifactID: "a1",
		Kind:       artifact.KindWeeklyReport,
		Title:      "Week 42",
		Details:    []*detail.Record{{Kind: detail.KindTask, Title: "t"}},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.82, *result.Confidence)
	assert.Equal(t, "solid", result.Narrative)
}

func TestProvider_AnalyzeWithoutConfidence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"narrative":"model refused to score"}`))
	}))
	defer server.Close()

	provider, err := New(Config{URL: server.URL})
	require.NoError(t, err)
	result, err := provider.Analyze(context.Background(), &analysis.Subject{ArtifactID: "a1", Title: "Week 42"})
	require.NoError(t, err)
	assert.Nil(t, result.Confidence)
	assert.Equal(t, "model refused to score", result.Narrative)
}

func TestProvider_Errors(t *testing.T) {
	type testCase struct {
		description string
		status      int
		body        string
	}
	for _, tc := range []testCase{
		{description: "server error", status: http.StatusBadGateway, body: "upstream timeout"},
		{description: "bad json", status: http.StatusOK, body: "not json"},
		{description: "out of range", status: http.StatusOK, body: `{"confidence":1.5}`},
	} {
		t.Run(tc.description, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()
			provider, err := New(Config{URL: server.URL})
			require.NoError(t, err)
			_, err = provider.Analyze(context.Background(), &analysis.Subject{})
			assert.Error(t, err)
		})
	}
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
