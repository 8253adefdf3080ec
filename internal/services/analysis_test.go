package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firesafety-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func geminiServer(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))

		var req geminiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiAnalyzer_AnalyzeText(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, "```json\n{\"analysis\":\"Gauge in red zone\",\"severity\":\"high\",\"actions\":[\"Recharge\"]}\n```")
	g := NewGeminiAnalyzer(srv.URL, "k", "test-model")

	a, err := g.AnalyzeText(context.Background(), "needle low", map[string]*bool{"Pressure": boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Gauge in red zone", a.Analysis)
	assert.Equal(t, models.SeverityHigh, a.Severity)
	assert.Equal(t, []string{"Recharge"}, a.Actions)
}

func TestGeminiAnalyzer_ErrorStatus(t *testing.T) {
	srv := geminiServer(t, http.StatusTooManyRequests, "")
	g := NewGeminiAnalyzer(srv.URL, "k", "test-model")

	_, err := g.AnalyzeText(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestGeminiAnalyzer_NoKey(t *testing.T) {
	g := NewGeminiAnalyzer("http://127.0.0.1:1", "", "m")
	_, err := g.AnalyzeText(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
}

type failingAnalyzer struct{}

func (failingAnalyzer) AnalyzeText(context.Context, string, map[string]*bool) (*Analysis, error) {
	return nil, errors.New("boom")
}

func (failingAnalyzer) AnalyzeImage(context.Context, []byte) (*Analysis, error) {
	return nil, errors.New("boom")
}

func TestWithFallback(t *testing.T) {
	ctx := context.Background()
	for _, inner := range []AnalysisService{nil, failingAnalyzer{}} {
		svc := WithFallback(inner)

		a, err := svc.AnalyzeText(ctx, "notes", nil)
		require.NoError(t, err)
		assert.Equal(t, FallbackAnalysis(), a)
		assert.Equal(t, models.SeverityLow, a.Severity)

		img, err := svc.AnalyzeImage(ctx, []byte{1, 2, 3})
		assert.NoError(t, err)
		assert.Nil(t, img)
	}
}

func TestDescribeChecks(t *testing.T) {
	got := describeChecks(map[string]*bool{"b": nil, "a": boolPtr(true), "c": boolPtr(false)})
	assert.Equal(t, "- a: pass\n- b: not checked\n- c: FAIL\n", got)
}
