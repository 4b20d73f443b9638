package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strand/loom/internal/config"
)

func testRouter() http.Handler {
	return New(config.DefaultConfig(), zap.NewNop()).Router()
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestCompile_ReturnsDocumentAndLint(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/compile", map[string]string{
		"source": "a -> b\n", "filename": "x.strand",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Document struct {
			Nodes []json.RawMessage `json:"nodes"`
		} `json:"document"`
		Lint struct {
			Errors int `json:"errors"`
		} `json:"lint"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Document.Nodes, 2)
	assert.Zero(t, body.Lint.Errors)
}

func TestCompile_ParseErrorIs422(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/compile", map[string]string{
		"source": "\ttabbed line\n",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestCompile_BadBodyIs400(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compile", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLintEndpoint(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/lint", map[string]string{
		"source": "speed >< quality\n",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Errors int `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Errors, "unlabeled tension is a lint error")
}

func TestGraphEndpoint(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/graph", map[string]string{
		"source": "a -> b\n",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Nodes []struct {
			Type string `json:"type"`
		} `json:"nodes"`
		Edges []struct {
			Type string `json:"type"`
		} `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Nodes, 2)
	require.Len(t, body.Edges, 1)
	assert.Equal(t, "causal", body.Edges[0].Type)
}

func TestQueryWhy(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/query/why", map[string]any{
		"source": "A <- B\nB <- C\n",
		"node":   "A",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		RootCause struct {
			Content string `json:"content"`
		} `json:"root_cause"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "C", body.RootCause.Content)
}

func TestQueryBlocked(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/query/blocked", map[string]any{
		"source": "!! waiting on vendor [blocked(reason: \"contract\", since: \"2026-08-18\")]\n",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "waiting on vendor")
}

func TestQueryUnknownNodeIs404(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/query/why", map[string]any{
		"source": "A\n",
		"node":   "absent",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryAmbiguousIs422(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/query/why", map[string]any{
		"source": "cache reads\ncache writes\n",
		"node":   "cache",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQueryUnknownOpIs400(t *testing.T) {
	rec := postJSON(t, testRouter(), "/api/v1/query/nonsense", map[string]any{
		"source": "A\n",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
