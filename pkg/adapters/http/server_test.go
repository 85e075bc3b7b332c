package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/speriment"
	sphttp "github.com/aretw0/speriment/pkg/adapters/http"
	"github.com/aretw0/speriment/pkg/adapters/memory"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quiz = `
name: quiz
blocks:
  - pages:
      - text: "2 + 2?"
        options:
          - {text: "4", correct: true, feedback: Yes.}
          - {text: "5", correct: false}
`

func newHandler(t *testing.T, opts ...sphttp.Option) http.Handler {
	t.Helper()
	c, err := speriment.New()
	require.NoError(t, err)
	return sphttp.NewHandler(c, opts...)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCompile(t *testing.T) {
	h := newHandler(t)

	w := do(h, http.MethodPost, "/compile", quiz)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "2", w.Header().Get("X-Speriment-Pages"), "question plus one feedback page")
	assert.Empty(t, w.Header().Get("Location"), "no store configured")

	var art map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &art))
	assert.Contains(t, art, "blocks")
	assert.Equal(t, []any{}, art["exchangeable"])
}

func TestCompile_SeedAndScript(t *testing.T) {
	h := newHandler(t)

	w := do(h, http.MethodPost, "/compile?seed=100&format=script&name=myQuiz", quiz)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/javascript", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "var myQuiz = {"))
	assert.Contains(t, w.Body.String(), `"id": "101"`)
}

func TestCompile_Stores(t *testing.T) {
	store := memory.NewStore()
	h := newHandler(t, sphttp.WithStore(store))

	w := do(h, http.MethodPost, "/compile", quiz)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/artifacts/quiz", w.Header().Get("Location"))

	stored, err := store.Load(context.Background(), "quiz")
	require.NoError(t, err)
	assert.Equal(t, w.Body.Bytes(), stored)

	w = do(h, http.MethodGet, "/artifacts", "")
	assert.JSONEq(t, `["quiz"]`, w.Body.String())

	w = do(h, http.MethodGet, "/artifacts/quiz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, stored, w.Body.Bytes())

	w = do(h, http.MethodGet, "/artifacts/quiz.js?format=script", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "var quiz = "))

	w = do(h, http.MethodDelete, "/artifacts/quiz", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(h, http.MethodGet, "/artifacts/quiz", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompile_Errors(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
		field  string
	}{
		{"malformed yaml", "/compile", "blocks: [", http.StatusBadRequest, ""},
		{"empty body", "/compile", "", http.StatusBadRequest, ""},
		{"bad seed", "/compile?seed=-1", quiz, http.StatusBadRequest, ""},
		{"bad name", "/compile?name=my-quiz", quiz, http.StatusBadRequest, ""},
		{"container type", "/compile", "blocks: [{pages: {text: hi}}]", http.StatusUnprocessableEntity, "pages"},
		{"structural", "/compile", "blocks: [{}]", http.StatusUnprocessableEntity, ""},
		{"table bank", "/compile", "banks: {w: {table: w.csv, column: x}}\nblocks: []", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var p sphttp.Problem
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
			assert.NotEmpty(t, p.Error)
			assert.Equal(t, tt.field, p.Field)
		})
	}
}

func TestValidate(t *testing.T) {
	h := newHandler(t)

	w := do(h, http.MethodPost, "/validate", quiz)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid": true}`, w.Body.String())

	w = do(h, http.MethodPost, "/validate", `
blocks:
  - pages:
      - {text: a, tags: [x]}
      - {text: b}
`)
	assert.Equal(t, http.StatusOK, w.Code)
	var res sphttp.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	require.NotNil(t, res.Problem)
	assert.Equal(t, "page", res.Problem.Kind)
	assert.Equal(t, "tags", res.Problem.Field)

	w = do(h, http.MethodPost, "/validate", "blocks: [")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArtifacts_WithoutStore(t *testing.T) {
	h := newHandler(t)

	w := do(h, http.MethodGet, "/artifacts", "")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(h, http.MethodGet, "/artifacts/anything", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchemaAndInfo(t *testing.T) {
	h := newHandler(t, sphttp.WithMetrics(promhttp.Handler()))

	w := do(h, http.MethodGet, "/schema", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi:")
	assert.Contains(t, w.Body.String(), "Experiment:")

	w = do(h, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())

	w = do(h, http.MethodGet, "/info", "")
	assert.Contains(t, w.Body.String(), strings.TrimSpace(speriment.Version))

	w = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodOptions, "/compile", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics_NotMounted(t *testing.T) {
	h := newHandler(t)
	w := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
