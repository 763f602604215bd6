package triage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-access-backend/internal/errs"
)

func TestClassifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "chest pain and shortness of breath", req.Symptoms)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Result{
			Urgency:        UrgencyCritical,
			Confidence:     0.93,
			Recommendation: "Call an ambulance immediately",
			Findings:       []string{"possible cardiac event"},
		})
	}))
	defer server.Close()

	client := NewHTTPClassifier(server.URL, 2*time.Second)
	result, err := client.Classify(context.Background(), "chest pain and shortness of breath")
	require.NoError(t, err)
	assert.Equal(t, UrgencyCritical, result.Urgency)
	assert.InDelta(t, 0.93, result.Confidence, 1e-9)
	assert.False(t, result.Degraded)
}

func TestClassifyFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClassifier(server.URL, 2*time.Second)
	result, err := client.Classify(context.Background(), "mild headache")
	assert.True(t, errs.Is(err, errs.KindDependencyUnavailable))
	assert.Equal(t, UrgencyModerate, result.Urgency)
	assert.True(t, result.Degraded)
}

func TestClassifyFallsBackOnUnreachableEndpoint(t *testing.T) {
	// Reserve a port and close it so the connection is refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewHTTPClassifier(url, time.Second)
	result, err := client.Classify(context.Background(), "fever")
	assert.True(t, errs.Is(err, errs.KindDependencyUnavailable))
	assert.True(t, result.Degraded)
}

func TestClassifyFallsBackOnGarbageResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewHTTPClassifier(server.URL, 2*time.Second)
	result, err := client.Classify(context.Background(), "fever")
	assert.True(t, errs.Is(err, errs.KindDependencyUnavailable))
	assert.Equal(t, UrgencyModerate, result.Urgency)
}

func TestClassifyRejectsUnknownUrgency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"urgency": "apocalyptic"})
	}))
	defer server.Close()

	client := NewHTTPClassifier(server.URL, 2*time.Second)
	result, err := client.Classify(context.Background(), "fever")
	assert.True(t, errs.Is(err, errs.KindDependencyUnavailable))
	assert.True(t, result.Degraded)
}

func TestClassifyValidation(t *testing.T) {
	client := NewHTTPClassifier("http://localhost:1", time.Second)
	_, err := client.Classify(context.Background(), "")
	assert.True(t, errs.Is(err, errs.KindValidation))

	// An unconfigured classifier degrades instead of failing hard.
	unconfigured := NewHTTPClassifier("", time.Second)
	result, err := unconfigured.Classify(context.Background(), "fever")
	assert.True(t, errs.Is(err, errs.KindDependencyUnavailable))
	assert.True(t, result.Degraded)
}
