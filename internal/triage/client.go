// Package triage wraps the external symptom classifier. The classifier is
// an opaque, possibly-unavailable collaborator: any failure degrades to a
// safe moderate-urgency fallback instead of blocking the workflow.
package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hospital-access-backend/internal/errs"
)

// Urgency is the classifier's triage label.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyModerate Urgency = "moderate"
	UrgencyLow      Urgency = "low"
)

func (u Urgency) valid() bool {
	switch u {
	case UrgencyCritical, UrgencyUrgent, UrgencyModerate, UrgencyLow:
		return true
	}
	return false
}

// Result is the classifier's assessment of a symptom description.
type Result struct {
	Urgency        Urgency  `json:"urgency"`
	Confidence     float64  `json:"confidence"`
	Recommendation string   `json:"recommendation"`
	Findings       []string `json:"findings"`
	NextSteps      []string `json:"next_steps"`
	// Degraded marks results produced by the local fallback rather than
	// the classifier.
	Degraded bool `json:"degraded,omitempty"`
}

// Classifier classifies free-text symptoms into an urgency label.
type Classifier interface {
	Classify(ctx context.Context, symptoms string) (Result, error)
}

// Fallback is the locally computable default used when the classifier is
// unreachable.
func Fallback() Result {
	return Result{
		Urgency:        UrgencyModerate,
		Confidence:     0,
		Recommendation: "Symptom classifier unavailable; treat as moderate urgency and consult a clinician.",
		Degraded:       true,
	}
}

// HTTPClassifier calls the configured classifier endpoint.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier creates a classifier client for the given URL.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClassifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Symptoms string `json:"symptoms"`
}

// Classify POSTs the symptom text to the classifier. On transport failure,
// a non-200 response, or an unparseable body it returns the fallback result
// together with a DependencyUnavailable error so callers can report the
// degradation while still proceeding.
func (c *HTTPClassifier) Classify(ctx context.Context, symptoms string) (Result, error) {
	if symptoms == "" {
		return Result{}, errs.Validation("symptoms text is required")
	}
	if c.url == "" {
		return Fallback(), errs.DependencyUnavailable("triage classifier not configured", nil)
	}

	body, err := json.Marshal(classifyRequest{Symptoms: symptoms})
	if err != nil {
		return Fallback(), errs.DependencyUnavailable("failed to encode triage request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Fallback(), errs.DependencyUnavailable("failed to build triage request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Fallback(), errs.DependencyUnavailable("triage classifier unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fallback(), errs.DependencyUnavailable(
			fmt.Sprintf("triage classifier returned status %d", resp.StatusCode), nil)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Fallback(), errs.DependencyUnavailable("failed to decode triage response", err)
	}
	if !result.Urgency.valid() {
		return Fallback(), errs.DependencyUnavailable(
			fmt.Sprintf("triage classifier returned unknown urgency %q", result.Urgency), nil)
	}
	return result, nil
}
