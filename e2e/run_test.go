package e2e

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

const validStartBody = `{
	"contentId": "video-abc",
	"transcript": [
		{"text": "welcome to the course", "start": 0, "duration": 4},
		{"text": "today we cover goroutines", "start": 4, "duration": 5},
		{"text": "channels come next", "start": 9, "duration": 5},
		{"text": "that wraps it up", "start": 14, "duration": 3}
	],
	"numChunks": 2
}`

func TestRunStart_Accepted(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/run/start", validStartBody)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusAccepted)

	result := parseJSON(t, resp)
	if result["runId"] == nil || result["runId"] == "" {
		t.Error("expected 'runId' in response")
	}
	if result["status"] != "queued" {
		t.Errorf("expected status 'queued', got %v", result["status"])
	}
}

func TestRunStart_MissingContentID(t *testing.T) {
	ta := setupApp(t)

	body := `{
		"transcript": [{"text": "hello", "start": 0, "duration": 1}]
	}`

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/run/start", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestRunStart_EmptyTranscript(t *testing.T) {
	ta := setupApp(t)

	body := `{
		"contentId": "video-abc",
		"transcript": []
	}`

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/run/start", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestRunStart_InvalidProvider(t *testing.T) {
	ta := setupApp(t)

	body := `{
		"contentId": "video-abc",
		"transcript": [{"text": "hello", "start": 0, "duration": 1}],
		"provider": "openai"
	}`

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/run/start", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusBadRequest)
}

func TestRunStatus_AfterStart(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/run/start", validStartBody)
	if err != nil {
		t.Fatalf("start request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	runID := parseJSON(t, resp)["runId"].(string)

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/run/status/"+runID, "")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["runId"] != runID {
		t.Errorf("expected runId %s, got %v", runID, result["runId"])
	}
	if result["status"] != "queued" {
		t.Errorf("expected status 'queued', got %v", result["status"])
	}
}

func TestRunStatus_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/run/status/"+uuid.New().String(), "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}

func TestRunResult_NotCompleted(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/run/start", validStartBody)
	if err != nil {
		t.Fatalf("start request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	runID := parseJSON(t, resp)["runId"].(string)

	// No worker is running in tests, so the run can never complete.
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/run/result/"+runID, "")
	if err != nil {
		t.Fatalf("result request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestRunCancel_Queued(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/run/start", validStartBody)
	if err != nil {
		t.Fatalf("start request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)

	runID := parseJSON(t, resp)["runId"].(string)

	resp, err = doAuthRequest(t, ta.app, http.MethodPost, "/api/run/cancel/"+runID, "")
	if err != nil {
		t.Fatalf("cancel request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["success"] != true {
		t.Errorf("expected success true, got %v", result["success"])
	}
	if result["status"] != "canceled" {
		t.Errorf("expected status 'canceled', got %v", result["status"])
	}

	// Cancel is terminal; a second cancel must be rejected.
	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/run/status/"+runID, "")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	result = parseJSON(t, resp)
	if result["status"] != "canceled" {
		t.Errorf("expected status 'canceled' after cancel, got %v", result["status"])
	}
}

func TestRunCancel_NotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, fmt.Sprintf("/api/run/cancel/%s", uuid.New().String()), "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)
}
