package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/observability/metrics"
)

type fakeClassifier struct {
	result domain.ClassificationResult
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, _ *domain.EmotionData, _, _ string) domain.ClassificationResult {
	f.calls++
	return f.result
}

type fakeRetriever struct {
	envelope *domain.RetrievalEnvelope
	err      error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ *domain.EmotionData, _, _ string) (*domain.RetrievalEnvelope, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.envelope, nil
}

type fakeQueue struct {
	published []domain.EnrichmentJob
	err       error
}

func (f *fakeQueue) PublishEnrichmentJob(_ context.Context, job domain.EnrichmentJob) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

func (f *fakeQueue) SubscribeEnrichmentJobs(_ context.Context, _ func(context.Context, domain.EnrichmentJob) error) error {
	return nil
}

func newTestRouter(classifier *fakeClassifier, retriever *fakeRetriever, queue *fakeQueue) *Router {
	return NewRouter(
		classifier,
		retriever,
		queue,
		metrics.NewHTTPMetrics("test"),
		RouterOptions{},
	)
}

func TestClassifyEndpoint(t *testing.T) {
	classifier := &fakeClassifier{
		result: domain.ClassificationResult{
			IntentType:       domain.IntentFactualRecall,
			IntentConfidence: 0.9,
		},
	}
	router := newTestRouter(classifier, &fakeRetriever{}, &fakeQueue{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	body := `{"query":"what food do I like","user_id":"u1"}`
	resp, err := http.Post(server.URL+"/v1/classify", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post classify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1", classifier.calls)
	}

	var result domain.ClassificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.IntentType != domain.IntentFactualRecall {
		t.Fatalf("intent = %q, want %q", result.IntentType, domain.IntentFactualRecall)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header")
	}
}

func TestClassifyEndpointValidation(t *testing.T) {
	router := newTestRouter(&fakeClassifier{}, &fakeRetriever{}, &fakeQueue{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	cases := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing query", body: `{"user_id":"u1"}`},
		{name: "missing user", body: `{"query":"hello"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/v1/classify", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("post classify: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}

			var payload map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if payload["error"] == "" {
				t.Fatal("expected error message in body")
			}
		})
	}
}

func TestClassifyEndpointMethodNotAllowed(t *testing.T) {
	router := newTestRouter(&fakeClassifier{}, &fakeRetriever{}, &fakeQueue{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/classify")
	if err != nil {
		t.Fatalf("get classify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRetrieveEndpoint(t *testing.T) {
	retriever := &fakeRetriever{
		envelope: &domain.RetrievalEnvelope{
			Classification: domain.ClassificationResult{
				IntentType: domain.IntentTemporalQuery,
			},
			Memories: []domain.MemoryHit{
				{ID: "m1", Text: "we talked about sushi"},
			},
		},
	}
	router := newTestRouter(&fakeClassifier{}, retriever, &fakeQueue{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	body := `{"query":"when did we first talk","user_id":"u1"}`
	resp, err := http.Post(server.URL+"/v1/retrieve", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post retrieve: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope domain.RetrievalEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Classification.IntentType != domain.IntentTemporalQuery {
		t.Fatalf("intent = %q, want %q", envelope.Classification.IntentType, domain.IntentTemporalQuery)
	}
	if len(envelope.Memories) != 1 || envelope.Memories[0].ID != "m1" {
		t.Fatalf("unexpected memories: %+v", envelope.Memories)
	}
}

func TestRetrieveEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid input", err: domain.ErrInvalidInput, wantStatus: http.StatusBadRequest},
		{name: "not found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "temporary", err: domain.ErrTemporary, wantStatus: http.StatusServiceUnavailable},
		{name: "unavailable", err: domain.ErrUnavailable, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeClassifier{}, &fakeRetriever{err: tc.err}, &fakeQueue{})
			server := httptest.NewServer(router.Handler())
			defer server.Close()

			body := `{"query":"anything","user_id":"u1"}`
			resp, err := http.Post(server.URL+"/v1/retrieve", "application/json", strings.NewReader(body))
			if err != nil {
				t.Fatalf("post retrieve: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}

func TestEnrichEndpointQueuesJob(t *testing.T) {
	queue := &fakeQueue{}
	router := newTestRouter(&fakeClassifier{}, &fakeRetriever{}, queue)
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	job := domain.EnrichmentJob{
		UserID:         "u1",
		ConversationID: "c1",
		Messages: []domain.ConversationMessage{
			{Role: "user", Content: "I love hiking"},
		},
	}
	payload, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}

	resp, err := http.Post(server.URL+"/v1/enrich", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post enrich: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if len(queue.published) != 1 {
		t.Fatalf("published jobs = %d, want 1", len(queue.published))
	}
	if queue.published[0].UserID != "u1" {
		t.Fatalf("published user = %q, want u1", queue.published[0].UserID)
	}
}

func TestEnrichEndpointValidation(t *testing.T) {
	router := newTestRouter(&fakeClassifier{}, &fakeRetriever{}, &fakeQueue{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/enrich", "application/json", strings.NewReader(`{"user_id":"u1"}`))
	if err != nil {
		t.Fatalf("post enrich: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeClassifier{}, &fakeRetriever{}, &fakeQueue{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&fakeClassifier{}, &fakeRetriever{}, &fakeQueue{})
	server := httptest.NewServer(router.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
