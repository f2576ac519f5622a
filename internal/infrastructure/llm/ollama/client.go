// Package ollama provides the embedding and fact-extraction clients over
// a local Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel, embedModel string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithExecutor attaches a resilience executor; calls then retry on
// transient failures and trip the breaker on sustained ones.
func (c *Client) WithExecutor(executor *resilience.Executor) *Client {
	c.executor = executor
	return c
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, fn, classifyOllamaError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.call(ctx, "ollama.embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// FactExtractor turns a context-prefixed conversation transcript into
// structured user facts via JSON-mode generation.
type FactExtractor struct {
	client *Client
}

func NewFactExtractor(client *Client) *FactExtractor {
	return &FactExtractor{client: client}
}

func (f *FactExtractor) ExtractFacts(ctx context.Context, prompt string) ([]domain.UserFact, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, nil
	}

	respText, err := f.client.generateJSON(ctx, buildFactExtractionPrompt(prompt))
	if err != nil {
		return nil, err
	}

	var result struct {
		Facts []struct {
			Subject    string  `json:"subject"`
			Relation   string  `json:"relation"`
			Object     string  `json:"object"`
			Negated    bool    `json:"negated"`
			Confidence float64 `json:"confidence"`
		} `json:"facts"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return nil, fmt.Errorf("parse fact extraction json: %w", err)
	}

	out := make([]domain.UserFact, 0, len(result.Facts))
	for _, raw := range result.Facts {
		relation := strings.ToLower(strings.TrimSpace(raw.Relation))
		object := strings.TrimSpace(raw.Object)
		if relation == "" || object == "" {
			continue
		}
		subject := strings.TrimSpace(raw.Subject)
		if subject == "" {
			subject = "user"
		}
		confidence := raw.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.5
		}
		out = append(out, domain.UserFact{
			Subject:    subject,
			Relation:   relation,
			Object:     object,
			Negated:    raw.Negated,
			Confidence: confidence,
		})
	}
	return out, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	err := c.call(ctx, "ollama.generate", func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, "generate")
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
