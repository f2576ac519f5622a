// Package qdrant implements the named-space memory store over the Qdrant
// HTTP API. Each embedding space (content, emotion, semantic) maps to its
// own collection carrying a dense vector plus a sparse lexical vector for
// vectorless fallback search.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
)

type Store struct {
	baseURL     string
	collections map[domain.VectorSpace]string
	httpClient  *http.Client

	ensureMu sync.Mutex
	ensured  map[string]int
}

func New(baseURL string, collections map[domain.VectorSpace]string) *Store {
	return &Store{
		baseURL:     strings.TrimRight(baseURL, "/"),
		collections: collections,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		ensured:     make(map[string]int),
	}
}

func (s *Store) collection(space domain.VectorSpace) (string, error) {
	col, ok := s.collections[space]
	if !ok || col == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "qdrant.collection",
			fmt.Errorf("no collection configured for space %q", space))
	}
	return col, nil
}

// IndexMemory upserts one memory into the collection of the given space,
// writing both the dense vector and the sparse lexical encoding of the
// text so degraded retrieval stays possible.
func (s *Store) IndexMemory(ctx context.Context, space domain.VectorSpace, hit domain.MemoryHit, vector []float32) error {
	if len(vector) == 0 {
		return nil
	}
	col, err := s.collection(space)
	if err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, col, len(vector)); err != nil {
		return err
	}

	// Point IDs must be numeric or UUID. Arbitrary caller IDs map to a
	// stable UUID so re-indexing the same memory overwrites in place.
	id := hit.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, parseErr := uuid.Parse(id); parseErr != nil {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
	}
	created := hit.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	body, err := json.Marshal(map[string]any{
		"points": []map[string]any{
			{
				"id": id,
				"vector": map[string]any{
					denseVectorName:  vector,
					sparseVectorName: encodeSparseMemory(hit.Text),
				},
				"payload": map[string]any{
					"memory_id":  id,
					"user_id":    hit.UserID,
					"text":       hit.Text,
					"space":      string(space),
					"created_at": created.Format(time.RFC3339),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal memory upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.baseURL, col)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create memory upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrUnavailable, "qdrant.IndexMemory", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("memory upsert status: %s: %s", resp.Status, readErrorBody(resp.Body))
	}
	return nil
}

// Search runs dense nearest-neighbour search in the named space, scoped
// to one user.
func (s *Store) Search(
	ctx context.Context,
	space domain.VectorSpace,
	queryVector []float32,
	userID string,
	limit int,
) ([]domain.MemoryHit, error) {
	if len(queryVector) == 0 || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	query := map[string]any{
		"query": queryVector,
		"using": denseVectorName,
	}
	return s.query(ctx, space, query, userID, limit)
}

// SearchLexical runs sparse term-overlap search in the named space. It
// needs no embedding and is the fallback when the embedder is down.
func (s *Store) SearchLexical(
	ctx context.Context,
	space domain.VectorSpace,
	queryText, userID string,
	limit int,
) ([]domain.MemoryHit, error) {
	if strings.TrimSpace(queryText) == "" || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	sparse := encodeSparseMemory(queryText)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}
	query := map[string]any{
		"query": sparse,
		"using": sparseVectorName,
	}
	return s.query(ctx, space, query, userID, limit)
}

func (s *Store) query(
	ctx context.Context,
	space domain.VectorSpace,
	query map[string]any,
	userID string,
	limit int,
) ([]domain.MemoryHit, error) {
	col, err := s.collection(space)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	query["limit"] = limit
	query["with_payload"] = true
	query["filter"] = map[string]any{
		"must": []map[string]any{
			{
				"key":   "user_id",
				"match": map[string]any{"value": userID},
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal memory query body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", s.baseURL, col)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create memory query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "qdrant.Search", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("memory query status: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var queryResp struct {
		Result struct {
			Points []struct {
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode memory query response: %w", err)
	}

	out := make([]domain.MemoryHit, 0, len(queryResp.Result.Points))
	for _, p := range queryResp.Result.Points {
		hit := domain.MemoryHit{
			ID:     getStringPayload(p.Payload, "memory_id"),
			Text:   getStringPayload(p.Payload, "text"),
			Space:  space,
			Score:  p.Score,
			UserID: getStringPayload(p.Payload, "user_id"),
		}
		if raw := getStringPayload(p.Payload, "created_at"); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				hit.Created = ts
			}
		}
		out = append(out, hit)
	}
	return out, nil
}

func (s *Store) ensureCollection(ctx context.Context, col string, vectorSize int) error {
	s.ensureMu.Lock()
	if size, ok := s.ensured[col]; ok && size == vectorSize {
		s.ensureMu.Unlock()
		return nil
	}
	s.ensureMu.Unlock()

	body, err := json.Marshal(map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal ensure collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", s.baseURL, col)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create ensure collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrUnavailable, "qdrant.ensureCollection", err)
	}
	defer resp.Body.Close()
	// 200/201 for create, 409 if the collection already exists.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("ensure collection status: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	s.ensureMu.Lock()
	s.ensured[col] = vectorSize
	s.ensureMu.Unlock()
	return nil
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(body))
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
