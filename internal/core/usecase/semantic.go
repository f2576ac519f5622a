package usecase

import (
	"log/slog"
	"math"
	"strings"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
)

// semanticMatcher decides whether any content token in the query is close
// enough, by cosine similarity, to a member of a keyword category.
type semanticMatcher struct {
	annotator ports.Annotator
	cache     *KeywordCache
}

func newSemanticMatcher(annotator ports.Annotator, cache *KeywordCache) *semanticMatcher {
	return &semanticMatcher{annotator: annotator, cache: cache}
}

// match scans content tokens against single-word category keywords and
// short-circuits on the first pair above threshold. Pairs that already
// match lexically are excluded so the semantic signal is not inflated by
// literal hits. Without word vectors it degrades to substring
// containment and reports no semantic matches.
func (m *semanticMatcher) match(query *domain.AnnotatedQuery, keywords []string, threshold float64) (bool, []domain.SemanticMatch) {
	if query == nil || len(keywords) == 0 {
		return false, nil
	}

	if !m.annotator.HasWordVectors() {
		lowered := strings.ToLower(query.Text)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return true, nil
			}
		}
		return false, nil
	}

	for i := range query.Tokens {
		token := &query.Tokens[i]
		if !token.IsContentToken() || !token.HasVector() {
			continue
		}

		for _, keyword := range keywords {
			kw := strings.ToLower(strings.TrimSpace(keyword))
			if kw == "" || strings.Contains(kw, " ") {
				// Exact matching already covers multi-word phrases.
				continue
			}
			if token.Lower == kw || token.Lemma == kw {
				continue
			}

			cached := m.cache.Resolve(kw)
			if cached == nil || !cached.HasVector() {
				continue
			}

			similarity, ok := cosineSimilarity(token.Vector, cached.Vector)
			if !ok {
				slog.Debug("semantic_similarity_skipped",
					"token", token.Lower,
					"keyword", kw,
				)
				continue
			}

			if similarity >= threshold {
				match := domain.SemanticMatch{
					QueryToken:   token.Lower,
					Keyword:      kw,
					Similarity:   similarity,
					LocalContext: localContext(query, token.Index),
				}
				return true, []domain.SemanticMatch{match}
			}
		}
	}

	return false, nil
}

// cosineSimilarity returns false for zero-length or mismatched vectors
// instead of propagating the failure.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// localContext returns up to two tokens either side of index, for match
// observability.
func localContext(query *domain.AnnotatedQuery, index int) string {
	start := index - 2
	if start < 0 {
		start = 0
	}
	end := index + 3
	if end > len(query.Tokens) {
		end = len(query.Tokens)
	}
	parts := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		parts = append(parts, query.Tokens[i].Text)
	}
	return strings.Join(parts, " ")
}
