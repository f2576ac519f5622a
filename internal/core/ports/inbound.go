package ports

import (
	"context"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

// QueryClassifier is the inbound contract for per-query classification.
// Implementations always return a well-formed result; input problems
// degrade toward a low-confidence conversational classification instead
// of raising.
type QueryClassifier interface {
	Classify(ctx context.Context, query string, emotion *domain.EmotionData, userID, characterName string) domain.ClassificationResult
}

// MemoryRetriever is the inbound contract for classification-driven
// retrieval across the backing stores.
type MemoryRetriever interface {
	Retrieve(ctx context.Context, query string, emotion *domain.EmotionData, userID, characterName string) (*domain.RetrievalEnvelope, error)
}

// ConversationEnricher is the inbound contract for the asynchronous
// fact/preference extraction worker.
type ConversationEnricher interface {
	EnrichConversation(ctx context.Context, job domain.EnrichmentJob) error
}
