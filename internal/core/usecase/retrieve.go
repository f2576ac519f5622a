package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
)

// RetrieveUseCase runs a classification and fans out to the backing
// stores it selected: named-space vector search with RRF-fused fallback
// space, fact listing for relationship queries, and first/last/recent
// history lookups for temporal queries.
type RetrieveUseCase struct {
	classifier ports.QueryClassifier
	embedder   ports.Embedder
	vectors    ports.VectorSearcher
	facts      ports.FactStore
	history    ports.ConversationHistory

	topK int
	rrfK int
}

func NewRetrieveUseCase(
	classifier ports.QueryClassifier,
	embedder ports.Embedder,
	vectors ports.VectorSearcher,
	facts ports.FactStore,
	history ports.ConversationHistory,
	topK int,
	rrfK int,
) *RetrieveUseCase {
	if topK <= 0 {
		topK = 5
	}
	return &RetrieveUseCase{
		classifier: classifier,
		embedder:   embedder,
		vectors:    vectors,
		facts:      facts,
		history:    history,
		topK:       topK,
		rrfK:       rrfK,
	}
}

func (uc *RetrieveUseCase) Retrieve(
	ctx context.Context,
	query string,
	emotion *domain.EmotionData,
	userID string,
	characterName string,
) (*domain.RetrievalEnvelope, error) {
	classification := uc.classifier.Classify(ctx, query, emotion, userID, characterName)
	envelope := &domain.RetrievalEnvelope{Classification: classification}

	if classification.HasDataSource(domain.SourceVectorStore) {
		memories, err := uc.searchMemories(ctx, query, classification.VectorStrategy, userID)
		if err != nil {
			return nil, fmt.Errorf("vector retrieval: %w", err)
		}
		envelope.Memories = memories
	}

	if classification.HasDataSource(domain.SourceFactStore) {
		facts, err := uc.lookupFacts(ctx, userID, classification.RelationshipType)
		if err != nil {
			return nil, fmt.Errorf("fact retrieval: %w", err)
		}
		envelope.Facts = facts
	}

	if classification.HasDataSource(domain.SourceTimeSeries) {
		history, err := uc.lookupHistory(ctx, userID, classification)
		if err != nil {
			return nil, fmt.Errorf("history retrieval: %w", err)
		}
		envelope.History = history
	}

	return envelope, nil
}

// searchMemories runs the primary space, blends the fallback space via
// RRF, and degrades to the sparse lexical index when no query vector can
// be produced.
func (uc *RetrieveUseCase) searchMemories(
	ctx context.Context,
	query string,
	strategy domain.VectorStrategy,
	userID string,
) ([]domain.MemoryHit, error) {
	queryVector, err := uc.embedQuery(ctx, query)
	if err != nil || len(queryVector) == 0 {
		hits, lexErr := uc.vectors.SearchLexical(ctx, strategy.Primary, query, userID, uc.topK)
		if lexErr != nil {
			return nil, fmt.Errorf("lexical fallback search: %w", lexErr)
		}
		return hits, nil
	}

	primary, err := uc.vectors.Search(ctx, strategy.Primary, queryVector, userID, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("search %s space: %w", strategy.Primary, err)
	}

	fallback, err := uc.vectors.Search(ctx, strategy.Fallback, queryVector, userID, uc.topK)
	if err != nil {
		// The fallback space is best effort; primary results stand alone.
		slog.Warn("fallback_space_search_failed", "space", strategy.Fallback, "error", err)
		fallback = nil
	}

	return trimHits(fuseHitsRRF(primary, fallback, uc.rrfK), uc.topK), nil
}

func (uc *RetrieveUseCase) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if uc.embedder == nil {
		return nil, nil
	}
	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		slog.Warn("embed_query_failed", "error", err)
		return nil, err
	}
	return vector, nil
}

func (uc *RetrieveUseCase) lookupFacts(ctx context.Context, userID, relationshipType string) ([]domain.UserFact, error) {
	var relations []string
	if relationshipType != "" {
		relations = append(relations, relationshipType)
	}
	facts, err := uc.facts.ListFacts(ctx, userID, relations, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	return facts, nil
}

// lookupHistory answers "first"/"last" style temporal queries with the
// boundary message and everything else with the recent window.
func (uc *RetrieveUseCase) lookupHistory(
	ctx context.Context,
	userID string,
	classification domain.ClassificationResult,
) ([]domain.ConversationMessage, error) {
	wantsFirst := false
	for _, kw := range classification.Keywords {
		if kw == "first" {
			wantsFirst = true
		}
	}

	if wantsFirst {
		msg, err := uc.history.First(ctx, userID, "")
		if err != nil {
			return nil, fmt.Errorf("first message: %w", err)
		}
		if msg == nil {
			return nil, nil
		}
		return []domain.ConversationMessage{*msg}, nil
	}

	messages, err := uc.history.Recent(ctx, userID, "", uc.topK)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	return messages, nil
}
