package ports

import (
	"context"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

// Annotator is the shared linguistic-model handle: tokenization with POS
// tags, shallow dependency labels, lemmas and (when a vector table is
// loaded) word vectors. Implementations are safe for concurrent use and
// expected to be constructed once per process.
type Annotator interface {
	// Annotate tokenizes and tags text. It never fails for input-data
	// reasons; a degraded annotator still returns surface tokens.
	Annotate(text string) *domain.AnnotatedQuery
	// Lemma returns the dictionary base form of a single word.
	Lemma(word string) string
	// Stem returns the Snowball stem of a single word.
	Stem(word string) string
	// HasWordVectors reports whether token vectors are available.
	HasWordVectors() bool
	// HasParser reports whether POS/dependency annotation is available.
	HasParser() bool
}

// VectorSearcher runs nearest-neighbour search in a named embedding
// space, with a sparse lexical fallback for vectorless operation.
type VectorSearcher interface {
	Search(ctx context.Context, space domain.VectorSpace, queryVector []float32, userID string, limit int) ([]domain.MemoryHit, error)
	SearchLexical(ctx context.Context, space domain.VectorSpace, queryText, userID string, limit int) ([]domain.MemoryHit, error)
}

// MemoryIndexer writes enriched conversation memories into an embedding
// space for later retrieval.
type MemoryIndexer interface {
	IndexMemory(ctx context.Context, space domain.VectorSpace, hit domain.MemoryHit, vector []float32) error
}

// Embedder builds query vectors for the vector searcher.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// FactStore persists and reads structured user facts.
type FactStore interface {
	UpsertFact(ctx context.Context, fact *domain.UserFact) error
	ListFacts(ctx context.Context, userID string, relations []string, limit int) ([]domain.UserFact, error)
}

// RelationshipGraph mirrors SVO-derived relations into a graph store.
type RelationshipGraph interface {
	MergeRelation(ctx context.Context, fact domain.UserFact) error
	Neighbours(ctx context.Context, userID, relation string, limit int) ([]domain.UserFact, error)
}

// ConversationHistory is the time-series store: append-only conversation
// records with time-ordered trend/history queries.
type ConversationHistory interface {
	Append(ctx context.Context, message domain.ConversationMessage) error
	Recent(ctx context.Context, userID, conversationID string, limit int) ([]domain.ConversationMessage, error)
	First(ctx context.Context, userID, conversationID string) (*domain.ConversationMessage, error)
	Last(ctx context.Context, userID, conversationID string) (*domain.ConversationMessage, error)
}

// MessageQueue publishes/consumes enrichment jobs.
type MessageQueue interface {
	PublishEnrichmentJob(ctx context.Context, job domain.EnrichmentJob) error
	SubscribeEnrichmentJobs(ctx context.Context, handler func(context.Context, domain.EnrichmentJob) error) error
}

// FactExtractor turns a context-prefixed conversation transcript into
// structured facts via the LLM.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, prompt string) ([]domain.UserFact, error)
}
