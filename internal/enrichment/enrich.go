package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
	"github.com/whisperengine-ai/whisperengine/internal/infrastructure/chunking"
)

// svoFactConfidenceFloor drops low-tier SVO relations from persistence.
const svoFactConfidenceFloor = 0.6

// memorySplitter bounds the text handed to the embedder. Most chat
// messages fit in one chunk; pasted walls of text get overlapping
// windows so retrieval can still land inside them.
var memorySplitter = chunking.NewSplitter(900, 150)

// EnrichUseCase consumes one conversation batch: mirror analysis, LLM
// fact extraction behind the context prefix, then persistence into the
// fact store, the relationship graph and the vector memory.
type EnrichUseCase struct {
	preprocessor *Preprocessor
	extractor    ports.FactExtractor
	facts        ports.FactStore
	graph        ports.RelationshipGraph
	history      ports.ConversationHistory
	embedder     ports.Embedder
	indexer      ports.MemoryIndexer
}

func NewEnrichUseCase(
	preprocessor *Preprocessor,
	extractor ports.FactExtractor,
	facts ports.FactStore,
	graph ports.RelationshipGraph,
	history ports.ConversationHistory,
	embedder ports.Embedder,
	indexer ports.MemoryIndexer,
) *EnrichUseCase {
	return &EnrichUseCase{
		preprocessor: preprocessor,
		extractor:    extractor,
		facts:        facts,
		graph:        graph,
		history:      history,
		embedder:     embedder,
		indexer:      indexer,
	}
}

// EnrichConversation processes one job. The fact store write is the only
// hard dependency: extractor, graph, history and vector indexing all
// degrade to warnings so a single slow backend cannot wedge the queue.
func (u *EnrichUseCase) EnrichConversation(ctx context.Context, job domain.EnrichmentJob) error {
	if job.UserID == "" || len(job.Messages) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "enrichment.EnrichConversation",
			fmt.Errorf("job needs a user id and messages"))
	}

	signals := u.preprocessor.Analyze(job.Messages)
	prompt := FormatPrefix(signals) + renderTranscript(job.Messages)

	extracted, err := u.extractor.ExtractFacts(ctx, prompt)
	if err != nil {
		slog.Warn("fact_extraction_failed", "user_id", job.UserID, "error", err)
		extracted = nil
	}

	merged := mergeFacts(job, signals.Relationships, extracted)

	var firstErr error
	for i := range merged {
		fact := &merged[i]
		if err := u.facts.UpsertFact(ctx, fact); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("upsert fact %s/%s: %w", fact.Relation, fact.Object, err)
			}
			continue
		}
		if u.graph != nil {
			if err := u.graph.MergeRelation(ctx, *fact); err != nil {
				slog.Warn("graph_merge_failed", "user_id", job.UserID, "relation", fact.Relation, "error", err)
			}
		}
	}

	u.appendHistory(ctx, job)
	u.indexMemories(ctx, job)

	if firstErr != nil {
		return domain.WrapError(domain.ErrTemporary, "enrichment.EnrichConversation", firstErr)
	}
	return nil
}

// mergeFacts combines grammar-derived relations with LLM-extracted ones.
// The grammar side wins on identity collisions: it is deterministic and
// the LLM already saw its output in the prefix.
func mergeFacts(job domain.EnrichmentJob, relations []domain.SVORelationship, extracted []domain.UserFact) []domain.UserFact {
	var out []domain.UserFact
	seen := make(map[string]struct{})

	key := func(subject, relation, object string) string {
		return strings.ToLower(subject) + "\x00" + relation + "\x00" + strings.ToLower(object)
	}

	for _, rel := range relations {
		if rel.Confidence < svoFactConfidenceFloor {
			continue
		}
		label, ok := domain.RelationForVerb(rel.Verb, rel.Negated)
		if !ok {
			continue
		}
		// A flippable label absorbs the negation; only unflippable ones
		// keep the negated marker.
		negated := rel.Negated && !domain.HasInverseRelation(relationBase(rel.Verb))
		k := key(rel.Subject, label, rel.Object)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.UserFact{
			UserID:     job.UserID,
			Character:  job.Character,
			Subject:    rel.Subject,
			Relation:   label,
			Object:     rel.Object,
			Negated:    negated,
			Confidence: rel.Confidence,
			SourceText: rel.SourceSentence,
		})
	}

	for _, fact := range extracted {
		k := key(fact.Subject, fact.Relation, fact.Object)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		fact.UserID = job.UserID
		fact.Character = job.Character
		out = append(out, fact)
	}
	return out
}

// relationBase resolves the un-negated label for a verb, for checking
// whether its family is flippable.
func relationBase(verb string) string {
	base, _ := domain.RelationForVerb(verb, false)
	return base
}

func (u *EnrichUseCase) appendHistory(ctx context.Context, job domain.EnrichmentJob) {
	if u.history == nil {
		return
	}
	for _, msg := range job.Messages {
		if msg.UserID == "" {
			msg.UserID = job.UserID
		}
		if msg.ConversationID == "" {
			msg.ConversationID = job.ConversationID
		}
		if err := u.history.Append(ctx, msg); err != nil {
			slog.Warn("history_append_failed", "user_id", job.UserID, "error", err)
			return
		}
	}
}

// indexMemories embeds each user message into the content space so
// later retrieval can find what was said, not only what was concluded.
func (u *EnrichUseCase) indexMemories(ctx context.Context, job domain.EnrichmentJob) {
	if u.embedder == nil || u.indexer == nil {
		return
	}
	for _, msg := range job.Messages {
		if msg.Role != "user" || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		chunks := memorySplitter.Split(msg.Content)
		for i, chunk := range chunks {
			vector, err := u.embedder.EmbedQuery(ctx, chunk)
			if err != nil {
				slog.Warn("memory_embed_failed", "user_id", job.UserID, "error", err)
				return
			}
			id := msg.ID
			if len(chunks) > 1 && id != "" {
				id = fmt.Sprintf("%s-%d", id, i)
			}
			hit := domain.MemoryHit{
				ID:     id,
				Text:   chunk,
				Space:  domain.SpaceContent,
				UserID: job.UserID,
			}
			if err := u.indexer.IndexMemory(ctx, domain.SpaceContent, hit, vector); err != nil {
				slog.Warn("memory_index_failed", "user_id", job.UserID, "error", err)
				return
			}
		}
	}
}

func renderTranscript(messages []domain.ConversationMessage) string {
	var b strings.Builder
	b.WriteString("\nConversation:\n")
	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		b.WriteString(strings.ToUpper(role[:1]) + role[1:])
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
