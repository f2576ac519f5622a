package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

type fakeRetClassifier struct {
	result domain.ClassificationResult
}

func (f *fakeRetClassifier) Classify(_ context.Context, query string, _ *domain.EmotionData, _, _ string) domain.ClassificationResult {
	out := f.result
	out.QueryText = query
	return out
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

type fakeVectorSearcher struct {
	hits         map[domain.VectorSpace][]domain.MemoryHit
	searchErr    map[domain.VectorSpace]error
	lexicalHits  []domain.MemoryHit
	lexicalErr   error
	searched     []domain.VectorSpace
	lexicalSpace domain.VectorSpace
	lexicalCalls int
}

func (f *fakeVectorSearcher) Search(_ context.Context, space domain.VectorSpace, _ []float32, _ string, _ int) ([]domain.MemoryHit, error) {
	f.searched = append(f.searched, space)
	if err := f.searchErr[space]; err != nil {
		return nil, err
	}
	return f.hits[space], nil
}

func (f *fakeVectorSearcher) SearchLexical(_ context.Context, space domain.VectorSpace, _, _ string, _ int) ([]domain.MemoryHit, error) {
	f.lexicalCalls++
	f.lexicalSpace = space
	return f.lexicalHits, f.lexicalErr
}

type fakeFactStore struct {
	facts     []domain.UserFact
	err       error
	relations []string
	limit     int
}

func (f *fakeFactStore) UpsertFact(context.Context, *domain.UserFact) error { return nil }

func (f *fakeFactStore) ListFacts(_ context.Context, _ string, relations []string, limit int) ([]domain.UserFact, error) {
	f.relations = relations
	f.limit = limit
	return f.facts, f.err
}

type fakeHistory struct {
	first       *domain.ConversationMessage
	recent      []domain.ConversationMessage
	firstCalls  int
	recentCalls int
	err         error
}

func (f *fakeHistory) Append(context.Context, domain.ConversationMessage) error { return nil }

func (f *fakeHistory) Recent(context.Context, string, string, int) ([]domain.ConversationMessage, error) {
	f.recentCalls++
	return f.recent, f.err
}

func (f *fakeHistory) First(context.Context, string, string) (*domain.ConversationMessage, error) {
	f.firstCalls++
	return f.first, f.err
}

func (f *fakeHistory) Last(context.Context, string, string) (*domain.ConversationMessage, error) {
	return nil, nil
}

func TestRetrieveFusesBothSpaces(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		IntentType:     domain.IntentFactualRecall,
		VectorStrategy: domain.VectorStrategy{Primary: domain.SpaceContent, Fallback: domain.SpaceSemantic},
		DataSources:    []domain.DataSource{domain.SourceVectorStore, domain.SourceFactStore},
	}}
	vectors := &fakeVectorSearcher{hits: map[domain.VectorSpace][]domain.MemoryHit{
		domain.SpaceContent:  {{ID: "m1", Text: "loves pizza"}},
		domain.SpaceSemantic: {{ID: "m2", Text: "food concepts"}},
	}}
	facts := &fakeFactStore{facts: []domain.UserFact{{UserID: "u1", Relation: "likes", Object: "pizza"}}}

	uc := NewRetrieveUseCase(classifier, &fakeEmbedder{vector: []float32{0.1, 0.2}}, vectors, facts, &fakeHistory{}, 5, 60)
	envelope, err := uc.Retrieve(context.Background(), "what is my favorite food?", nil, "u1", "elena")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(envelope.Memories) != 2 {
		t.Fatalf("Memories = %+v, want both spaces fused", envelope.Memories)
	}
	if len(vectors.searched) != 2 || vectors.searched[0] != domain.SpaceContent || vectors.searched[1] != domain.SpaceSemantic {
		t.Fatalf("searched spaces = %v, want [content semantic]", vectors.searched)
	}
	if len(envelope.Facts) != 1 || envelope.Facts[0].Object != "pizza" {
		t.Fatalf("Facts = %+v", envelope.Facts)
	}
	if facts.limit != 5 {
		t.Fatalf("fact limit = %d, want topK", facts.limit)
	}
	if envelope.History != nil {
		t.Fatal("time series not requested, History must be empty")
	}
}

func TestRetrieveFiltersFactsByRelationshipType(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		IntentType:       domain.IntentRelationship,
		RelationshipType: domain.RelationDislikes,
		DataSources:      []domain.DataSource{domain.SourceFactStore},
	}}
	facts := &fakeFactStore{}

	uc := NewRetrieveUseCase(classifier, nil, &fakeVectorSearcher{}, facts, &fakeHistory{}, 5, 60)
	if _, err := uc.Retrieve(context.Background(), "I don't like spicy food", nil, "u1", ""); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(facts.relations) != 1 || facts.relations[0] != domain.RelationDislikes {
		t.Fatalf("relations filter = %v, want [dislikes]", facts.relations)
	}
}

func TestRetrieveFirstMessageForTemporalQuery(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		IntentType:  domain.IntentTemporalQuery,
		Keywords:    []string{"when did", "first"},
		DataSources: []domain.DataSource{domain.SourceTimeSeries},
	}}
	history := &fakeHistory{first: &domain.ConversationMessage{
		UserID:    "u1",
		Content:   "hello there",
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}}

	uc := NewRetrieveUseCase(classifier, nil, &fakeVectorSearcher{}, &fakeFactStore{}, history, 5, 60)
	envelope, err := uc.Retrieve(context.Background(), "when did we first talk?", nil, "u1", "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if history.firstCalls != 1 || history.recentCalls != 0 {
		t.Fatalf("calls first=%d recent=%d, want boundary lookup only", history.firstCalls, history.recentCalls)
	}
	if len(envelope.History) != 1 || envelope.History[0].Content != "hello there" {
		t.Fatalf("History = %+v", envelope.History)
	}
}

func TestRetrieveRecentMessagesWithoutFirstKeyword(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		IntentType:  domain.IntentTemporalQuery,
		Keywords:    []string{"lately"},
		DataSources: []domain.DataSource{domain.SourceTimeSeries},
	}}
	history := &fakeHistory{recent: []domain.ConversationMessage{
		{Content: "a"}, {Content: "b"},
	}}

	uc := NewRetrieveUseCase(classifier, nil, &fakeVectorSearcher{}, &fakeFactStore{}, history, 5, 60)
	envelope, err := uc.Retrieve(context.Background(), "how have I been lately?", nil, "u1", "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if history.recentCalls != 1 || history.firstCalls != 0 {
		t.Fatalf("calls first=%d recent=%d, want recent window", history.firstCalls, history.recentCalls)
	}
	if len(envelope.History) != 2 {
		t.Fatalf("History = %+v", envelope.History)
	}
}

func TestRetrieveLexicalFallbackWhenEmbedFails(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		IntentType:     domain.IntentFactualRecall,
		VectorStrategy: domain.VectorStrategy{Primary: domain.SpaceContent, Fallback: domain.SpaceSemantic},
		DataSources:    []domain.DataSource{domain.SourceVectorStore},
	}}
	vectors := &fakeVectorSearcher{lexicalHits: []domain.MemoryHit{{ID: "m1"}}}
	embedder := &fakeEmbedder{err: errors.New("ollama down")}

	uc := NewRetrieveUseCase(classifier, embedder, vectors, &fakeFactStore{}, &fakeHistory{}, 5, 60)
	envelope, err := uc.Retrieve(context.Background(), "what is my favorite food?", nil, "u1", "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if vectors.lexicalCalls != 1 || vectors.lexicalSpace != domain.SpaceContent {
		t.Fatalf("lexical calls=%d space=%q, want sparse search on primary", vectors.lexicalCalls, vectors.lexicalSpace)
	}
	if len(vectors.searched) != 0 {
		t.Fatal("dense search must be skipped without a query vector")
	}
	if len(envelope.Memories) != 1 {
		t.Fatalf("Memories = %+v", envelope.Memories)
	}
}

func TestRetrieveNilEmbedderUsesLexical(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		VectorStrategy: domain.VectorStrategy{Primary: domain.SpaceContent, Fallback: domain.SpaceSemantic},
		DataSources:    []domain.DataSource{domain.SourceVectorStore},
	}}
	vectors := &fakeVectorSearcher{lexicalHits: []domain.MemoryHit{{ID: "m1"}}}

	uc := NewRetrieveUseCase(classifier, nil, vectors, &fakeFactStore{}, &fakeHistory{}, 5, 60)
	envelope, err := uc.Retrieve(context.Background(), "hello", nil, "u1", "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if vectors.lexicalCalls != 1 || len(envelope.Memories) != 1 {
		t.Fatalf("lexicalCalls=%d Memories=%+v", vectors.lexicalCalls, envelope.Memories)
	}
}

func TestRetrieveToleratesFallbackSpaceFailure(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		VectorStrategy: domain.VectorStrategy{Primary: domain.SpaceEmotion, Fallback: domain.SpaceContent},
		DataSources:    []domain.DataSource{domain.SourceVectorStore},
	}}
	vectors := &fakeVectorSearcher{
		hits:      map[domain.VectorSpace][]domain.MemoryHit{domain.SpaceEmotion: {{ID: "m1"}}},
		searchErr: map[domain.VectorSpace]error{domain.SpaceContent: errors.New("collection missing")},
	}

	uc := NewRetrieveUseCase(classifier, &fakeEmbedder{vector: []float32{1}}, vectors, &fakeFactStore{}, &fakeHistory{}, 5, 60)
	envelope, err := uc.Retrieve(context.Background(), "I feel sad", nil, "u1", "")
	if err != nil {
		t.Fatalf("fallback failure must not fail retrieval: %v", err)
	}
	if len(envelope.Memories) != 1 || envelope.Memories[0].ID != "m1" {
		t.Fatalf("Memories = %+v, want primary hits alone", envelope.Memories)
	}
}

func TestRetrievePrimarySpaceFailureIsFatal(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		VectorStrategy: domain.VectorStrategy{Primary: domain.SpaceContent, Fallback: domain.SpaceSemantic},
		DataSources:    []domain.DataSource{domain.SourceVectorStore},
	}}
	vectors := &fakeVectorSearcher{
		searchErr: map[domain.VectorSpace]error{domain.SpaceContent: errors.New("qdrant down")},
	}

	uc := NewRetrieveUseCase(classifier, &fakeEmbedder{vector: []float32{1}}, vectors, &fakeFactStore{}, &fakeHistory{}, 5, 60)
	if _, err := uc.Retrieve(context.Background(), "hello", nil, "u1", ""); err == nil {
		t.Fatal("primary space failure must surface")
	}
}

func TestRetrieveTrimsToTopK(t *testing.T) {
	classifier := &fakeRetClassifier{result: domain.ClassificationResult{
		VectorStrategy: domain.VectorStrategy{Primary: domain.SpaceContent, Fallback: domain.SpaceSemantic},
		DataSources:    []domain.DataSource{domain.SourceVectorStore},
	}}
	vectors := &fakeVectorSearcher{hits: map[domain.VectorSpace][]domain.MemoryHit{
		domain.SpaceContent:  {{ID: "a"}, {ID: "b"}},
		domain.SpaceSemantic: {{ID: "c"}, {ID: "d"}},
	}}

	uc := NewRetrieveUseCase(classifier, &fakeEmbedder{vector: []float32{1}}, vectors, &fakeFactStore{}, &fakeHistory{}, 2, 60)
	envelope, err := uc.Retrieve(context.Background(), "hello", nil, "u1", "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(envelope.Memories) != 2 {
		t.Fatalf("Memories = %+v, want trimmed to topK", envelope.Memories)
	}
}
