package usecase

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newTestClassifier(annotator *fakeAnnotator) *ClassifyUseCase {
	return NewClassifyUseCase(annotator, nil, DefaultTuning())
}

func hasSource(result domain.ClassificationResult, source domain.DataSource) bool {
	for _, s := range result.DataSources {
		if s == source {
			return true
		}
	}
	return false
}

func TestClassifyPreferenceQuestion(t *testing.T) {
	annotator := newFakeAnnotator().add(favoriteFoodQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "What is my favorite food?", nil, "u1", "")

	if result.IntentType != domain.IntentFactualRecall {
		t.Fatalf("intent = %q, want factual_recall", result.IntentType)
	}
	if !result.Sophistication.IsPreference {
		t.Fatal("expected preference question")
	}
	// Base confidence plus the preference boost.
	if !approx(result.IntentConfidence, 0.75) {
		t.Fatalf("confidence = %v, want 0.75", result.IntentConfidence)
	}
	if !hasSource(result, domain.SourceFactStore) {
		t.Fatal("preference question must force the fact store")
	}
	if !hasSource(result, domain.SourceVectorStore) {
		t.Fatal("vector store must always be selected")
	}
}

func TestClassifyTemporalQuestion(t *testing.T) {
	annotator := newFakeAnnotator().add(firstTalkQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "When did we first talk?", nil, "u1", "")

	if result.IntentType != domain.IntentTemporalQuery {
		t.Fatalf("intent = %q, want temporal_query", result.IntentType)
	}
	if !hasSource(result, domain.SourceTimeSeries) {
		t.Fatal("temporal question must select the time-series store")
	}

	found := false
	for _, kw := range result.Keywords {
		if kw == "first" {
			found = true
		}
	}
	if !found {
		t.Fatalf("keywords %v should include \"first\"", result.Keywords)
	}
}

func TestClassifyEmotionalQuestion(t *testing.T) {
	annotator := newFakeAnnotator().add(feelSadQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "I feel so sad", nil, "u1", "")

	if result.IntentType != domain.IntentEmotionalSupport {
		t.Fatalf("intent = %q, want emotional_support", result.IntentType)
	}
	if !approx(result.IntentConfidence, 0.6) {
		t.Fatalf("confidence = %v, want 0.6 for a single source", result.IntentConfidence)
	}
}

func TestClassifyEmotionalSignalAgreement(t *testing.T) {
	annotator := newFakeAnnotator().add(feelSadQuery())
	uc := newTestClassifier(annotator)

	emotion := &domain.EmotionData{PrimaryEmotion: "sadness", Intensity: 0.9}
	result := uc.Classify(context.Background(), "I feel so sad", emotion, "u1", "")

	if result.IntentType != domain.IntentEmotionalSupport {
		t.Fatalf("intent = %q, want emotional_support", result.IntentType)
	}
	// Keyword hit plus upstream emotion model: two agreeing sources.
	if !approx(result.IntentConfidence, 0.75) {
		t.Fatalf("confidence = %v, want 0.75", result.IntentConfidence)
	}
}

func TestClassifyRelationshipKeywords(t *testing.T) {
	annotator := newFakeAnnotator().add(brotherQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "Tell me about my brother", nil, "u1", "")

	if result.IntentType != domain.IntentRelationship {
		t.Fatalf("intent = %q, want relationship_query", result.IntentType)
	}
	if !hasSource(result, domain.SourceFactStore) {
		t.Fatal("relationship question must select the fact store")
	}
}

func TestClassifyNegatedPreference(t *testing.T) {
	annotator := newFakeAnnotator().add(negatedPreferenceQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "I do n't like spicy food", nil, "u1", "")

	if result.IntentType != domain.IntentRelationship {
		t.Fatalf("intent = %q, want relationship_query", result.IntentType)
	}
	if !result.HasNegation {
		t.Fatal("expected negation flag")
	}
	// Negating "like" flips the stored relation.
	if result.RelationshipType != domain.RelationDislikes {
		t.Fatalf("relationship type = %q, want dislikes", result.RelationshipType)
	}
	if len(result.MatchedAdvancedPatterns[domain.PatternNegatedPreference]) != 1 {
		t.Fatal("expected one negated-preference pattern match")
	}
	if len(result.SVORelationships) != 1 {
		t.Fatalf("svo relationships = %d, want 1", len(result.SVORelationships))
	}
	svo := result.SVORelationships[0]
	if svo.Subject != "I" || svo.Verb != "like" || svo.Object != "food" || !svo.Negated {
		t.Fatalf("unexpected svo relation: %+v", svo)
	}
	if !approx(svo.Confidence, 0.9) {
		t.Fatalf("svo confidence = %v, want 0.9 for a direct object", svo.Confidence)
	}
}

func TestClassifyDoubleNegativeFlipsBack(t *testing.T) {
	annotator := newFakeAnnotator().add(doubleNegativeQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "I do n't dislike pizza", nil, "u1", "")

	if result.RelationshipType != domain.RelationLikes {
		t.Fatalf("relationship type = %q, want likes", result.RelationshipType)
	}
}

func TestClassifyHypotheticalQuestion(t *testing.T) {
	annotator := newFakeAnnotator().add(hypotheticalQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "What would happen if I could fly?", nil, "u1", "")

	if result.IntentType != domain.IntentHypothetical {
		t.Fatalf("intent = %q, want hypothetical", result.IntentType)
	}
	if !result.Sophistication.IsHypothetical {
		t.Fatal("expected hypothetical sophistication flag")
	}
	if len(result.MatchedAdvancedPatterns[domain.PatternConditional]) != 1 {
		t.Fatal("expected one conditional pattern match")
	}
	// Base confidence minus the reasoning penalty.
	if !approx(result.IntentConfidence, 0.4) {
		t.Fatalf("confidence = %v, want 0.4", result.IntentConfidence)
	}
}

func TestClassifyLayeredPatterns(t *testing.T) {
	annotator := newFakeAnnotator().add(layeredPatternQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "I sort of used to really love hiking", nil, "u1", "")

	if result.IntentType != domain.IntentTemporalQuery {
		t.Fatalf("intent = %q, want temporal_query", result.IntentType)
	}
	if !result.HasTemporalChange || !result.HasHedging || !result.HasStrongPreference {
		t.Fatalf("expected all three pattern flags, got change=%v hedging=%v strong=%v",
			result.HasTemporalChange, result.HasHedging, result.HasStrongPreference)
	}
	// Two agreeing temporal signals, minus hedging, plus intensity.
	if !approx(result.IntentConfidence, 0.75) {
		t.Fatalf("confidence = %v, want 0.75", result.IntentConfidence)
	}
}

func TestClassifyConversationalDefault(t *testing.T) {
	annotator := newFakeAnnotator().add(weatherQuery())
	uc := newTestClassifier(annotator)

	result := uc.Classify(context.Background(), "The weather is nice today", nil, "u1", "")

	if result.IntentType != domain.IntentConversational {
		t.Fatalf("intent = %q, want conversational", result.IntentType)
	}
	if len(result.DataSources) != 1 || result.DataSources[0] != domain.SourceVectorStore {
		t.Fatalf("conversational queries use the vector store only, got %v", result.DataSources)
	}
}

func TestClassifyEmptyQueryFallsBack(t *testing.T) {
	uc := newTestClassifier(newFakeAnnotator())

	result := uc.Classify(context.Background(), "   ", nil, "u1", "")

	if result.IntentType != domain.IntentConversational {
		t.Fatalf("intent = %q, want conversational fallback", result.IntentType)
	}
	if !approx(result.IntentConfidence, DefaultTuning().MinConfidence) {
		t.Fatalf("confidence = %v, want the floor", result.IntentConfidence)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	annotator := newFakeAnnotator().add(negatedPreferenceQuery())
	uc := newTestClassifier(annotator)

	first := uc.Classify(context.Background(), "I do n't like spicy food", nil, "u1", "")
	second := uc.Classify(context.Background(), "I do n't like spicy food", nil, "u1", "")

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("classification not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestClassifyDegradedWithoutParser(t *testing.T) {
	annotator := newFakeAnnotator()
	annotator.hasParser = false
	uc := newTestClassifier(annotator)

	// Whitespace tokens without POS or deps still carry the query to the
	// right store through whole-word keyword containment.
	result := uc.Classify(context.Background(), "When did we first talk?", nil, "u1", "")

	if result.IntentType != domain.IntentTemporalQuery {
		t.Fatalf("intent = %q, want temporal_query in degraded mode", result.IntentType)
	}
	if !hasSource(result, domain.SourceTimeSeries) {
		t.Fatal("degraded temporal query must still select the time-series store")
	}
}
