package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/core/ports"
)

// ClassifyUseCase is the unified query classifier: one annotation pass,
// then a fixed priority pipeline (temporal > relationship > emotional >
// factual > conversational) fusing keyword, vector, grammatical and
// emotion-model signals into a single ClassificationResult.
type ClassifyUseCase struct {
	annotator ports.Annotator
	cache     *KeywordCache
	semantic  *semanticMatcher
	lexical   *lexicalMatcher
	patterns  *PatternTable
	lexicon   Lexicon
	tuning    Tuning
}

func NewClassifyUseCase(annotator ports.Annotator, lexicon Lexicon, tuning Tuning) *ClassifyUseCase {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	cache := NewKeywordCache(annotator)
	return &ClassifyUseCase{
		annotator: annotator,
		cache:     cache,
		semantic:  newSemanticMatcher(annotator, cache),
		lexical:   newLexicalMatcher(annotator),
		patterns:  NewPatternTable(),
		lexicon:   lexicon,
		tuning:    tuning.normalize(),
	}
}

// Classify never fails for input-data reasons: analyzer problems degrade
// to "no match from this analyzer" and the worst case is a low-confidence
// conversational result.
func (uc *ClassifyUseCase) Classify(
	_ context.Context,
	query string,
	emotion *domain.EmotionData,
	userID string,
	characterName string,
) (result domain.ClassificationResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("classify_recovered", "panic", fmt.Sprint(r), "user_id", userID)
			result = uc.fallbackResult(query)
		}
	}()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return uc.fallbackResult(query)
	}

	annotated := uc.annotator.Annotate(trimmed)
	if annotated == nil || len(annotated.Tokens) == 0 {
		return uc.fallbackResult(query)
	}

	ev := uc.gatherEvidence(annotated, emotion)
	return uc.fuse(trimmed, annotated, ev)
}

// evidence is the per-stage partial output consumed by the fusion step.
type evidence struct {
	patterns map[domain.PatternCategory][]domain.PatternMatch
	negation NegationInfo
	svo      []domain.SVORelationship
	soph     domain.QuestionSophistication

	temporalHit      bool
	temporalKeywords []string

	relationshipHit  bool
	relationshipType string
	relationKeywords []string

	emotionalSources int
	emotionKeywords  []string
	semanticMatches  []domain.SemanticMatch

	factualHit      bool
	factualKeywords []string
}

func (uc *ClassifyUseCase) gatherEvidence(annotated *domain.AnnotatedQuery, emotion *domain.EmotionData) evidence {
	ev := evidence{
		patterns: uc.patterns.Extract(annotated),
		negation: DetectNegation(annotated),
		svo:      ExtractSVO(annotated),
		soph:     AnalyzeSophistication(annotated),
	}

	ev.temporalHit, ev.temporalKeywords = uc.lexical.match(annotated, uc.lexicon[CategoryTemporal])

	ev.relationshipType = uc.relationshipType(annotated, ev)
	socialHit, socialKeywords := uc.lexical.match(annotated, uc.lexicon[CategoryRelationship])
	ev.relationKeywords = socialKeywords
	ev.relationshipHit = socialHit || uc.hasSVORelation(ev.svo)

	exactHit, emotionKeywords := uc.lexical.match(annotated, uc.lexicon[CategoryEmotional])
	if exactHit {
		ev.emotionalSources++
		ev.emotionKeywords = emotionKeywords
	}
	semHit, semMatches := uc.semantic.match(annotated, uc.lexicon[CategoryEmotional], uc.tuning.SemanticThreshold)
	// A vector hit only counts when exact matching did not already
	// explain the signal.
	if semHit && !exactHit {
		ev.emotionalSources++
		ev.semanticMatches = semMatches
	}
	if emotion != nil && emotion.Intensity >= uc.tuning.EmotionIntensityThreshold {
		ev.emotionalSources++
	}

	factualHit, factualKeywords := uc.lexical.match(annotated, uc.lexicon[CategoryFactual])
	ev.factualHit = factualHit || ev.soph.IsPreference || strings.HasSuffix(annotated.Text, "?")
	ev.factualKeywords = factualKeywords

	return ev
}

// relationshipType derives the stored relation label: from the first SVO
// relation on a relation verb, or from a plain relation-verb keyword plus
// the sentence-level negation flag when no parse is available.
func (uc *ClassifyUseCase) relationshipType(annotated *domain.AnnotatedQuery, ev evidence) string {
	for _, rel := range ev.svo {
		if label, ok := domain.RelationForVerb(rel.Verb, rel.Negated); ok {
			return label
		}
	}
	for i := range annotated.Tokens {
		token := &annotated.Tokens[i]
		if label, ok := domain.RelationForVerb(token.Lemma, ev.negation.HasNegation); ok {
			return label
		}
	}
	return ""
}

func (uc *ClassifyUseCase) hasSVORelation(svo []domain.SVORelationship) bool {
	for _, rel := range svo {
		if _, ok := domain.RelationForVerb(rel.Verb, rel.Negated); ok {
			return true
		}
	}
	return false
}

func (uc *ClassifyUseCase) fuse(query string, annotated *domain.AnnotatedQuery, ev evidence) domain.ClassificationResult {
	t := uc.tuning
	var (
		intent     domain.IntentType
		confidence float64
		reasons    []string
		matched    []string
		keywords   []string
	)

	hedged := len(ev.patterns[domain.PatternHedging]) > 0
	strongPref := len(ev.patterns[domain.PatternStrongPreference]) > 0
	temporalChange := len(ev.patterns[domain.PatternTemporalChange]) > 0
	negatedPref := len(ev.patterns[domain.PatternNegatedPreference]) > 0

	switch {
	case ev.temporalHit || temporalChange:
		intent = domain.IntentTemporalQuery
		signals := 1
		if ev.temporalHit && temporalChange {
			signals = 2
		}
		confidence = t.BaseConfidence + float64(signals-1)*t.AgreementBonus
		keywords = append(keywords, ev.temporalKeywords...)
		matched = append(matched, "temporal_keywords")
		reasons = append(reasons, "temporal markers present; time-series history required")

	case ev.relationshipHit:
		intent = domain.IntentRelationship
		signals := 1
		if ev.relationshipType != "" && len(ev.relationKeywords) > 0 {
			signals = 2
		}
		confidence = t.BaseConfidence + float64(signals-1)*t.AgreementBonus
		keywords = append(keywords, ev.relationKeywords...)
		matched = append(matched, "relationship_signals")
		if ev.relationshipType != "" {
			reasons = append(reasons, fmt.Sprintf("relation %q extracted from grammatical structure", ev.relationshipType))
		} else {
			reasons = append(reasons, "relationship keywords present")
		}

	case ev.emotionalSources > 0:
		intent = domain.IntentEmotionalSupport
		confidence = t.BaseConfidence + float64(ev.emotionalSources-1)*t.AgreementBonus
		keywords = append(keywords, ev.emotionKeywords...)
		matched = append(matched, "emotional_signals")
		reasons = append(reasons, fmt.Sprintf("%d emotional signal source(s) agree", ev.emotionalSources))

	case ev.factualHit:
		intent = domain.IntentFactualRecall
		confidence = t.BaseConfidence
		keywords = append(keywords, ev.factualKeywords...)
		matched = append(matched, "factual_keywords")
		reasons = append(reasons, "factual recall markers present")
		if ev.soph.IsHypothetical {
			intent = domain.IntentHypothetical
			reasons = append(reasons, "hypothetical structure; reasoning path preferred over lookup")
		}

	default:
		intent = domain.IntentConversational
		confidence = t.MinConfidence * 2
		reasons = append(reasons, "no classification signals fired")
	}

	// Question-sophistication adjustments apply to fact-oriented intents.
	if intent == domain.IntentFactualRecall || intent == domain.IntentHypothetical {
		if ev.soph.IsPreference {
			confidence += t.PreferenceBoost
			reasons = append(reasons, "preference question boosts recall confidence")
		}
		if ev.soph.IsComparison || ev.soph.IsHypothetical {
			confidence -= t.ReasoningPenalty
			reasons = append(reasons, "comparison/hypothetical structure lowers literal-recall confidence")
		}
	}
	if hedged {
		confidence -= t.HedgingPenalty
		reasons = append(reasons, "hedging markers lower confidence")
	}
	if strongPref {
		confidence += t.StrongPreferenceBoost
		reasons = append(reasons, "intensified preference raises confidence")
	}
	if negatedPref {
		reasons = append(reasons, "negated preference flips the stored relation")
	}

	for _, category := range []domain.PatternCategory{
		domain.PatternNegatedPreference,
		domain.PatternStrongPreference,
		domain.PatternTemporalChange,
		domain.PatternHedging,
		domain.PatternConditional,
	} {
		if len(ev.patterns[category]) > 0 {
			matched = append(matched, string(category))
		}
	}

	sources := uc.dataSources(intent, ev)

	return domain.ClassificationResult{
		QueryText:        query,
		IntentType:       intent,
		IntentConfidence: t.clamp(confidence),
		VectorStrategy:   domain.StrategyForIntent(intent),
		DataSources:      sources,
		MatchedPatterns:  matched,
		Keywords:         dedupeKeywords(keywords),
		SemanticMatches:  ev.semanticMatches,
		RelationshipType: ev.relationshipType,
		SVORelationships: ev.svo,

		HasNegation:         ev.negation.HasNegation,
		HasHedging:          hedged,
		HasTemporalChange:   temporalChange,
		HasStrongPreference: strongPref,

		MatchedAdvancedPatterns: ev.patterns,
		Sophistication:          ev.soph,
		Reasoning:               strings.Join(reasons, "; "),
	}
}

// dataSources selects the backing stores: a per-intent base set, plus
// stores forced by specific signals. Temporal evidence always forces the
// time-series store; relationship evidence and preference questions
// always force the fact store. The set is never empty.
func (uc *ClassifyUseCase) dataSources(intent domain.IntentType, ev evidence) []domain.DataSource {
	set := map[domain.DataSource]struct{}{
		domain.SourceVectorStore: {},
	}
	switch intent {
	case domain.IntentTemporalQuery:
		set[domain.SourceTimeSeries] = struct{}{}
	case domain.IntentRelationship:
		set[domain.SourceFactStore] = struct{}{}
	}
	if ev.temporalHit || len(ev.patterns[domain.PatternTemporalChange]) > 0 {
		set[domain.SourceTimeSeries] = struct{}{}
	}
	if ev.relationshipHit || ev.soph.IsPreference {
		set[domain.SourceFactStore] = struct{}{}
	}

	out := make([]domain.DataSource, 0, len(set))
	for _, s := range []domain.DataSource{domain.SourceVectorStore, domain.SourceFactStore, domain.SourceTimeSeries} {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (uc *ClassifyUseCase) fallbackResult(query string) domain.ClassificationResult {
	return domain.ClassificationResult{
		QueryText:        query,
		IntentType:       domain.IntentConversational,
		IntentConfidence: uc.tuning.MinConfidence,
		VectorStrategy:   domain.StrategyForIntent(domain.IntentConversational),
		DataSources:      []domain.DataSource{domain.SourceVectorStore},
		Reasoning:        "empty or unparseable query; conversational default",
	}
}
