package domain

// IntentType is the coarse category of what the user is asking for.
// Ties between competing intents are broken by a fixed priority order:
// temporal > relationship > emotional > factual > conversational.
type IntentType string

const (
	IntentFactualRecall    IntentType = "factual_recall"
	IntentTemporalQuery    IntentType = "temporal_query"
	IntentEmotionalSupport IntentType = "emotional_support"
	IntentRelationship     IntentType = "relationship_query"
	IntentHypothetical     IntentType = "hypothetical"
	IntentConversational   IntentType = "conversational"
)

// VectorSpace names an embedding space a downstream similarity search
// should run in.
type VectorSpace string

const (
	SpaceContent  VectorSpace = "content"
	SpaceEmotion  VectorSpace = "emotion"
	SpaceSemantic VectorSpace = "semantic"
)

// VectorStrategy selects the primary embedding space and a fallback space
// to blend in when the primary yields thin results.
type VectorStrategy struct {
	Primary  VectorSpace `json:"primary"`
	Fallback VectorSpace `json:"fallback"`
}

// DataSource identifies a backing store the caller should consult.
type DataSource string

const (
	SourceVectorStore DataSource = "vector_store"
	SourceFactStore   DataSource = "fact_store"
	SourceTimeSeries  DataSource = "time_series"
)

// EmotionData is the optional upstream emotion-model output accompanying
// a query. Its absence removes one emotional-signal source and nothing
// else.
type EmotionData struct {
	PrimaryEmotion string  `json:"primary_emotion"`
	Confidence     float64 `json:"confidence"`
	Intensity      float64 `json:"intensity"`
	IsMultiEmotion bool    `json:"is_multi_emotion"`
	EmotionCount   int     `json:"emotion_count"`
}

// SemanticMatch records one word-vector match between a query token and a
// category keyword. Empty unless the vector fallback engaged.
type SemanticMatch struct {
	QueryToken   string  `json:"query_token"`
	Keyword      string  `json:"keyword"`
	Similarity   float64 `json:"similarity"`
	LocalContext string  `json:"local_context,omitempty"`
}

// SVORelationship is a subject-verb-object triple extracted from the
// shallow parse. Confidence is two-tier: 0.9 for a literal direct object,
// 0.7 for an object synthesized from a clausal complement.
type SVORelationship struct {
	Subject        string  `json:"subject"`
	Verb           string  `json:"verb"`
	Object         string  `json:"object"`
	Negated        bool    `json:"negated"`
	Confidence     float64 `json:"confidence"`
	SourceSentence string  `json:"source_sentence,omitempty"`
}

// PatternCategory names one token-sequence pattern family.
type PatternCategory string

const (
	PatternNegatedPreference PatternCategory = "negated_preference"
	PatternStrongPreference  PatternCategory = "strong_preference"
	PatternTemporalChange    PatternCategory = "temporal_change"
	PatternHedging           PatternCategory = "hedging"
	PatternConditional       PatternCategory = "conditional"
)

// PatternMatch is one matched span of a token-sequence pattern.
type PatternMatch struct {
	Text      string `json:"text"`
	Lemma     string `json:"lemma"`
	StartTok  int    `json:"start_token"`
	EndTok    int    `json:"end_token"`
	RootToken string `json:"root_token"`
}

// QuestionSophistication summarises the grammatical complexity signals
// used to bias routing confidence.
type QuestionSophistication struct {
	IsPreference    bool    `json:"is_preference"`
	IsComparison    bool    `json:"is_comparison"`
	IsHypothetical  bool    `json:"is_hypothetical"`
	ComplexityScore float64 `json:"complexity_score"`
}

// ClassificationResult is the transient per-query output of the engine.
// It is constructed once, never mutated afterwards, and never persisted.
type ClassificationResult struct {
	QueryText        string     `json:"query_text"`
	IntentType       IntentType `json:"intent_type"`
	IntentConfidence float64    `json:"intent_confidence"`

	VectorStrategy VectorStrategy `json:"vector_strategy"`
	DataSources    []DataSource   `json:"data_sources"`

	MatchedPatterns []string        `json:"matched_patterns,omitempty"`
	Keywords        []string        `json:"keywords,omitempty"`
	SemanticMatches []SemanticMatch `json:"semantic_matches,omitempty"`

	RelationshipType string            `json:"relationship_type,omitempty"`
	SVORelationships []SVORelationship `json:"svo_relationships,omitempty"`

	HasNegation         bool `json:"has_negation"`
	HasHedging          bool `json:"has_hedging"`
	HasTemporalChange   bool `json:"has_temporal_change"`
	HasStrongPreference bool `json:"has_strong_preference"`

	MatchedAdvancedPatterns map[PatternCategory][]PatternMatch `json:"matched_advanced_patterns,omitempty"`

	Sophistication QuestionSophistication `json:"question_sophistication"`

	Reasoning string `json:"reasoning"`
}

// HasDataSource reports whether the result selected the given store.
func (r *ClassificationResult) HasDataSource(source DataSource) bool {
	for _, s := range r.DataSources {
		if s == source {
			return true
		}
	}
	return false
}

// strategyBySpace maps a final intent to its vector strategy.
var strategyByIntent = map[IntentType]VectorStrategy{
	IntentEmotionalSupport: {Primary: SpaceEmotion, Fallback: SpaceContent},
	IntentFactualRecall:    {Primary: SpaceContent, Fallback: SpaceSemantic},
	IntentTemporalQuery:    {Primary: SpaceContent, Fallback: SpaceSemantic},
	IntentRelationship:     {Primary: SpaceSemantic, Fallback: SpaceContent},
	IntentHypothetical:     {Primary: SpaceSemantic, Fallback: SpaceContent},
	IntentConversational:   {Primary: SpaceContent, Fallback: SpaceEmotion},
}

// StrategyForIntent returns the vector strategy for an intent.
func StrategyForIntent(intent IntentType) VectorStrategy {
	if s, ok := strategyByIntent[intent]; ok {
		return s
	}
	return VectorStrategy{Primary: SpaceContent, Fallback: SpaceSemantic}
}
