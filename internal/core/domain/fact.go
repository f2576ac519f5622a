package domain

import "time"

// Relationship labels derived from SVO verbs. A negation on the verb maps
// the label through inverseRelation; a second negation maps it back.
const (
	RelationLikes    = "likes"
	RelationDislikes = "dislikes"
	RelationLoves    = "loves"
	RelationHates    = "hates"
	RelationEnjoys   = "enjoys"
	RelationPrefers  = "prefers"
	RelationWants    = "wants"
	RelationAvoids   = "avoids"
	RelationKnows    = "knows"
	RelationFears    = "fears"
)

// relationByVerb maps sentiment/relation verb lemmas to a stored label.
var relationByVerb = map[string]string{
	"like":    RelationLikes,
	"love":    RelationLoves,
	"enjoy":   RelationEnjoys,
	"prefer":  RelationPrefers,
	"want":    RelationWants,
	"dislike": RelationDislikes,
	"hate":    RelationHates,
	"avoid":   RelationAvoids,
	"know":    RelationKnows,
	"fear":    RelationFears,
	"adore":   RelationLoves,
}

// inverseRelation holds the polarity flips for the sentiment family.
// Labels absent from this table (knows, fears) have no safe inverse and
// keep their base label with Negated=true instead of being flipped.
var inverseRelation = map[string]string{
	RelationLikes:    RelationDislikes,
	RelationDislikes: RelationLikes,
	RelationLoves:    RelationHates,
	RelationHates:    RelationLoves,
	RelationEnjoys:   RelationDislikes,
	RelationPrefers:  RelationAvoids,
	RelationWants:    RelationAvoids,
	RelationAvoids:   RelationWants,
}

// RelationForVerb resolves a verb lemma plus negation state to a stored
// relationship label. The second return is false when the verb is not a
// relation verb at all.
func RelationForVerb(verbLemma string, negated bool) (string, bool) {
	base, ok := relationByVerb[verbLemma]
	if !ok {
		return "", false
	}
	if !negated {
		return base, true
	}
	if inv, ok := inverseRelation[base]; ok {
		return inv, true
	}
	return base, true
}

// HasInverseRelation reports whether negating the label flips it.
func HasInverseRelation(label string) bool {
	_, ok := inverseRelation[label]
	return ok
}

// UserFact is one extracted fact about a user, persisted by the fact
// store. Confidence carries the SVO tier (or the extractor's own score).
type UserFact struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Character  string    `json:"character,omitempty"`
	Subject    string    `json:"subject"`
	Relation   string    `json:"relation"`
	Object     string    `json:"object"`
	Negated    bool      `json:"negated"`
	Confidence float64   `json:"confidence"`
	SourceText string    `json:"source_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ConversationMessage is one time-ordered conversation record, the unit
// of the time-series store.
type ConversationMessage struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// EnrichmentJob is the queue payload consumed by the enrichment worker.
type EnrichmentJob struct {
	UserID         string                `json:"user_id"`
	ConversationID string                `json:"conversation_id"`
	Character      string                `json:"character,omitempty"`
	Messages       []ConversationMessage `json:"messages"`
}

// MemoryHit is one vector-store result.
type MemoryHit struct {
	ID      string      `json:"id"`
	Text    string      `json:"text"`
	Space   VectorSpace `json:"space"`
	Score   float64     `json:"score"`
	UserID  string      `json:"user_id,omitempty"`
	Created time.Time   `json:"created,omitempty"`
}

// RetrievalEnvelope is the combined store fan-out result returned by the
// retrieval use case alongside the classification that drove it.
type RetrievalEnvelope struct {
	Classification ClassificationResult  `json:"classification"`
	Memories       []MemoryHit           `json:"memories,omitempty"`
	Facts          []UserFact            `json:"facts,omitempty"`
	History        []ConversationMessage `json:"history,omitempty"`
}
