package usecase

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Category names used by the classifier. Keyword lists enumerate base
// forms; the lemma/stem matcher covers inflections.
const (
	CategoryEmotional      = "emotional_keywords"
	CategoryRelationship   = "relationship_keywords"
	CategoryTemporal       = "temporal_keywords"
	CategoryFactual        = "factual_keywords"
	CategoryConversational = "conversational_keywords"
)

// Lexicon maps a category name to its keyword list.
type Lexicon map[string][]string

// DefaultLexicon returns the built-in category keyword lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		CategoryEmotional: {
			"happy", "sad", "angry", "excited", "worried", "anxious",
			"scared", "afraid", "lonely", "depressed", "frustrated",
			"stressed", "upset", "nervous", "overwhelmed", "feel",
			"feeling", "cry", "miss", "hurt", "glad", "joy",
			"love", "hate",
		},
		CategoryRelationship: {
			"friend", "best friend", "family", "mother", "father",
			"mom", "dad", "brother", "sister", "partner",
			"girlfriend", "boyfriend", "wife", "husband",
			"relationship", "roommate", "coworker", "neighbor",
		},
		CategoryTemporal: {
			"first", "last", "recently", "earlier", "before", "ago",
			"yesterday", "previous", "history", "when did",
			"most recent", "last time", "used to", "back then",
		},
		CategoryFactual: {
			"what", "where", "who", "which", "remember", "recall",
			"tell me about", "do i", "did i", "my favorite",
		},
		CategoryConversational: {
			"hello", "hi", "hey", "thanks", "thank you", "bye",
			"goodbye", "how are you",
		},
	}
}

// LoadLexicon merges a YAML category file over the defaults. An empty
// path returns the defaults unchanged.
func LoadLexicon(path string) (Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon file: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse lexicon yaml: %w", err)
	}

	for category, keywords := range overrides {
		if len(keywords) == 0 {
			continue
		}
		lex[category] = dedupeKeywords(keywords)
	}
	return lex, nil
}

// Categories returns the category names in stable order.
func (l Lexicon) Categories() []string {
	out := make([]string, 0, len(l))
	for name := range l {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
